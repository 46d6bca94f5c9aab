// Package cli provides the interactive davmarks command-line client.
//
// It wires configuration, the local bookmark store, the sync services and
// an interactive REPL. Typical flow: run setup once to save the WebDAV
// credentials, edit bookmarks locally, and let the background loop (or
// the sync command) keep the remote file and the store in step.
//
// Key features:
//   - Setup / test of the WebDAV credentials
//   - Automatic, manual and forced sync in either direction
//   - List / add / rename / move / delete bookmarks
//   - Main-folder-only mode
//   - Export / import of bookmark HTML files
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
