// Package client contains the client-side plumbing below the services.
//
// # Overview
//
//  1. A transport contract (see the Client interface) for the remote copy of
//     the bookmark file: Ping, ModTime, Download, Upload.
//  2. A WebDAV implementation (see WebDAVClient) that adds Basic
//     credentials to every request, retries idempotent verbs on network
//     failures and maps responses to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// Failures match the sentinels in internal/common with errors.Is:
// ErrAuth for 401, ErrorNotFound for 404, ErrServer for any other non-2xx
// status and ErrNetwork for transport failures and timeouts. StatusError
// carries the method and status code.
package client
