package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/client/models"
	"github.com/dmitrijs2005/davmarks/internal/client/services"
	"github.com/dmitrijs2005/davmarks/internal/common"
	"github.com/dmitrijs2005/davmarks/internal/filex"
	"github.com/dmitrijs2005/davmarks/internal/netscape"
)

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// readCredentials prompts for the three credential fields.
func (a *App) readCredentials() (models.CredentialInput, error) {
	var in models.CredentialInput
	var err error

	if in.ServerURL, err = GetSimpleText(a.reader, "Server URL (WebDAV folder)", a.out); err != nil {
		return in, err
	}
	if in.Username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
		return in, err
	}
	if in.Password, err = GetPassword(a.reader, a.out); err != nil {
		return in, err
	}
	return in, nil
}

func (a *App) Setup(ctx context.Context, _ []string) error {
	in, err := a.readCredentials()
	if err != nil {
		return err
	}
	if err := a.creds.Save(ctx, in); err != nil {
		return err
	}
	a.println("Credentials saved.")
	return nil
}

// TestConnection pings the server with the saved credentials, or with
// freshly entered ones when called as "test new".
func (a *App) TestConnection(ctx context.Context, args []string) error {
	var in models.CredentialInput
	var err error
	if len(args) > 0 && args[0] == "new" {
		in, err = a.readCredentials()
	} else {
		in, err = a.creds.Load(ctx)
		if errors.Is(err, common.ErrorNotFound) {
			return errors.New("no credentials saved, run setup first")
		}
	}
	if err != nil {
		return err
	}

	if err := a.creds.TestConnection(ctx, in); err != nil {
		return err
	}
	a.println("Connection OK.")
	return nil
}

func (a *App) Sync(ctx context.Context, _ []string) error {
	res, err := a.engine.Sync(ctx)
	if err != nil {
		return err
	}
	a.println(describe(res))
	return nil
}

func (a *App) Upload(ctx context.Context, _ []string) error {
	res, err := a.engine.Upload(ctx)
	if err != nil {
		return err
	}
	a.println(describe(res))
	return nil
}

func (a *App) Download(ctx context.Context, _ []string) error {
	res, err := a.engine.Download(ctx)
	if err != nil {
		return err
	}
	a.println(describe(res))
	return nil
}

func describe(res services.Result) string {
	switch {
	case res.Debounced:
		return "Nothing to do: the same remote version was just downloaded."
	case res.Action == models.ActionDownload:
		s := fmt.Sprintf("Downloaded remote bookmarks (%d created", res.Import.Created)
		if res.Import.Skipped > 0 {
			s += fmt.Sprintf(", %d skipped", res.Import.Skipped)
		}
		return s + ")."
	case res.Action == models.ActionUpload && res.Seeded:
		return "Remote file created from local bookmarks."
	case res.Action == models.ActionUpload:
		return "Uploaded local bookmarks."
	default:
		return "Already in sync."
	}
}

func (a *App) List(ctx context.Context, _ []string) error {
	tree, err := a.store.GetTree(ctx)
	if err != nil {
		return err
	}

	roots := bookmarks.Syncable(tree)
	bookmarks.Walk(roots, func(depth int, n bookmarks.Node) {
		indent := strings.Repeat("  ", depth)
		if n.IsFolder() {
			a.println(fmt.Sprintf("%s[%s] %s/", indent, n.ID, n.Title))
			return
		}
		a.println(fmt.Sprintf("%s[%s] %s <%s>", indent, n.ID, n.Title, n.URL))
	})

	folders, links := bookmarks.Count(roots)
	a.println(fmt.Sprintf("%d folders, %d links", folders-len(roots), links))
	return nil
}

func (a *App) AddFolder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("addfolder <parent> <title>")
	}
	id, err := a.store.Create(ctx, args[0], bookmarks.Folder(strings.Join(args[1:], " ")))
	if err != nil {
		return err
	}
	a.println("Created folder", id)
	return nil
}

func (a *App) AddLink(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("addlink <parent> <url> [title]")
	}
	title := args[1]
	if len(args) > 2 {
		title = strings.Join(args[2:], " ")
	}
	id, err := a.store.Create(ctx, args[0], bookmarks.Link(title, args[1]))
	if err != nil {
		return err
	}
	a.println("Created link", id)
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("rename <id> <title>")
	}
	tree, err := a.store.GetTree(ctx)
	if err != nil {
		return err
	}
	n, ok := findNode(tree, args[0])
	if !ok {
		return fmt.Errorf("node %s: %w", args[0], common.ErrorNotFound)
	}
	return a.store.Update(ctx, n.ID, strings.Join(args[1:], " "), n.URL)
}

func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("move <id> <parent>")
	}
	return a.store.Move(ctx, args[0], args[1])
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <id>")
	}
	return a.store.Remove(ctx, args[0])
}

func (a *App) MainOnly(ctx context.Context, args []string) error {
	opts, err := a.state.Options(ctx)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on", "true", "1":
			opts.OnlyMainFolder = true
		case "off", "false", "0":
			opts.OnlyMainFolder = false
		default:
			return usage("mainonly [on|off]")
		}
		if err := a.state.SaveOptions(ctx, opts); err != nil {
			return err
		}
	}

	mode := "off"
	if opts.OnlyMainFolder {
		mode = "on"
	}
	a.println("Main folder only:", mode)
	return nil
}

// Export writes the local bookmarks to a file in the same format used on
// the server.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("export <file>")
	}
	tree, err := a.store.GetTree(ctx)
	if err != nil {
		return err
	}
	html := netscape.Encode(bookmarks.Tree(bookmarks.Syncable(tree)), netscape.EncodeOptions{})
	if err := filex.WriteFile(args[0], []byte(html)); err != nil {
		return err
	}
	a.println("Exported to", args[0])
	return nil
}

// Import adds the bookmarks of a local HTML file. It is an ordinary local
// edit and marks the store dirty.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("import <file>")
	}
	data, err := filex.ReadFile(args[0])
	if err != nil {
		return err
	}
	tree, err := netscape.Decode(string(data), netscape.DecodeOptions{})
	if err != nil {
		return err
	}
	rep, err := a.importer.Import(ctx, tree)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Imported %d bookmarks (%d skipped).", rep.Created, rep.Skipped))
	for _, n := range rep.Nodes {
		if n.Outcome == services.OutcomeSkipped {
			a.println(fmt.Sprintf("  skipped %q: %v", n.Title, n.Err))
		}
	}
	return nil
}

func (a *App) Status(ctx context.Context, _ []string) error {
	st, err := a.state.SyncState(ctx)
	if err != nil {
		return err
	}
	last, err := a.state.Status(ctx)
	if err != nil {
		return err
	}
	opts, err := a.state.Options(ctx)
	if err != nil {
		return err
	}

	server := "(not configured)"
	if c, err := a.state.Credentials(ctx); err == nil {
		server = c.ServerURL + " as " + c.Username
	}

	a.println("Server:          ", server)
	a.println("Platform:        ", a.resolver.Platform())
	a.println("Local changes:   ", st.LocalDirty)
	if st.LastKnownServerTimestamp > 0 {
		a.println("Remote version:  ", time.Unix(st.LastKnownServerTimestamp, 0).UTC().Format(time.RFC3339))
	} else {
		a.println("Remote version:   never synced")
	}
	a.println("Main folder only:", opts.OnlyMainFolder)
	if !last.At.IsZero() {
		a.println("Last run:        ", last.At.Format(time.RFC3339), last.LastAction)
	}
	if last.LastError != "" {
		a.println("Last error:      ", last.LastError)
	}
	return nil
}

// statusLine is the short badge shown in the prompt.
func (a *App) statusLine(ctx context.Context) string {
	st, err := a.state.SyncState(ctx)
	if err != nil {
		return "(?)"
	}
	last, err := a.state.Status(ctx)
	if err != nil {
		return "(?)"
	}

	badge := "synced"
	switch {
	case last.LastError != "":
		badge = "error"
	case st.LocalDirty:
		badge = "dirty"
	case st.LastKnownServerTimestamp == 0:
		badge = "new"
	}
	if last.LastAction != "" && last.LastAction != models.ActionNoOp {
		badge += " " + string(last.LastAction)
	}
	return "(" + badge + ")"
}

func findNode(t bookmarks.Tree, id string) (bookmarks.Node, bool) {
	var found bookmarks.Node
	ok := false
	bookmarks.Walk(t, func(_ int, n bookmarks.Node) {
		if !ok && n.ID == id {
			found, ok = n, true
		}
	})
	return found, ok
}
