package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. Every handler
// receives the words after the command name. The real App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	Setup(ctx context.Context, args []string) error
	TestConnection(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	AddFolder(ctx context.Context, args []string) error
	AddLink(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	MainOnly(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  setup                         save server URL, username and password
  test                          check the saved (or entered) credentials
  sync                          run one sync decision
  upload | download             force a transfer in one direction
  (l)ist                        show local bookmarks with their ids
  addfolder <parent> <title>    create a folder
  addlink <parent> <url> <title>
                                create a link
  rename <id> <title>           change a title
  move <id> <parent>            move a node into another folder
  delete <id>                   delete a node and its content
  mainonly [on|off]             show or set main-folder-only sync
  export <file> | import <file> write or read a bookmark HTML file
  status                        show sync state
  exit | quit                   leave the program`

// runREPL starts a simple read–eval–print loop for the davmarks CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on a. Handler errors are printed and the loop
// continues. The loop exits on EOF, when ctx is done, or when the user
// types "exit" or "quit".
//
// The prompt shows the current sync status (from statusFn).
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("davmarks %s> ", statusFn()))
		line, err := readLineContext(ctx, reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var handler func(context.Context, []string) error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "setup":
			handler = a.Setup
		case "test":
			handler = a.TestConnection
		case "sync":
			handler = a.Sync
		case "upload":
			handler = a.Upload
		case "download":
			handler = a.Download
		case "l", "list":
			handler = a.List
		case "addfolder":
			handler = a.AddFolder
		case "addlink":
			handler = a.AddLink
		case "rename":
			handler = a.Rename
		case "move":
			handler = a.Move
		case "delete", "rm":
			handler = a.Delete
		case "mainonly":
			handler = a.MainOnly
		case "export":
			handler = a.Export
		case "import":
			handler = a.Import
		case "status":
			handler = a.Status
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if handler == nil {
			continue
		}
		if err := handler(ctx, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

// readLineContext reads one line but gives up when ctx ends. The read
// itself cannot be interrupted; its goroutine finishes with the next line
// or at process exit.
func readLineContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := readLine(reader)
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}
