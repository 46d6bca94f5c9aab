// Package nodes is the local bookmark store: a forest of folders and links
// kept in the client database, with change notifications for every
// mutation.
package nodes

import (
	"context"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
)

// Op names the kind of change an Event reports.
type Op string

const (
	OpCreated Op = "created"
	OpRemoved Op = "removed"
	OpChanged Op = "changed"
	OpMoved   Op = "moved"
)

// Event describes one mutation. ParentID is the new parent for created and
// moved nodes and the former parent for removed ones.
type Event struct {
	Op       Op
	ID       string
	ParentID string
}

// Listener receives events synchronously, on the goroutine that made the
// change and with its context.
type Listener func(ctx context.Context, ev Event)

// Repository is the bookmark store.
type Repository interface {
	// EnsureRoots creates the platform's root folders when missing.
	EnsureRoots(ctx context.Context, r bookmarks.RootFolderResolver) error

	// GetTree returns the whole forest, ids included.
	GetTree(ctx context.Context) (bookmarks.Tree, error)

	// Roots lists the platform root folders without their children.
	Roots(ctx context.Context) ([]bookmarks.Node, error)

	Exists(ctx context.Context, id string) (bool, error)

	// Create adds n (without its children) as the last child of parentID
	// and returns the new id.
	Create(ctx context.Context, parentID string, n bookmarks.Node) (string, error)

	// Update changes title and, for links, the URL.
	Update(ctx context.Context, id, title, url string) error

	// Move makes id the last child of newParentID.
	Move(ctx context.Context, id, newParentID string) error

	// Remove deletes id and everything below it.
	Remove(ctx context.Context, id string) error

	// Clear removes every node below the root folders.
	Clear(ctx context.Context) error

	// Subscribe registers l and returns a function that unregisters it.
	Subscribe(l Listener) func()
}
