package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/common"
	"github.com/dmitrijs2005/davmarks/internal/logging"
)

// BookmarkStore is the part of the local store the services write through.
type BookmarkStore interface {
	GetTree(ctx context.Context) (bookmarks.Tree, error)
	Roots(ctx context.Context) ([]bookmarks.Node, error)
	Exists(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
	Create(ctx context.Context, parentID string, n bookmarks.Node) (string, error)
}

// ErrNoRoot is returned when the store has none of the platform's root
// folders to import into.
var ErrNoRoot = fmt.Errorf("%w: no root folder available", common.ErrImport)

// Outcome is what an import did with one node.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	// OutcomeRetried marks a node created under the fallback root after
	// its own parent was rejected.
	OutcomeRetried Outcome = "retried"
	OutcomeSkipped Outcome = "skipped"
)

// NodeResult records the outcome for a single imported node.
type NodeResult struct {
	Title string
	// ID is the store id of the created node, empty when skipped.
	ID       string
	ParentID string
	Outcome  Outcome
	Err      error
}

// ImportReport counts per-node outcomes of an import. Nodes lists them in
// the order the nodes were visited: level by level, parents first.
type ImportReport struct {
	Created int
	Retried int
	Skipped int
	Errors  []error
	Nodes   []NodeResult
}

func (r *ImportReport) record(res NodeResult) {
	switch res.Outcome {
	case OutcomeRetried:
		r.Retried++
		r.Created++
	case OutcomeCreated:
		r.Created++
	case OutcomeSkipped:
		r.Skipped++
		r.Errors = append(r.Errors, res.Err)
	}
	r.Nodes = append(r.Nodes, res)
}

// Importer rebuilds decoded trees inside the local store.
type Importer struct {
	store    BookmarkStore
	resolver bookmarks.RootFolderResolver
	log      logging.Logger
}

func NewImporter(store BookmarkStore, resolver bookmarks.RootFolderResolver, log logging.Logger) *Importer {
	return &Importer{store: store, resolver: resolver, log: log}
}

// ReplaceAll empties the root folders and imports top in their place.
func (im *Importer) ReplaceAll(ctx context.Context, top []bookmarks.Node) (ImportReport, error) {
	if _, err := im.fallbackRoot(ctx); err != nil {
		return ImportReport{}, err
	}
	if err := im.store.Clear(ctx); err != nil {
		return ImportReport{}, fmt.Errorf("failed to clear local bookmarks: %w", err)
	}
	return im.Import(ctx, top)
}

// Import adds top to the store. A top-level folder whose title names a
// platform root contributes its children to that root; every other node
// lands in the fallback root. Nodes the store rejects are retried once
// under the fallback root and skipped if that fails too.
func (im *Importer) Import(ctx context.Context, top []bookmarks.Node) (ImportReport, error) {
	var rep ImportReport

	fallback, err := im.fallbackRoot(ctx)
	if err != nil {
		return rep, err
	}

	existing, err := im.rootIDs(ctx)
	if err != nil {
		return rep, err
	}

	// arena of pending nodes; parent < 0 means the node goes to root
	type item struct {
		node   *bookmarks.Node
		parent int
		root   string
	}
	var arena []item
	for i := range top {
		n := &top[i]
		if n.IsFolder() {
			if id, ok := im.resolver.MatchRoot(n.Title); ok && existing[id] {
				for j := range n.Children {
					arena = append(arena, item{node: &n.Children[j], parent: -1, root: id})
				}
				continue
			}
		}
		arena = append(arena, item{node: n, parent: -1, root: fallback})
	}

	// The arena is walked breadth-first and grows as folders are visited.
	// A child needs its parent's store id, so parents are always created
	// first; a post-order walk cannot serve here. Outcomes are recorded
	// per node in visit order.
	ids := make([]string, 0, len(arena))
	for i := 0; i < len(arena); i++ {
		it := arena[i]

		parentID := it.root
		if it.parent >= 0 {
			parentID = ids[it.parent]
			if parentID == "" {
				parentID = fallback
			}
		}

		res := im.create(ctx, parentID, fallback, *it.node)
		rep.record(res)
		ids = append(ids, res.ID)
		if res.Outcome == OutcomeSkipped {
			im.log.Warn(ctx, "bookmark skipped during import", "title", res.Title, "error", res.Err)
		}

		for j := range it.node.Children {
			arena = append(arena, item{node: &it.node.Children[j], parent: i})
		}
	}

	im.log.Info(ctx, "import finished", "created", rep.Created, "retried", rep.Retried, "skipped", rep.Skipped)
	return rep, nil
}

func (im *Importer) create(ctx context.Context, parentID, fallback string, n bookmarks.Node) NodeResult {
	n.ID = ""
	n.Children = nil
	if !n.IsFolder() {
		n.URL = im.resolver.RewriteURL(n.URL)
	}
	res := NodeResult{Title: n.Title, ParentID: parentID}

	id, err := im.store.Create(ctx, parentID, n)
	if err == nil {
		res.ID, res.Outcome = id, OutcomeCreated
		return res
	}
	if !errors.Is(err, common.ErrImport) || parentID == fallback {
		res.Outcome, res.Err = OutcomeSkipped, err
		return res
	}

	im.log.Debug(ctx, "retrying under fallback root", "title", n.Title, "parent", parentID, "error", err)
	if id, err = im.store.Create(ctx, fallback, n); err != nil {
		res.Outcome, res.Err = OutcomeSkipped, err
		return res
	}
	res.ID, res.ParentID, res.Outcome = id, fallback, OutcomeRetried
	return res
}

// fallbackRoot returns the first root in the resolver's order that exists
// in the store.
func (im *Importer) fallbackRoot(ctx context.Context) (string, error) {
	for _, id := range im.resolver.FallbackOrder() {
		ok, err := im.store.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if ok {
			return id, nil
		}
	}
	return "", ErrNoRoot
}

func (im *Importer) rootIDs(ctx context.Context) (map[string]bool, error) {
	roots, err := im.store.Roots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list root folders: %w", err)
	}
	set := make(map[string]bool, len(roots))
	for _, r := range roots {
		set[r.ID] = true
	}
	return set, nil
}
