package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/common"
	"github.com/dmitrijs2005/davmarks/internal/dbx"
)

var (
	// ErrParentNotFound is returned by Create and Move for an unknown or
	// non-folder parent.
	ErrParentNotFound = fmt.Errorf("%w: parent folder not found", common.ErrImport)

	// ErrRootFolder is returned when a root folder would be changed.
	ErrRootFolder = errors.New("root folders cannot be modified")

	// ErrCycle is returned when a folder would be moved below itself.
	ErrCycle = errors.New("folder cannot be moved into its own subtree")
)

// SQLiteRepository implements Repository on the nodes table.
type SQLiteRepository struct {
	db dbx.DBTX

	// mu serialises writes so sibling positions stay dense.
	mu sync.Mutex

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int

	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, listeners: make(map[int]Listener), now: time.Now}
}

func (r *SQLiteRepository) Subscribe(l Listener) func() {
	r.lmu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	r.lmu.Unlock()

	return func() {
		r.lmu.Lock()
		delete(r.listeners, id)
		r.lmu.Unlock()
	}
}

func (r *SQLiteRepository) emit(ctx context.Context, ev Event) {
	r.lmu.RLock()
	ls := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		ls = append(ls, l)
	}
	r.lmu.RUnlock()

	for _, l := range ls {
		l(ctx, ev)
	}
}

func (r *SQLiteRepository) EnsureRoots(ctx context.Context, res bookmarks.RootFolderResolver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO nodes (id, parent_id, position, kind, is_root) VALUES (?, NULL, 0, ?, 1)
		ON CONFLICT(id) DO NOTHING
	`, res.TreeRootID(), int(bookmarks.KindFolder))
	if err != nil {
		return fmt.Errorf("failed to create tree root: %w", err)
	}

	for i, root := range res.Roots() {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO nodes (id, parent_id, position, kind, title, is_root) VALUES (?, ?, ?, ?, ?, 1)
			ON CONFLICT(id) DO NOTHING
		`, root.ID, res.TreeRootID(), i, int(bookmarks.KindFolder), root.Title)
		if err != nil {
			return fmt.Errorf("failed to create root %s: %w", root.ID, err)
		}
	}
	return nil
}

type row struct {
	parent sql.NullString
	node   bookmarks.Node
}

func (r *SQLiteRepository) GetTree(ctx context.Context) (bookmarks.Tree, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, kind, title, url, date_added, date_modified
		FROM nodes ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to select nodes: %w", err)
	}
	defer rows.Close()

	var all []row
	for rows.Next() {
		var x row
		if err := rows.Scan(&x.node.ID, &x.parent, &x.node.Kind, &x.node.Title, &x.node.URL,
			&x.node.DateAdded, &x.node.DateModified); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		all = append(all, x)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}

	return assemble(all), nil
}

// assemble turns flat rows, sorted by position, into nested values. Nodes
// are finished in post-order so every child is complete before it is
// copied into its parent. Rows whose parent does not exist are dropped.
func assemble(all []row) bookmarks.Tree {
	children := make(map[string][]int)
	var roots []int
	for i, x := range all {
		if x.parent.Valid {
			children[x.parent.String] = append(children[x.parent.String], i)
		} else {
			roots = append(roots, i)
		}
	}

	var order []int
	stack := append([]int(nil), roots...)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, i)
		stack = append(stack, children[all[i].node.ID]...)
	}

	built := make([]bookmarks.Node, len(all))
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		n := all[i].node
		if kids := children[n.ID]; len(kids) > 0 {
			n.Children = make([]bookmarks.Node, len(kids))
			for j, c := range kids {
				n.Children[j] = built[c]
			}
		}
		built[i] = n
	}

	tree := make(bookmarks.Tree, len(roots))
	for j, i := range roots {
		tree[j] = built[i]
	}
	return tree
}

func (r *SQLiteRepository) Roots(ctx context.Context) ([]bookmarks.Node, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title FROM nodes
		WHERE is_root = 1 AND parent_id IS NOT NULL
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to select roots: %w", err)
	}
	defer rows.Close()

	var roots []bookmarks.Node
	for rows.Next() {
		n := bookmarks.Node{Kind: bookmarks.KindFolder}
		if err := rows.Scan(&n.ID, &n.Title); err != nil {
			return nil, fmt.Errorf("failed to scan root: %w", err)
		}
		roots = append(roots, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roots: %w", err)
	}
	return roots, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up node %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, parentID string, n bookmarks.Node) (string, error) {
	if n.Kind == bookmarks.KindLink && n.URL == "" {
		return "", fmt.Errorf("%w: link %q has no url", common.ErrImport, n.Title)
	}

	r.mu.Lock()
	id, err := r.create(ctx, parentID, n)
	r.mu.Unlock()
	if err != nil {
		return "", err
	}

	r.emit(ctx, Event{Op: OpCreated, ID: id, ParentID: parentID})
	return id, nil
}

func (r *SQLiteRepository) create(ctx context.Context, parentID string, n bookmarks.Node) (string, error) {
	if err := r.requireFolder(ctx, parentID); err != nil {
		return "", err
	}

	pos, err := r.nextPosition(ctx, parentID)
	if err != nil {
		return "", err
	}

	added := n.DateAdded
	if added == 0 {
		added = r.now().UnixMilli()
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO nodes (id, parent_id, position, kind, title, url, date_added, date_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, parentID, pos, int(n.Kind), n.Title, n.URL, added, n.DateModified)
	if err != nil {
		return "", fmt.Errorf("failed to insert node: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id, title, url string) error {
	r.mu.Lock()
	err := r.update(ctx, id, title, url)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.emit(ctx, Event{Op: OpChanged, ID: id})
	return nil
}

func (r *SQLiteRepository) update(ctx context.Context, id, title, url string) error {
	kind, isRoot, _, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	if isRoot {
		return ErrRootFolder
	}
	if kind == bookmarks.KindFolder {
		url = ""
	} else if url == "" {
		return fmt.Errorf("%w: link needs a url", common.ErrValidation)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE nodes SET title = ?, url = ?, date_modified = ? WHERE id = ?
	`, title, url, r.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Move(ctx context.Context, id, newParentID string) error {
	r.mu.Lock()
	err := r.move(ctx, id, newParentID)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.emit(ctx, Event{Op: OpMoved, ID: id, ParentID: newParentID})
	return nil
}

func (r *SQLiteRepository) move(ctx context.Context, id, newParentID string) error {
	_, isRoot, _, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	if isRoot {
		return ErrRootFolder
	}
	if err := r.requireFolder(ctx, newParentID); err != nil {
		return err
	}

	var inside int
	err = r.db.QueryRowContext(ctx, `
		WITH RECURSIVE sub(id) AS (
			SELECT id FROM nodes WHERE id = ?
			UNION ALL
			SELECT n.id FROM nodes n JOIN sub ON n.parent_id = sub.id
		)
		SELECT COUNT(*) FROM sub WHERE id = ?
	`, id, newParentID).Scan(&inside)
	if err != nil {
		return fmt.Errorf("failed to check move target: %w", err)
	}
	if inside > 0 {
		return ErrCycle
	}

	pos, err := r.nextPosition(ctx, newParentID)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE nodes SET parent_id = ?, position = ? WHERE id = ?`, newParentID, pos, id); err != nil {
		return fmt.Errorf("failed to move node %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	parent, err := r.remove(ctx, id)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.emit(ctx, Event{Op: OpRemoved, ID: id, ParentID: parent})
	return nil
}

func (r *SQLiteRepository) remove(ctx context.Context, id string) (string, error) {
	_, isRoot, parent, err := r.lookup(ctx, id)
	if err != nil {
		return "", err
	}
	if isRoot {
		return "", ErrRootFolder
	}
	if err := r.deleteSubtree(ctx, id); err != nil {
		return "", err
	}
	return parent, nil
}

func (r *SQLiteRepository) deleteSubtree(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		WITH RECURSIVE sub(id) AS (
			SELECT id FROM nodes WHERE id = ?
			UNION ALL
			SELECT n.id FROM nodes n JOIN sub ON n.parent_id = sub.id
		)
		DELETE FROM nodes WHERE id IN (SELECT id FROM sub)
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	removed, err := r.clear(ctx)
	r.mu.Unlock()

	for _, ev := range removed {
		r.emit(ctx, ev)
	}
	return err
}

func (r *SQLiteRepository) clear(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT n.id, n.parent_id FROM nodes n
		JOIN nodes p ON n.parent_id = p.id
		WHERE p.is_root = 1 AND p.parent_id IS NOT NULL AND n.is_root = 0
		ORDER BY n.parent_id, n.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to select nodes to clear: %w", err)
	}

	var top []Event
	for rows.Next() {
		ev := Event{Op: OpRemoved}
		if err := rows.Scan(&ev.ID, &ev.ParentID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		top = append(top, ev)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}
	rows.Close()

	var removed []Event
	for _, ev := range top {
		if err := r.deleteSubtree(ctx, ev.ID); err != nil {
			return removed, err
		}
		removed = append(removed, ev)
	}

	// anything left outside the root folders is unreachable; drop it too
	if _, err := r.db.ExecContext(ctx, `DELETE FROM nodes WHERE is_root = 0 AND parent_id NOT IN (SELECT id FROM nodes)`); err != nil {
		return removed, fmt.Errorf("failed to delete orphans: %w", err)
	}
	return removed, nil
}

func (r *SQLiteRepository) lookup(ctx context.Context, id string) (bookmarks.Kind, bool, string, error) {
	var kind bookmarks.Kind
	var isRoot bool
	var parent sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT kind, is_root, parent_id FROM nodes WHERE id = ?`, id).Scan(&kind, &isRoot, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, "", fmt.Errorf("node %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return 0, false, "", fmt.Errorf("failed to look up node %s: %w", id, err)
	}
	return kind, isRoot, parent.String, nil
}

func (r *SQLiteRepository) requireFolder(ctx context.Context, id string) error {
	kind, _, _, err := r.lookup(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %s", ErrParentNotFound, id)
	}
	if err != nil {
		return err
	}
	if kind != bookmarks.KindFolder {
		return fmt.Errorf("%w: %s is a link", ErrParentNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) nextPosition(ctx context.Context, parentID string) (int, error) {
	var pos int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM nodes WHERE parent_id = ?`, parentID).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("failed to compute position: %w", err)
	}
	return pos, nil
}
