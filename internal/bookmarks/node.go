// Package bookmarks defines the bookmark tree shared by the codec, the local
// store and the sync engine, together with the per-platform conventions for
// naming the root folders.
package bookmarks

import "strings"

// Kind tells folders and links apart.
type Kind int

const (
	KindFolder Kind = iota
	KindLink
)

func (k Kind) String() string {
	if k == KindLink {
		return "link"
	}
	return "folder"
}

// Node is a folder or a link. Dates are milliseconds since the Unix epoch;
// zero means the date is unknown.
//
// ID is assigned by the local store and is empty for trees produced by the
// HTML codec. DateModified and Children are only meaningful for folders,
// URL only for links.
type Node struct {
	Kind         Kind
	ID           string
	Title        string
	URL          string
	DateAdded    int64
	DateModified int64
	Children     []Node
}

// Tree is an ordered forest of root nodes.
type Tree []Node

// Folder builds a folder node.
func Folder(title string, children ...Node) Node {
	return Node{Kind: KindFolder, Title: title, Children: children}
}

// Link builds a link node.
func Link(title, url string) Node {
	return Node{Kind: KindLink, Title: title, URL: url}
}

func (n Node) IsFolder() bool { return n.Kind == KindFolder }

// Syncable returns the part of a full store tree that is transferred to the
// remote: the children of the first root that has any. For a host tree these
// are the platform root folders (toolbar, other, mobile ...).
func Syncable(t Tree) []Node {
	for _, root := range t {
		if len(root.Children) > 0 {
			return root.Children
		}
	}
	return nil
}

// MainFolderAliases are lower-case names the toolbar folder goes by.
var MainFolderAliases = []string{"bookmarks bar", "bookmarks toolbar"}

// IsMainFolderTitle reports whether title names the toolbar folder. The
// comparison ignores case and accepts titles that merely contain an alias.
func IsMainFolderTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, alias := range MainFolderAliases {
		if t == alias || strings.Contains(t, alias) {
			return true
		}
	}
	return false
}

// FindMainFolder looks for the toolbar folder among the children of each
// root and returns its index path (root, child).
func FindMainFolder(t Tree) (root, child int, ok bool) {
	for i, r := range t {
		for j, c := range r.Children {
			if c.IsFolder() && IsMainFolderTitle(c.Title) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// Count returns the number of folders and links in nodes, recursively.
func Count(nodes []Node) (folders, links int) {
	stack := append([]Node(nil), nodes...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsFolder() {
			folders++
			stack = append(stack, n.Children...)
		} else {
			links++
		}
	}
	return folders, links
}

// Walk visits nodes depth-first in document order. fn receives the nesting
// depth, starting at zero for the given nodes.
func Walk(nodes []Node, fn func(depth int, n Node)) {
	type frame struct {
		depth int
		node  Node
	}
	stack := make([]frame, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, frame{0, nodes[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.depth, f.node)
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.depth + 1, f.node.Children[i]})
		}
	}
}
