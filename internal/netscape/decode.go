package netscape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/common"
	"github.com/dmitrijs2005/davmarks/internal/htmlx"
)

const (
	tagFolder  = "<DT><H3"
	tagLink    = "<DT><A"
	tagDT      = "<DT>"
	endFolder  = "</H3>"
	endLink    = "</A>"
	openList   = "<DL><P>"
	closeList  = "</DL><P>"
	firstList  = "<DL>"
	attrSuffix = `="`
)

// ErrNoMainFolder is returned when a main-folder-only document cannot be
// spliced back because the local tree has no folder to receive it.
var ErrNoMainFolder = fmt.Errorf("%w: local tree has no main folder", common.ErrImport)

// DecodeOptions mirrors EncodeOptions for the reading side.
type DecodeOptions struct {
	// OnlyMainFolder treats the document as the content of the toolbar
	// folder. The parsed nodes replace that folder's children in LocalTree
	// and the patched copy of LocalTree is returned. LocalTree itself is not
	// modified.
	OnlyMainFolder bool
	// LocalTree is the full store tree; required when OnlyMainFolder is set.
	LocalTree bookmarks.Tree
}

// Decode parses a bookmark HTML document. Everything before the first <DL>
// is ignored and line breaks carry no meaning. A document without any <DL>
// yields an error wrapping common.ErrParse.
func Decode(html string, opts DecodeOptions) (bookmarks.Tree, error) {
	start := strings.Index(asciiUpper(html), firstList)
	if start < 0 {
		return nil, fmt.Errorf("%w: no <DL> list found", common.ErrParse)
	}

	body := stripLineBreaks(html[start:])
	p := &parser{src: body, up: asciiUpper(body)}
	nodes := p.parseList(0, len(body))

	if !opts.OnlyMainFolder {
		return bookmarks.Tree(nodes), nil
	}
	return splice(opts.LocalTree, nodes)
}

// splice returns a copy of local whose main folder holds nodes.
func splice(local bookmarks.Tree, nodes []bookmarks.Node) (bookmarks.Tree, error) {
	r, c, ok := bookmarks.FindMainFolder(local)
	if !ok {
		if len(local) == 0 || len(local[0].Children) == 0 {
			return nil, ErrNoMainFolder
		}
		r, c = 0, 0
	}

	out := make(bookmarks.Tree, len(local))
	copy(out, local)

	root := out[r]
	root.Children = append([]bookmarks.Node(nil), root.Children...)
	folder := root.Children[c]
	folder.Children = nodes
	root.Children[c] = folder
	out[r] = root

	return out, nil
}

// parser scans src using up, an ASCII upper-cased copy of the same length,
// for case-insensitive tag matching.
type parser struct {
	src string
	up  string
}

// parseList collects the entries found in src[lo:hi].
func (p *parser) parseList(lo, hi int) []bookmarks.Node {
	var nodes []bookmarks.Node

	for i := lo; i < hi; {
		switch {
		case p.hasPrefix(i, hi, tagFolder):
			n, next := p.parseFolder(i, hi)
			nodes = append(nodes, n)
			i = next
		case p.hasPrefix(i, hi, tagLink):
			n, next := p.parseLink(i, hi)
			nodes = append(nodes, n)
			i = next
		default:
			i++
		}
	}

	return nodes
}

func (p *parser) parseFolder(i, hi int) (bookmarks.Node, int) {
	attrs, title, next := p.element(i+len(tagFolder), hi, endFolder)

	n := bookmarks.Node{
		Kind:         bookmarks.KindFolder,
		Title:        htmlx.Decode(title),
		DateAdded:    parseDate(attr(attrs, "ADD_DATE")),
		DateModified: parseDate(attr(attrs, "LAST_MODIFIED")),
	}

	// The child list must follow the heading before any other entry starts,
	// otherwise the folder has no list of its own.
	dl := p.index(next, hi, openList)
	if dl < 0 {
		return n, next
	}
	if dt := p.index(next, hi, tagDT); dt >= 0 && dt < dl {
		return n, next
	}

	end := p.matchClose(dl, hi)
	if end < 0 {
		n.Children = p.parseList(dl+len(openList), hi)
		return n, hi
	}
	n.Children = p.parseList(dl+len(openList), end)
	return n, end + len(closeList)
}

func (p *parser) parseLink(i, hi int) (bookmarks.Node, int) {
	attrs, title, next := p.element(i+len(tagLink), hi, endLink)

	return bookmarks.Node{
		Kind:      bookmarks.KindLink,
		Title:     htmlx.Decode(title),
		URL:       htmlx.Decode(attr(attrs, "HREF")),
		DateAdded: parseDate(attr(attrs, "ADD_DATE")),
	}, next
}

// element splits an element starting right after its tag name into the
// attribute text and the inner text, and returns the position after the
// closing tag. A missing closing tag consumes the rest of the range.
func (p *parser) element(from, hi int, closing string) (attrs, inner string, next int) {
	end := p.index(from, hi, closing)
	next = end + len(closing)
	if end < 0 {
		end, next = hi, hi
	}

	gt := p.index(from, end, ">")
	if gt < 0 {
		return p.src[from:end], "", next
	}
	return p.src[from:gt], p.src[gt+1 : end], next
}

// matchClose finds the </DL><p> that closes the list opened at open, by
// counting nested lists. It returns -1 when the list is never closed.
func (p *parser) matchClose(open, hi int) int {
	depth := 1
	for i := open + 1; i < hi; i++ {
		if p.hasPrefix(i, hi, openList) {
			depth++
		} else if p.hasPrefix(i, hi, closeList) {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (p *parser) hasPrefix(i, hi int, tag string) bool {
	return i+len(tag) <= hi && p.up[i:i+len(tag)] == tag
}

func (p *parser) index(from, hi int, tag string) int {
	if from >= hi {
		return -1
	}
	k := strings.Index(p.up[from:hi], tag)
	if k < 0 {
		return -1
	}
	return from + k
}

// attr returns the double-quoted value of the named attribute, or "".
// Name matching ignores case and requires whitespace before the name.
func attr(attrs, name string) string {
	up := asciiUpper(attrs)
	key := name + attrSuffix
	for off := 0; ; {
		k := strings.Index(up[off:], key)
		if k < 0 {
			return ""
		}
		k += off
		if k > 0 && isSpace(up[k-1]) {
			v := attrs[k+len(key):]
			if end := strings.IndexByte(v, '"'); end >= 0 {
				return v[:end]
			}
			return v
		}
		off = k + len(key)
	}
}

// parseDate reads an epoch seconds attribute into milliseconds.
func parseDate(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec <= 0 {
		return 0
	}
	return sec * 1000
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func stripLineBreaks(s string) string {
	return strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(s)
}

// asciiUpper upper-cases ASCII letters only, so indexes into the result are
// valid for the input.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
