package netscape

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/htmlx"
)

const header = "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n" +
	"<!-- This is an automatically generated file.\n" +
	"     It will be read and overwritten.\n" +
	"     DO NOT EDIT! -->\n" +
	`<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">` + "\n" +
	"<TITLE>Bookmarks</TITLE>\n" +
	"<H1>Bookmarks</H1>\n"

const indentUnit = "  "

// EncodeOptions controls what part of a tree is written.
type EncodeOptions struct {
	// OnlyMainFolder writes only the children of the toolbar folder. The
	// tree must then be the full store tree, not its syncable part. When no
	// folder matches MainFolderAliases the first child of the first root is
	// used instead. Default false: every node given is written.
	OnlyMainFolder bool
}

// Encode renders t as a bookmark HTML document.
func Encode(t bookmarks.Tree, opts EncodeOptions) string {
	nodes := []bookmarks.Node(t)
	if opts.OnlyMainFolder {
		nodes = mainFolderChildren(t)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("<DL><p>\n")
	for _, n := range nodes {
		writeNode(&b, n, 1)
	}
	b.WriteString("</DL><p>\n")
	return b.String()
}

func mainFolderChildren(t bookmarks.Tree) []bookmarks.Node {
	if r, c, ok := bookmarks.FindMainFolder(t); ok {
		return t[r].Children[c].Children
	}
	if len(t) > 0 && len(t[0].Children) > 0 {
		return t[0].Children[0].Children
	}
	return nil
}

func writeNode(b *strings.Builder, n bookmarks.Node, depth int) {
	indent := strings.Repeat(indentUnit, depth)

	if !n.IsFolder() {
		b.WriteString(indent)
		b.WriteString(`<DT><A HREF="`)
		b.WriteString(htmlx.EscapeAttr(n.URL))
		b.WriteString(`" ADD_DATE="`)
		b.WriteString(formatDate(n.DateAdded))
		b.WriteString(`">`)
		b.WriteString(htmlx.EscapeText(n.Title))
		b.WriteString("</A>\n")
		return
	}

	b.WriteString(indent)
	b.WriteString(`<DT><H3 ADD_DATE="`)
	b.WriteString(formatDate(n.DateAdded))
	b.WriteString(`" LAST_MODIFIED="`)
	b.WriteString(formatDate(n.DateModified))
	b.WriteString(`">`)
	b.WriteString(htmlx.EscapeText(n.Title))
	b.WriteString("</H3>\n")

	b.WriteString(indent)
	b.WriteString("<DL><p>\n")
	for _, c := range n.Children {
		writeNode(b, c, depth+1)
	}
	b.WriteString(indent)
	b.WriteString("</DL><p>\n")
}

// formatDate converts milliseconds to whole seconds; zero is written empty.
func formatDate(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return strconv.FormatInt(ms/1000, 10)
}
