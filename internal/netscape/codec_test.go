package netscape

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/common"
)

var equateEmpty = cmpopts.EquateEmpty()

func link(title, url string, added int64) bookmarks.Node {
	n := bookmarks.Link(title, url)
	n.DateAdded = added
	return n
}

func folder(title string, added, modified int64, children ...bookmarks.Node) bookmarks.Node {
	n := bookmarks.Folder(title, children...)
	n.DateAdded = added
	n.DateModified = modified
	return n
}

func sampleTree() bookmarks.Tree {
	return bookmarks.Tree{
		folder("Bookmarks bar", 1700000000000, 1700000500000,
			link("Go", "https://go.dev/", 1700000001000),
			folder("Work", 1700000002000, 0,
				link("Tracker", "https://tracker.example/issues?state=open&sort=new", 1700000003000),
				folder("Empty", 0, 0),
			),
		),
		folder("Other bookmarks", 0, 0,
			link("A & B < C", "https://example.com/?q=<x>", 0),
			link("", "https://untitled.example/", 1700000004000),
		),
	}
}

func TestEncode_Header(t *testing.T) {
	out := Encode(nil, EncodeOptions{})

	want := "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n" +
		"<!-- This is an automatically generated file.\n" +
		"     It will be read and overwritten.\n" +
		"     DO NOT EDIT! -->\n" +
		"<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n" +
		"<TITLE>Bookmarks</TITLE>\n" +
		"<H1>Bookmarks</H1>\n" +
		"<DL><p>\n" +
		"</DL><p>\n"
	assert.Equal(t, want, out)
}

func TestEncode_Layout(t *testing.T) {
	tree := bookmarks.Tree{
		folder("Dev", 1700000000123, 0,
			link("Go", "https://go.dev/", 1700000001999),
		),
	}

	out := Encode(tree, EncodeOptions{})

	assert.Contains(t, out, "\n  <DT><H3 ADD_DATE=\"1700000000\" LAST_MODIFIED=\"\">Dev</H3>\n  <DL><p>\n")
	assert.Contains(t, out, "\n    <DT><A HREF=\"https://go.dev/\" ADD_DATE=\"1700000001\">Go</A>\n  </DL><p>\n")
	assert.True(t, strings.HasSuffix(out, "</DL><p>\n</DL><p>\n"))
}

func TestEncode_EscapesText(t *testing.T) {
	tree := bookmarks.Tree{link("A & B < C", `https://x.test/?a=1&b="2"`, 0)}

	out := Encode(tree, EncodeOptions{})

	assert.Contains(t, out, `HREF="https://x.test/?a=1&amp;b=&quot;2&quot;"`)
	assert.Contains(t, out, ">A &amp; B &lt; C</A>")
	assert.Contains(t, out, `ADD_DATE=""`)
}

func TestEncode_OnlyMainFolder(t *testing.T) {
	host := bookmarks.Tree{
		{Kind: bookmarks.KindFolder, ID: "0", Children: []bookmarks.Node{
			folder("Other bookmarks", 0, 0, link("other", "https://other.example/", 0)),
			folder("My Bookmarks Toolbar", 0, 0, link("bar", "https://bar.example/", 0)),
		}},
	}

	out := Encode(host, EncodeOptions{OnlyMainFolder: true})
	assert.Contains(t, out, "https://bar.example/")
	assert.NotContains(t, out, "https://other.example/")
	assert.NotContains(t, out, "Toolbar</H3>")

	t.Run("falls back to first child of first root", func(t *testing.T) {
		host := bookmarks.Tree{
			{Kind: bookmarks.KindFolder, Children: []bookmarks.Node{
				folder("Favoriten", 0, 0, link("fav", "https://fav.example/", 0)),
				folder("Andere", 0, 0, link("andere", "https://andere.example/", 0)),
			}},
		}
		out := Encode(host, EncodeOptions{OnlyMainFolder: true})
		assert.Contains(t, out, "https://fav.example/")
		assert.NotContains(t, out, "https://andere.example/")
	})

	t.Run("empty tree", func(t *testing.T) {
		out := Encode(nil, EncodeOptions{OnlyMainFolder: true})
		assert.Equal(t, Encode(nil, EncodeOptions{}), out)
	})
}

func TestRoundTrip(t *testing.T) {
	tree := sampleTree()

	got, err := Decode(Encode(tree, EncodeOptions{}), DecodeOptions{})
	require.NoError(t, err)

	if diff := cmp.Diff(tree, got, equateEmpty); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_LineBreaksInText(t *testing.T) {
	tree := bookmarks.Tree{
		bookmarks.Folder("a\nb",
			bookmarks.Link("first\r\nsecond", "https://x.test/?q=1\n2"),
			bookmarks.Folder("\nedge\r"),
		),
	}

	got, err := Decode(Encode(tree, EncodeOptions{}), DecodeOptions{})
	require.NoError(t, err)

	if diff := cmp.Diff(tree, got, equateEmpty); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_TruncatesToSeconds(t *testing.T) {
	tree := bookmarks.Tree{link("x", "https://x.test/", 1700000001999)}

	got, err := Decode(Encode(tree, EncodeOptions{}), DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1700000001000), got[0].DateAdded)
}

func TestRoundTrip_ThreeLevels(t *testing.T) {
	tree := bookmarks.Tree{
		bookmarks.Folder("outer",
			bookmarks.Folder("middle",
				bookmarks.Link("leaf", "https://leaf.example/"),
			),
			bookmarks.Link("sibling", "https://sibling.example/"),
		),
	}

	got, err := Decode(Encode(tree, EncodeOptions{}), DecodeOptions{})
	require.NoError(t, err)

	require.Len(t, got, 1)
	require.Equal(t, "outer", got[0].Title)
	require.Len(t, got[0].Children, 2)
	require.Equal(t, "middle", got[0].Children[0].Title)
	require.Equal(t, "sibling", got[0].Children[1].Title)
	require.Len(t, got[0].Children[0].Children, 1)
	require.Equal(t, "https://leaf.example/", got[0].Children[0].Children[0].URL)
}

func TestRoundTrip_EntitySafety(t *testing.T) {
	for _, title := range []string{"A & B < C", "x > y", "&amp; literally", `"quoted"`} {
		tree := bookmarks.Tree{bookmarks.Folder(title, bookmarks.Link(title, "https://e.test/?"+title))}

		got, err := Decode(Encode(tree, EncodeOptions{}), DecodeOptions{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, title, got[0].Title)
		assert.Equal(t, title, got[0].Children[0].Title)
		assert.Equal(t, "https://e.test/?"+title, got[0].Children[0].URL)
	}
}

func TestDecode_BrowserExport(t *testing.T) {
	doc := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file. -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<dl><p>
    <dt><h3 add_date="1600000000" last_modified="1600000100" personal_toolbar_folder="true">Bookmarks bar</h3>
    <dl><p>
        <dt><a href="https://go.dev/" add_date="1600000001" icon="data:image/png;base64,AAA">The Go
 Programming Language</a>
        <DT><H3 ADD_DATE="1600000002">News &#x26; Blogs</H3>
        <DL><p>
            <DT><A HREF="https://blog.example/?a=1&amp;b=2">Blog &#8212; home</A>
        </DL><p>
    </dl><p>
</dl><p>
`
	got, err := Decode(doc, DecodeOptions{})
	require.NoError(t, err)

	want := bookmarks.Tree{
		folder("Bookmarks bar", 1600000000000, 1600000100000,
			link("The Go Programming Language", "https://go.dev/", 1600000001000),
			folder("News & Blogs", 1600000002000, 0,
				link("Blog — home", "https://blog.example/?a=1&b=2", 0),
			),
		),
	}
	if diff := cmp.Diff(want, got, equateEmpty); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_FolderWithoutList(t *testing.T) {
	doc := `<DL><p><DT><H3>lonely</H3><DT><A HREF="https://a.example/">a</A></DL><p>`

	got, err := Decode(doc, DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lonely", got[0].Title)
	assert.Empty(t, got[0].Children)
	assert.Equal(t, "https://a.example/", got[1].URL)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(t *testing.T, got bookmarks.Tree)
	}{
		{
			name: "missing outermost folder close",
			doc:  `<DL><p><DT><H3>outer</H3><DL><p><DT><A HREF="https://a.example/">a</A><DT><H3>inner</H3><DL><p><DT><A HREF="https://b.example/">b</A></DL><p>`,
			check: func(t *testing.T, got bookmarks.Tree) {
				require.Len(t, got, 1)
				require.Len(t, got[0].Children, 2)
				assert.Equal(t, "a", got[0].Children[0].Title)
				assert.Equal(t, "inner", got[0].Children[1].Title)
				require.Len(t, got[0].Children[1].Children, 1)
			},
		},
		{
			name: "unterminated link",
			doc:  `<DL><p><DT><A HREF="https://a.example/">a</A><DT><A HREF="https://b.example/">b`,
			check: func(t *testing.T, got bookmarks.Tree) {
				require.Len(t, got, 2)
				assert.Equal(t, "b", got[1].Title)
			},
		},
		{
			name: "unterminated heading",
			doc:  `<DL><p><DT><H3 ADD_DATE="1">never closed`,
			check: func(t *testing.T, got bookmarks.Tree) {
				require.Len(t, got, 1)
				assert.Equal(t, "never closed", got[0].Title)
			},
		},
		{
			name: "truncated tag",
			doc:  `<DL><p><DT><A HREF="https://a.example/`,
			check: func(t *testing.T, got bookmarks.Tree) {
				require.Len(t, got, 1)
				assert.Equal(t, "https://a.example/", got[0].URL)
				assert.Empty(t, got[0].Title)
			},
		},
		{
			name: "garbage between entries",
			doc:  `<DL><p>junk<p><DT><A HREF="https://a.example/">a</A><DD>note</DD></DL><p></DL><p>`,
			check: func(t *testing.T, got bookmarks.Tree) {
				require.Len(t, got, 1)
				assert.Equal(t, "a", got[0].Title)
			},
		},
		{
			name: "bad dates are absent",
			doc:  `<DL><p><DT><A HREF="x" ADD_DATE="soon">a</A><DT><A HREF="y" ADD_DATE="-5">b</A>`,
			check: func(t *testing.T, got bookmarks.Tree) {
				require.Len(t, got, 2)
				assert.Zero(t, got[0].DateAdded)
				assert.Zero(t, got[1].DateAdded)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.doc, DecodeOptions{})
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestDecode_NoList(t *testing.T) {
	_, err := Decode("<html><body>not bookmarks</body></html>", DecodeOptions{})
	require.ErrorIs(t, err, common.ErrParse)

	_, err = Decode("", DecodeOptions{})
	require.ErrorIs(t, err, common.ErrParse)
}

func TestDecode_OnlyMainFolder(t *testing.T) {
	local := bookmarks.Tree{
		{Kind: bookmarks.KindFolder, ID: "0", Children: []bookmarks.Node{
			{Kind: bookmarks.KindFolder, ID: "1", Title: "Bookmarks bar", Children: []bookmarks.Node{
				bookmarks.Link("old", "https://old.example/"),
			}},
			{Kind: bookmarks.KindFolder, ID: "2", Title: "Other bookmarks", Children: []bookmarks.Node{
				bookmarks.Link("keep", "https://keep.example/"),
			}},
		}},
	}

	doc := Encode(bookmarks.Tree{bookmarks.Link("new", "https://new.example/")}, EncodeOptions{})

	got, err := Decode(doc, DecodeOptions{OnlyMainFolder: true, LocalTree: local})
	require.NoError(t, err)

	require.Len(t, got, 1)
	require.Len(t, got[0].Children, 2)
	bar := got[0].Children[0]
	assert.Equal(t, "1", bar.ID)
	require.Len(t, bar.Children, 1)
	assert.Equal(t, "https://new.example/", bar.Children[0].URL)
	assert.Equal(t, "https://keep.example/", got[0].Children[1].Children[0].URL)

	// the caller's tree is left alone
	assert.Equal(t, "https://old.example/", local[0].Children[0].Children[0].URL)
}

func TestDecode_OnlyMainFolderRoundTrip(t *testing.T) {
	local := bookmarks.Tree{
		{Kind: bookmarks.KindFolder, ID: "root________", Children: []bookmarks.Node{
			{Kind: bookmarks.KindFolder, ID: "menu________", Title: "Bookmarks Menu", Children: []bookmarks.Node{
				bookmarks.Link("menu", "https://menu.example/"),
			}},
			{Kind: bookmarks.KindFolder, ID: "toolbar_____", Title: "Bookmarks Toolbar", Children: []bookmarks.Node{
				bookmarks.Link("bar", "https://bar.example/"),
			}},
		}},
	}

	doc := Encode(local, EncodeOptions{OnlyMainFolder: true})
	got, err := Decode(doc, DecodeOptions{OnlyMainFolder: true, LocalTree: local})
	require.NoError(t, err)

	if diff := cmp.Diff(local, got, equateEmpty); diff != "" {
		t.Fatalf("main folder round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_OnlyMainFolderWithoutSlot(t *testing.T) {
	doc := Encode(bookmarks.Tree{bookmarks.Link("x", "https://x.example/")}, EncodeOptions{})

	_, err := Decode(doc, DecodeOptions{OnlyMainFolder: true})
	require.ErrorIs(t, err, ErrNoMainFolder)
	require.ErrorIs(t, err, common.ErrImport)

	_, err = Decode(doc, DecodeOptions{OnlyMainFolder: true, LocalTree: bookmarks.Tree{bookmarks.Folder("root")}})
	require.ErrorIs(t, err, ErrNoMainFolder)
}

func TestDecode_DeeplyNested(t *testing.T) {
	const depth = 200
	n := bookmarks.Link("bottom", "https://bottom.example/")
	for i := 0; i < depth; i++ {
		n = bookmarks.Folder("level", n)
	}

	got, err := Decode(Encode(bookmarks.Tree{n}, EncodeOptions{}), DecodeOptions{})
	require.NoError(t, err)

	cur := got[0]
	for i := 0; i < depth; i++ {
		require.Len(t, cur.Children, 1)
		cur = cur.Children[0]
	}
	assert.Equal(t, "https://bottom.example/", cur.URL)
}
