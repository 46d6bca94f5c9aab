// Package netscape converts bookmark trees to and from the
// NETSCAPE-Bookmark-file-1 HTML dialect that browsers use for bookmark
// import and export.
//
// Encode produces a fixed layout: a header, an outer <DL><p> list and one
// <DT> entry per node, nested folders wrapped in their own <DL><p> ...
// </DL><p> block. Decode is a tolerant single pass scanner. It ignores
// anything it does not recognise and never fails on unbalanced markup; an
// unterminated folder simply owns the rest of the document.
//
// Dates are stored in the tree as milliseconds and written as seconds, so a
// round trip truncates them to whole seconds.
package netscape
