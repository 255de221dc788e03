// Package render produces the HTML of the archive: one fragment per item,
// a preview block for saved media, and a standalone page per post.
//
// Fragments carry the item id in their id attribute and end with the
// markers the fragment package looks for, so documents written from them
// can be parsed again on the next run. Document shells, the style sheet
// and the script are built in and can be overridden from a directory.
package render
