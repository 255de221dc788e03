// Package archive runs the incremental archive of one mode.
//
// A run fetches the mode's items, parses the mode's previous document,
// keeps the items whose identifiers it does not contain, renders them
// (saving media and a standalone page per post), and writes the document
// again with the new fragments ahead of the old ones. The document is the
// only record of what was archived, so a second run over the same items
// changes nothing.
package archive
