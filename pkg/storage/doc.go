// Package storage manages the archive tree on disk.
//
// A location holds one document per mode, a media directory shared by all
// modes, and a posts directory with one standalone page per post:
//
//	<location>/saved.html
//	<location>/media/abc123_0.jpg
//	<location>/posts/abc123.html
//
// Every write goes to a temporary sibling file first and is renamed into
// place, so an interrupted run never leaves a truncated document behind.
// The Manager indexes existing media on creation so repeated runs do not
// download the same file twice.
package storage
