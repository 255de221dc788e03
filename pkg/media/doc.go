// Package media saves the images and videos of archived posts next to the
// archive documents.
//
// Media is best-effort: a candidate that cannot be fetched is logged and
// skipped, and the post is archived without it.
package media
