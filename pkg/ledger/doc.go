// Package ledger tracks posts that could not be resolved while archiving
// posts containing the user's comments, usually because their subreddit
// went private. The private mode re-fetches them later and removes the
// ones that have become reachable.
package ledger
