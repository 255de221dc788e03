// Package reddit is a small client for the parts of the Reddit OAuth API
// the archiver needs: a user's saved, upvoted, submitted and commented
// listings, post lookup by id, and plain media downloads.
//
// It authenticates as a "script" application with the password grant,
// waits on a rate limiter before every API call and retries transient
// failures with backoff chosen per error type.
//
//	client := reddit.NewClient(reddit.OptionsFromConfig(cfg), ratelimit.PerMinute(60), log)
//	posts, comments, err := client.Saved(ctx)
package reddit
