package reddit

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// TokenEndpoint issues OAuth tokens on the auth host
	TokenEndpoint = "/api/v1/access_token"

	// InfoEndpoint resolves fullnames to things on the API host
	InfoEndpoint = "/api/info"

	// ListingLimit is the largest page Reddit serves
	ListingLimit = 100

	// InfoBatchSize is the most fullnames /api/info accepts per call
	InfoBatchSize = 100

	// Kind prefixes of Reddit fullnames
	KindComment = "t1"
	KindLink    = "t3"
)

// Listing names accepted by UserListingPath
const (
	ListingSaved     = "saved"
	ListingUpvoted   = "upvoted"
	ListingSubmitted = "submitted"
	ListingComments  = "comments"
)

// UserListingPath returns the API path of one of a user's listings
func UserListingPath(username, listing string) string {
	return fmt.Sprintf("/user/%s/%s", url.PathEscape(username), listing)
}

// Fullname prefixes an id with its kind, e.g. t3_abc123
func Fullname(kind, id string) string {
	return kind + "_" + id
}

// SplitFullname returns the id part of a fullname. Bare ids pass through.
func SplitFullname(fullname string) string {
	if i := strings.IndexByte(fullname, '_'); i == 2 && fullname[0] == 't' {
		return fullname[i+1:]
	}
	return fullname
}

// PermalinkURL turns a site-relative permalink into an absolute URL
func PermalinkURL(permalink string) string {
	if permalink == "" || strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return "https://www.reddit.com" + permalink
}

// SanitizeUsername strips the u/ prefix and surrounding noise users
// tend to paste along with their name
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "/")
	username = strings.TrimPrefix(username, "u/")
	username = strings.TrimPrefix(username, "user/")
	return strings.TrimRight(username, "/ ")
}
