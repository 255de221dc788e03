// Package auth stores the credentials of the Reddit script application
// used by the archiver.
//
// Credentials live in the system keychain when one is available, otherwise
// in an AES-GCM encrypted file under the user's config directory. The
// REDDITARCHIVE_* environment variables are read as a last resort.
package auth
