package auth

import (
	"os"
	"time"
)

// EnvironmentStore exposes the account described by the REDDITARCHIVE_*
// variables. It cannot be written to.
type EnvironmentStore struct{}

// NewEnvironmentStore returns the read-only environment store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (EnvironmentStore) Store(*Account) error { return ErrStoreUnavailable }

func (EnvironmentStore) Delete(string) error { return ErrStoreUnavailable }

// Retrieve succeeds only when all four credentials are set and, for a
// non-empty username, REDDITARCHIVE_USERNAME matches it.
func (EnvironmentStore) Retrieve(username string) (*Account, error) {
	a := &Account{
		Username:     os.Getenv("REDDITARCHIVE_USERNAME"),
		Password:     os.Getenv("REDDITARCHIVE_PASSWORD"),
		ClientID:     os.Getenv("REDDITARCHIVE_CLIENT_ID"),
		ClientSecret: os.Getenv("REDDITARCHIVE_CLIENT_SECRET"),
		UserAgent:    os.Getenv("REDDITARCHIVE_USER_AGENT"),
		LastModified: time.Now(),
	}
	if a.Validate() != nil || (username != "" && username != a.Username) {
		return nil, ErrCredentialsNotFound
	}
	return a, nil
}

func (e EnvironmentStore) List() ([]*Account, error) {
	if a, err := e.Retrieve(""); err == nil {
		return []*Account{a}, nil
	}
	return []*Account{}, nil
}

func (e EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
