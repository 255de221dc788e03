package auth

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// CredentialStore is one place accounts can be kept
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(username string) (*Account, error)
	List() ([]*Account, error)
	Delete(username string) error
	Exists(username string) bool
}

// Manager tries its stores in order: the first that accepts a write wins,
// reads look through all of them.
type Manager struct {
	stores []CredentialStore
}

// NewManager uses the system keychain when it works, then an encrypted
// file in ConfigDir, then the environment.
func NewManager() (*Manager, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	file, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}

	m := &Manager{}
	if kr, err := NewKeyringStore(); err == nil {
		m.stores = append(m.stores, kr)
	}
	m.stores = append(m.stores, file, NewEnvironmentStore())
	return m, nil
}

// NewManagerWithStores creates a manager over the given stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store validates account, stamps LastModified and writes it to the first
// store that accepts it.
func (m *Manager) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	account.LastModified = time.Now()

	var errs []error
	for _, s := range m.stores {
		err := s.Store(account)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("failed to store credentials: %w", errors.Join(errs...))
}

func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, s := range m.stores {
		if a, err := s.Retrieve(username); err == nil && a != nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// RetrieveDefault picks the environment account when one is configured,
// otherwise the most recently stored account.
func (m *Manager) RetrieveDefault() (*Account, error) {
	if m.hasEnvironment() {
		if a, err := NewEnvironmentStore().Retrieve(""); err == nil {
			return a, nil
		}
	}
	accounts, _ := m.List()
	if len(accounts) == 0 {
		return nil, ErrCredentialsNotFound
	}
	return accounts[0], nil
}

func (m *Manager) hasEnvironment() bool {
	return slices.ContainsFunc(m.stores, func(s CredentialStore) bool {
		_, ok := s.(*EnvironmentStore)
		return ok
	})
}

// List merges the accounts of every store, newest first. A username held
// by several stores appears once, in its latest version. Stores that fail
// to list are skipped.
func (m *Manager) List() ([]*Account, error) {
	latest := map[string]*Account{}
	for _, s := range m.stores {
		accounts, err := s.List()
		if err != nil {
			continue
		}
		for _, a := range accounts {
			if cur, ok := latest[a.Username]; !ok || a.LastModified.After(cur.LastModified) {
				latest[a.Username] = a
			}
		}
	}

	out := make([]*Account, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *Account) int {
		if c := b.LastModified.Compare(a.LastModified); c != 0 {
			return c
		}
		return cmp.Compare(a.Username, b.Username)
	})
	return out, nil
}

// Delete removes username from every store that has it
func (m *Manager) Delete(username string) error {
	deleted := false
	var failures []error
	for _, s := range m.stores {
		err := s.Delete(username)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			failures = append(failures, err)
		}
	}

	switch {
	case deleted:
		return nil
	case len(failures) > 0:
		return fmt.Errorf("failed to delete credentials: %w", errors.Join(failures...))
	default:
		return fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
	}
}

// ConfigDir returns the per-user redditarchive directory, creating it if
// needed. XDG_CONFIG_HOME is honoured on every platform.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		var err error
		if base, err = os.UserConfigDir(); err != nil {
			return "", err
		}
	}
	dir := filepath.Join(base, "redditarchive")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
