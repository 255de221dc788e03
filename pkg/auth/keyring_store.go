package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "redditarchive"
	keyringPrefix  = "reddit_"
	// keychains cannot be enumerated portably, so usernames are also
	// recorded under this entry
	keyringIndex = "accounts"
)

// KeyringStore keeps each account as a JSON secret in the system keychain
type KeyringStore struct {
	mu sync.Mutex
}

// NewKeyringStore fails with ErrStoreUnavailable when the keychain refuses
// a trial write.
func NewKeyringStore() (*KeyringStore, error) {
	const check = "availability_check"
	if err := keyring.Set(keyringService, check, "ok"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(keyringService, check)
	return &KeyringStore{}, nil
}

func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := setJSON(keyringPrefix+account.Username, account); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	names, err := k.names()
	if err != nil || slices.Contains(names, account.Username) {
		return err
	}
	return k.setNames(append(names, account.Username))
}

func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	var a Account
	if err := getJSON(keyringPrefix+username, &a); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	return &a, nil
}

// List returns the indexed accounts in username order. Entries that can no
// longer be read are skipped.
func (k *KeyringStore) List() ([]*Account, error) {
	k.mu.Lock()
	names, err := k.names()
	k.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*Account, 0, len(names))
	for _, n := range names {
		if a, err := k.Retrieve(n); err == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(keyringService, keyringPrefix+username); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	names, err := k.names()
	if err != nil {
		return err
	}
	return k.setNames(slices.DeleteFunc(names, func(n string) bool { return n == username }))
}

func (k *KeyringStore) Exists(username string) bool {
	if username == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+username)
	return err == nil
}

func (k *KeyringStore) names() ([]string, error) {
	var names []string
	if err := getJSON(keyringIndex, &names); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}
	return names, nil
}

func (k *KeyringStore) setNames(names []string) error {
	if len(names) == 0 {
		if err := keyring.Delete(keyringService, keyringIndex); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to clear keyring index: %w", err)
		}
		return nil
	}
	slices.Sort(names)
	if err := setJSON(keyringIndex, names); err != nil {
		return fmt.Errorf("failed to write keyring index: %w", err)
	}
	return nil
}

func getJSON(key string, v interface{}) error {
	raw, err := keyring.Get(keyringService, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

func setJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, key, string(raw))
}
