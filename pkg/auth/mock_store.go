package auth

import "sync"

// MockStore is an in-memory CredentialStore for tests. A non-nil Fail
// entry makes the named operation ("store", "retrieve", "list" or
// "delete") return that error.
type MockStore struct {
	mu       sync.RWMutex
	accounts accountSet
	Fail     map[string]error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{accounts: accountSet{}, Fail: map[string]error{}}
}

// NewMockManager creates a Manager over a single mock store
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}

func (m *MockStore) Store(account *Account) error {
	if err := m.Fail["store"]; err != nil {
		return err
	}
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	m.mu.Lock()
	m.accounts[account.Username] = *account
	m.mu.Unlock()
	return nil
}

func (m *MockStore) Retrieve(username string) (*Account, error) {
	if err := m.Fail["retrieve"]; err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[username]; ok {
		return &a, nil
	}
	return nil, ErrCredentialsNotFound
}

func (m *MockStore) List() ([]*Account, error) {
	if err := m.Fail["list"]; err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts.list(), nil
}

func (m *MockStore) Delete(username string) error {
	if err := m.Fail["delete"]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, username)
	return nil
}

func (m *MockStore) Exists(username string) bool {
	_, err := m.Retrieve(username)
	return err == nil
}

// Count returns the number of stored accounts
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}
