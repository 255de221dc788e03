package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"redditarchive/pkg/config"
)

func testAccount(username string) *Account {
	return &Account{
		Username:     username,
		Password:     "hunter2-password",
		ClientID:     "client-id-123",
		ClientSecret: "client-secret-4567890",
		UserAgent:    "TestAgent/1.0",
	}
}

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()
	account := testAccount("testuser")

	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}
	if account.LastModified.IsZero() {
		t.Error("Store should stamp LastModified")
	}

	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.ClientSecret != account.ClientSecret || retrieved.Password != account.Password {
		t.Errorf("Retrieved account differs: %+v", retrieved)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected one account, got %d", len(accounts))
	}

	if err := manager.Delete("testuser"); err != nil {
		t.Fatalf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("testuser"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
	if err := manager.Delete("testuser"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Deleting twice should report not found, got %v", err)
	}
}

func TestManagerRejectsIncompleteAccounts(t *testing.T) {
	manager, mockStore := NewMockManager()

	for _, mutate := range []func(*Account){
		func(a *Account) { a.Username = "" },
		func(a *Account) { a.Password = "" },
		func(a *Account) { a.ClientID = "" },
		func(a *Account) { a.ClientSecret = "" },
	} {
		account := testAccount("someone")
		mutate(account)
		if err := manager.Store(account); err == nil {
			t.Errorf("Expected validation error for %+v", account)
		}
	}
	if mockStore.Count() != 0 {
		t.Error("Nothing should have been stored")
	}
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.Fail["store"] = errors.New("keychain locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	if err := manager.Store(testAccount("fallback")); err != nil {
		t.Fatalf("Store should fall back: %v", err)
	}
	if !working.Exists("fallback") {
		t.Error("Account should be in the second store")
	}
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()

	old := testAccount("dup")
	old.LastModified = time.Now().Add(-time.Hour)
	old.Password = "old-password"
	older.Store(old)

	fresh := testAccount("dup")
	fresh.LastModified = time.Now()
	newer.Store(fresh)

	accounts, err := NewManagerWithStores(older, newer).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 || accounts[0].Password != fresh.Password {
		t.Errorf("Expected the newest copy only, got %+v", accounts)
	}
}

func TestSanitizeAccount(t *testing.T) {
	account := testAccount("masked")
	sanitized := SanitizeAccount(account)

	if sanitized.ClientSecret != "clie...7890" {
		t.Errorf("Client secret should be masked, got %s", sanitized.ClientSecret)
	}
	if sanitized.Password != "hunt...word" {
		t.Errorf("Password should be masked, got %s", sanitized.Password)
	}
	if sanitized.Username != account.Username || sanitized.ClientID != account.ClientID {
		t.Error("Non-secret fields should be kept")
	}
	if account.Password != "hunter2-password" {
		t.Error("The original account must not change")
	}
}

func TestApplyTo(t *testing.T) {
	cfg := config.DefaultConfig().Reddit
	cfg.Username = "from-flags"

	if err := testAccount("stored").ApplyTo(&cfg); err != nil {
		t.Fatalf("Failed to apply account: %v", err)
	}

	if cfg.Username != "from-flags" {
		t.Errorf("Existing values must win, got %s", cfg.Username)
	}
	if cfg.ClientID != "client-id-123" || cfg.Password != "hunter2-password" {
		t.Errorf("Empty values should be filled: %+v", cfg)
	}
	if cfg.UserAgent != "TestAgent/1.0" {
		t.Errorf("Default user agent should be replaced, got %s", cfg.UserAgent)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	t.Setenv("REDDITARCHIVE_PASSPHRASE", "test_passphrase_123")

	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := testAccount("encrypted_user")
	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_user")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.ClientSecret != account.ClientSecret {
		t.Errorf("ClientSecret mismatch after encryption/decryption")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, secret := range []string{account.Password, account.ClientSecret} {
		if bytes.Contains(content, []byte(secret)) {
			t.Errorf("File contains plaintext secret %q", secret)
		}
	}

	if err := store.Delete("encrypted_user"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("File should be removed with its last account")
	}
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REDDITARCHIVE_PASSPHRASE", "")

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Store(testAccount("generated")); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if !reopened.Exists("generated") {
		t.Error("A reopened store should decrypt with the saved passphrase")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("REDDITARCHIVE_USERNAME", "envuser")
	t.Setenv("REDDITARCHIVE_PASSWORD", "envpass")
	t.Setenv("REDDITARCHIVE_CLIENT_ID", "envid")
	t.Setenv("REDDITARCHIVE_CLIENT_SECRET", "envsecret")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.Username != "envuser" || account.ClientSecret != "envsecret" {
		t.Errorf("Unexpected account %+v", account)
	}
	if store.Exists("someone-else") {
		t.Error("A different username should not match")
	}
	if err := store.Store(account); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}

	t.Setenv("REDDITARCHIVE_CLIENT_SECRET", "")
	if _, err := store.Retrieve(""); err != ErrCredentialsNotFound {
		t.Errorf("Incomplete environment should not yield an account, got %v", err)
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	if err != nil {
		t.Fatalf("Mock keyring should be available: %v", err)
	}

	for _, name := range []string{"bob", "alice"} {
		if err := store.Store(testAccount(name)); err != nil {
			t.Fatalf("Failed to store %s: %v", name, err)
		}
	}
	store.Store(testAccount("alice"))

	accounts, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 || accounts[0].Username != "alice" || accounts[1].Username != "bob" {
		t.Errorf("Unexpected accounts %+v", accounts)
	}

	if err := store.Delete("alice"); err != nil {
		t.Fatal(err)
	}
	if store.Exists("alice") {
		t.Error("alice should be gone")
	}
	if err := store.Delete("alice"); err != ErrCredentialsNotFound {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}

	accounts, _ = store.List()
	if len(accounts) != 1 || accounts[0].Username != "bob" {
		t.Errorf("Index should only hold bob, got %+v", accounts)
	}
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv("REDDITARCHIVE_USERNAME", "envuser")
	t.Setenv("REDDITARCHIVE_PASSWORD", "envpass")
	t.Setenv("REDDITARCHIVE_CLIENT_ID", "envid")
	t.Setenv("REDDITARCHIVE_CLIENT_SECRET", "envsecret")

	stored := NewMockStore()
	stored.Store(testAccount("stored"))
	manager := NewManagerWithStores(stored, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatal(err)
	}
	if account.Username != "envuser" {
		t.Errorf("Expected environment account, got %s", account.Username)
	}
}
