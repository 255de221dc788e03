package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"redditarchive/pkg/storage"
)

const (
	saltSize        = 32
	keySize         = 32
	kdfIterations   = 100000
	vaultVersion    = 1
	passphraseEnv   = "REDDITARCHIVE_PASSPHRASE"
	passphraseFile  = ".passphrase"
	vaultPermission = 0600
)

// accountSet holds accounts keyed by username
type accountSet map[string]Account

func (s accountSet) list() []*Account {
	out := make([]*Account, 0, len(s))
	for _, a := range s {
		a := a
		out = append(out, &a)
	}
	return out
}

// vaultFile is the on-disk layout of the encrypted credential file. Box
// is the nonce followed by the AES-GCM sealed JSON of an accountSet.
type vaultFile struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Box      []byte    `json:"encrypted"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore keeps every account in one AES-GCM sealed file. The
// key is derived with PBKDF2 from a passphrase taken from
// REDDITARCHIVE_PASSPHRASE, or generated once into a .passphrase file
// beside the vault.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.RWMutex
}

// NewEncryptedFileStore opens (but does not create) the vault at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	pass, err := loadPassphrase(filepath.Join(filepath.Dir(path), passphraseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: pass}, nil
}

func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(set accountSet) error {
		set[account.Username] = *account
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	set, _, err := e.read()
	if err != nil {
		return nil, err
	}
	a, ok := set[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &a, nil
}

func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	set, _, err := e.read()
	if err != nil {
		return nil, err
	}
	return set.list(), nil
}

// Delete removes one account. The vault file goes away with the last one.
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(set accountSet) error {
		if _, ok := set[username]; !ok {
			return ErrCredentialsNotFound
		}
		delete(set, username)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}

// update applies fn to the decrypted accounts and writes the result back
// under the existing salt.
func (e *EncryptedFileStore) update(fn func(accountSet) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, salt, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(set); err != nil {
		return err
	}
	if len(set) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials: %w", err)
		}
		return nil
	}
	return e.write(set, salt)
}

// read returns an empty set and a nil salt when no vault exists yet
func (e *EncryptedFileStore) read() (accountSet, []byte, error) {
	raw, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return accountSet{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var vf vaultFile
	if err := json.Unmarshal(raw, &vf); err != nil {
		return nil, nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	plain, err := open(vf.Box, e.key(vf.Salt))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	set := accountSet{}
	if err := json.Unmarshal(plain, &set); err != nil {
		return nil, nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return set, vf.Salt, nil
}

func (e *EncryptedFileStore) write(set accountSet, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plain, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	box, err := seal(plain, e.key(salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	out, err := json.MarshalIndent(vaultFile{
		Version:  vaultVersion,
		Salt:     salt,
		Box:      box,
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := storage.WriteFile(e.path, out, vaultPermission); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

func (e *EncryptedFileStore) key(salt []byte) []byte {
	return pbkdf2.Key(e.passphrase, salt, kdfIterations, keySize, sha256.New)
}

func loadPassphrase(path string) ([]byte, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return []byte(p), nil
	}
	if p, err := os.ReadFile(path); err == nil && len(p) > 0 {
		return p, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	p := []byte(base64.URLEncoding.EncodeToString(buf))
	if err := storage.WriteFile(path, p, vaultPermission); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return p, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(plain, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func open(box, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(box) < n {
		return nil, errors.New("ciphertext too short")
	}
	return gcm.Open(nil, box[:n], box[n:], nil)
}
