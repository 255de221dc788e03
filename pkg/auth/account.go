package auth

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
	"redditarchive/pkg/config"
)

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// Account is a Reddit "script" application together with the user it
// signs in as.
type Account struct {
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Validate reports the first field the password grant is missing
func (a *Account) Validate() error {
	if a == nil {
		return ErrInvalidCredentials
	}
	for _, f := range []struct{ name, value string }{
		{"username", a.Username},
		{"password", a.Password},
		{"client ID", a.ClientID},
		{"client secret", a.ClientSecret},
	} {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	return nil
}

// ApplyTo copies the account into the credential fields of cfg that are
// still empty. A stored user agent replaces only the built-in default.
func (a *Account) ApplyTo(cfg *config.RedditConfig) error {
	src := config.RedditConfig{
		Username:     a.Username,
		Password:     a.Password,
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
	}
	if err := mergo.Merge(cfg, src); err != nil {
		return fmt.Errorf("failed to apply stored credentials: %w", err)
	}
	if a.UserAgent != "" && cfg.UserAgent == config.DefaultConfig().Reddit.UserAgent {
		cfg.UserAgent = a.UserAgent
	}
	return nil
}

// SanitizeAccount returns a copy safe to print
func SanitizeAccount(a *Account) *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Password = mask(a.Password)
	out.ClientSecret = mask(a.ClientSecret)
	return &out
}

// mask keeps four characters at each end of long secrets
func mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", s[:4], s[len(s)-4:])
}
