// Package session manages broker credentials and the persisted
// session blob (user agent, cookies, SSID token) that the transport
// presents during the WebSocket handshake.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DefaultFileName is the session file written under the root path.
const DefaultFileName = "session.json"

// Session is the persisted handshake state for one account.
type Session struct {
	UserAgent string `json:"user_agent"`
	Cookies   string `json:"cookies,omitempty"`
	Token     string `json:"token,omitempty"`
}

// Credentials holds the account login pair.
type Credentials struct {
	Email    string
	Password string
}

// Load reads a session file, returning a fresh session carrying only
// the user agent when the file does not exist yet.
func Load(path, userAgent string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{UserAgent: userAgent}, nil
		}
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("failed to decode session file: %w", err)
	}
	if s.UserAgent == "" {
		s.UserAgent = userAgent
	}
	return s, nil
}

// Save writes the session to disk, creating parent directories as
// needed.
func (s Session) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create session dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// CredentialsFromEnv loads the account login pair from the
// environment, reading a .env file first when present.
func CredentialsFromEnv() (Credentials, error) {
	_ = godotenv.Load()

	creds := Credentials{
		Email:    os.Getenv("QUOTEX_EMAIL"),
		Password: os.Getenv("QUOTEX_PASSWORD"),
	}
	if creds.Email == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("QUOTEX_EMAIL and QUOTEX_PASSWORD must be set")
	}
	return creds, nil
}
