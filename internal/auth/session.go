// internal/auth/session.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "keyfc-cli"
	// FallbackDir is the directory, relative to the home directory, for file-based storage
	FallbackDir = ".keyfc/sessions"

	manifestKey = "_manifest"
)

// ErrSessionNotFound is returned when no session is stored under a name
var ErrSessionNotFound = errors.New("session not found")

// Session is a saved forum login
type Session struct {
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	BaseURL   string    `json:"base_url"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Cookie is the stored form of an http.Cookie
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	HTTPOnly bool      `json:"httpOnly,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
}

// NewSession captures cookies under name, deriving ExpiresAt from the expiry cookie
func NewSession(name, username, baseURL string, cookies []*http.Cookie) *Session {
	s := &Session{
		Name:      name,
		Username:  username,
		BaseURL:   baseURL,
		CreatedAt: time.Now(),
	}
	for _, c := range cookies {
		if c == nil {
			continue
		}
		s.Cookies = append(s.Cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		})
	}
	if expires, ok := SessionExpiry(cookies); ok {
		s.ExpiresAt = expires
	}
	return s
}

// HTTPCookies converts the stored cookies back for the transport
func (s *Session) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return out
}

// Expired reports whether the forum's expiry has passed. Sessions without one count as expired.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.IsZero() || now.After(s.ExpiresAt)
}

// Store persists sessions in the OS keyring, or as files when no keyring is reachable
type Store struct {
	service string
	dir     string
	files   bool
}

// NewStore picks keyring storage when it works here, file storage under dir otherwise.
// An empty dir means ~/.keyfc/sessions.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, FallbackDir)
	}
	s := &Store{service: KeyringService, dir: dir, files: !keyringAvailable()}
	log.Debug().Bool("file_storage", s.files).Str("dir", dir).Msg("Session store ready")
	return s, nil
}

// NewFileStore always stores sessions as JSON files in dir
func NewFileStore(dir string) *Store {
	return &Store{service: KeyringService, dir: dir, files: true}
}

// keyringAvailable probes the keyring. CI and Codespaces are assumed to have none.
func keyringAvailable() bool {
	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		return false
	}
	const probe = "_test_keyring_access_"
	if err := keyring.Set(KeyringService, probe, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(KeyringService, probe)
	return true
}

func (s *Store) path(name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create session dir: %w", err)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Save writes the session and records it in the manifest
func (s *Store) Save(session *Session) error {
	if session == nil || session.Name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if s.files {
		path, err := s.path(session.Name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save session file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(s.service, session.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return s.updateManifest(session.Name, true)
}

// Load reads a session. Expiry is not checked; see Session.Expired.
func (s *Store) Load(name string) (*Session, error) {
	if name == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}

	var data []byte
	if s.files {
		path, err := s.path(name)
		if err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session file: %w", err)
		}
	} else {
		secret, err := keyring.Get(s.service, name)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
		data = []byte(secret)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}
	return &session, nil
}

// Delete removes a session; deleting a missing file-backed session is not an error
func (s *Store) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if s.files {
		path, err := s.path(name)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete session file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(s.service, name); err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return s.updateManifest(name, false)
}

// List returns the stored session names
func (s *Store) List() ([]string, error) {
	if s.files {
		entries, err := os.ReadDir(s.dir)
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		if err != nil {
			return nil, err
		}
		names := []string{}
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
			}
		}
		slices.Sort(names)
		return names, nil
	}

	manifest, err := keyring.Get(s.service, manifestKey)
	if err != nil {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(manifest), &names); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	return names, nil
}

func (s *Store) updateManifest(name string, add bool) error {
	names, _ := s.List()
	names = slices.DeleteFunc(names, func(n string) bool { return n == name })
	if add {
		names = append(names, name)
	}

	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return keyring.Set(s.service, manifestKey, string(data))
}
