package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/Dton04/hoterier-cli/internal/models"
)

const (
	serviceName = "hoterier"
	recordKey   = "session"
)

// Record is the persisted session snapshot. It is written whole on every save,
// never patched, so concurrent writers can only ever race at the record level.
type Record struct {
	UserID         string      `json:"userId"`
	Role           models.Role `json:"role"`
	Token          string      `json:"token"`
	SupportAdminID string      `json:"supportAdminId,omitempty"`
}

func (r Record) Identity() models.Identity {
	return models.Identity{UserID: r.UserID, Role: r.Role, Token: r.Token}
}

// Store keeps the session record in the OS keyring, falling back to a JSON
// file in the home directory on platforms without a usable backend.
type Store struct {
	path string
	open func() (keyring.Keyring, error)
}

// NewStore returns a store rooted at the default locations.
func NewStore() *Store {
	return &Store{path: defaultPath(), open: openKeyring}
}

// NewFileStore bypasses the keyring entirely; used by tests.
func NewFileStore(path string) *Store {
	return &Store{path: path, open: func() (keyring.Keyring, error) {
		return nil, errors.New("keyring disabled")
	}}
}

func defaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".hoterier-session.json")
}

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/hoterier/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("hoterier-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Load reads the session record. A missing record is not an error; it returns
// a zero Record, which Identity() maps to an anonymous identity.
func (s *Store) Load() (Record, error) {
	if ring, err := s.open(); err == nil {
		if item, err := ring.Get(recordKey); err == nil {
			var rec Record
			if err := json.Unmarshal(item.Data, &rec); err == nil {
				return rec, nil
			}
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, nil
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("corrupt session record: %w", err)
	}
	return rec, nil
}

// Save writes the full record to the keyring and the fallback file.
func (s *Store) Save(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if ring, err := s.open(); err == nil {
		_ = ring.Set(keyring.Item{Key: recordKey, Data: data})
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the persisted record everywhere.
func (s *Store) Clear() error {
	if ring, err := s.open(); err == nil {
		_ = ring.Remove(recordKey)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
