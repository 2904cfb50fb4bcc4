package notify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Dton04/hoterier-cli/internal/models"
)

// Snapshot is the persisted notification state: the last known list plus the
// last-seen marker. It is a cache, not a source of truth; a feed pull always
// supersedes it.
type Snapshot struct {
	Notifications []models.Notification `json:"notifications"`
	LastSeen      time.Time             `json:"lastSeen"`
}

// SnapshotStore persists whole snapshots. Writers must always write a full
// replacement value; last writer wins across concurrent processes.
type SnapshotStore interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}

// FileStore keeps the snapshot in a JSON file so a restart shows the last
// known state before the first network round-trip completes.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSnapshotPath is the conventional location in the home directory.
func DefaultSnapshotPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".hoterier-notifications.json")
}

// Load returns an empty snapshot for a missing or corrupt file; hydration
// never fails.
func (f *FileStore) Load() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return Snapshot{}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, nil
	}
	return snap, nil
}

func (f *FileStore) Save(snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

// MemoryStore is an in-process SnapshotStore for tests.
type MemoryStore struct {
	mu   sync.Mutex
	snap Snapshot
}

func (m *MemoryStore) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *MemoryStore) Save(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}
