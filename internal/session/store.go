// Package session keeps this process consistent with the
// server-authoritative session: a fixed-interval poll mirrors the
// snapshot into a shared state file, and a watcher applies changes
// broadcast by sibling processes so they converge without each polling
// independently.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/api"
)

// BroadcastType tags the kind of cross-process event.
type BroadcastType string

const (
	BroadcastSessionState   BroadcastType = "session_state"
	BroadcastPlatformChange BroadcastType = "platform_change"
	BroadcastLogout         BroadcastType = "logout"
)

// Broadcast is the shared-storage payload. Writers tag it with their own
// tab identifier and a timestamp so readers can ignore self-originated
// or stale events. The key is last-write-wins with no locking; that is
// accepted as correct for advisory UI state, not authoritative state.
type Broadcast struct {
	TabID     string            `json:"tab_id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType BroadcastType     `json:"event_type"`
	Session   *api.SessionState `json:"session,omitempty"`
	Platform  *api.Platform     `json:"platform,omitempty"`
}

// Store reads and writes the shared session state file.
type Store struct {
	path  string
	tabID string

	mu          sync.Mutex
	lastApplied time.Time
}

// NewStore creates a store over the shared file. tabID identifies this
// process; its own writes are never applied back.
func NewStore(path, tabID string) *Store {
	return &Store{path: path, tabID: tabID}
}

// TabID returns this process's identifier.
func (s *Store) TabID() string { return s.tabID }

// Write publishes a broadcast, stamping it with this store's tab id and
// the current time. The write is atomic (temp file + rename) so readers
// never observe a torn payload.
func (s *Store) Write(b Broadcast) error {
	b.TabID = s.tabID
	b.Timestamp = time.Now().UTC()

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal session broadcast: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err = os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish state file: %w", err)
	}

	// A process's own writes advance the applied watermark so the
	// watcher does not re-deliver them.
	s.mu.Lock()
	s.lastApplied = b.Timestamp
	s.mu.Unlock()
	return nil
}

// Read returns the current broadcast, or nil when the file is absent.
func (s *Store) Read() (*Broadcast, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var b Broadcast
	if err = json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("corrupt state file: %w", err)
	}
	return &b, nil
}

// Pending returns the latest foreign broadcast newer than anything
// already applied, or nil. Self-originated and stale events are
// filtered here so a tab never reacts to its own writes.
func (s *Store) Pending() (*Broadcast, error) {
	b, err := s.Read()
	if err != nil || b == nil {
		return nil, err
	}

	if b.TabID == s.tabID {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !b.Timestamp.After(s.lastApplied) {
		return nil, nil
	}
	s.lastApplied = b.Timestamp
	return b, nil
}
