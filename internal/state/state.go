// Package state persists what the watch command knows about a tracefile
// between runs.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
)

const (
	// StateFileName is the name of the watch state file.
	StateFileName = "watch_state.json"
)

// WatchState represents the persistent state of a watch session.
type WatchState struct {
	Source       string            `json:"source"`
	LastDigest   string            `json:"last_digest"` // SHA256 of the last parsed content
	ParseCount   uint64            `json:"parse_count"`
	FailureCount uint64            `json:"failure_count"`
	LastTotal    *coverage.Summary `json:"last_total,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Manager handles the persistence and modification of the watch state.
type Manager interface {
	// Load reads the state from disk.
	Load() error

	// Save writes the state to disk.
	Save() error

	// Changed reports whether content differs from the last parsed content.
	Changed(content []byte) bool

	// RecordParse stores the digest of content and the resulting total.
	RecordParse(content []byte, total coverage.Summary)

	// RecordFailure counts a failed parse.
	RecordFailure()

	// GetState returns a copy of the current state.
	GetState() WatchState
}

// FileManager is a file-backed implementation of the Manager interface.
type FileManager struct {
	mu       sync.Mutex
	filePath string
	source   string
	state    WatchState
}

// NewFileManager creates a new FileManager for the given directory.
// The state file will be stored at dir/watch_state.json.
func NewFileManager(dir, source string) *FileManager {
	return &FileManager{
		filePath: filepath.Join(dir, StateFileName),
		source:   source,
		state:    WatchState{Source: source},
	}
}

// Load reads the state from disk.
// A missing file, or a state recorded for another source, starts from a
// fresh state.
func (m *FileManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = WatchState{Source: m.source}
			return nil
		}
		return fmt.Errorf("failed to read state file %s: %w", m.filePath, err)
	}

	var loaded WatchState
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse state file %s: %w", m.filePath, err)
	}
	if loaded.Source != m.source {
		m.state = WatchState{Source: m.source}
		return nil
	}
	m.state = loaded
	return nil
}

// Save writes the state to disk.
func (m *FileManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Ensure directory exists
	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(m.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", m.filePath, err)
	}

	return nil
}

// Changed reports whether content differs from the last parsed content.
func (m *FileManager) Changed(content []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.LastDigest != Digest(content)
}

// RecordParse stores the digest of content and the resulting total.
func (m *FileManager) RecordParse(content []byte, total coverage.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total = total.Clone()
	m.state.LastDigest = Digest(content)
	m.state.LastTotal = &total
	m.state.ParseCount++
	m.state.UpdatedAt = time.Now()
}

// RecordFailure counts a failed parse.
func (m *FileManager) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.FailureCount++
	m.state.UpdatedAt = time.Now()
}

// GetState returns a copy of the current state.
func (m *FileManager) GetState() WatchState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	if s.LastTotal != nil {
		total := *s.LastTotal
		s.LastTotal = &total
	}
	return s
}

// GetFilePath returns the path to the state file.
func (m *FileManager) GetFilePath() string {
	return m.filePath
}

// Digest returns the hex encoded SHA256 of content.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
