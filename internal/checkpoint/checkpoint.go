package checkpoint

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"histpull/internal/model"
)

// ErrLocked is returned when another run holds the checkpoint lock.
var ErrLocked = errors.New("checkpoint is locked by another run")

// Entry is the persisted state of one segment.
type Entry struct {
	Status      model.Status `yaml:"status"`
	Reason      string       `yaml:"reason,omitempty"`
	LastAttempt time.Time    `yaml:"last_attempt"`
	RunID       string       `yaml:"run_id"`
}

type fileState struct {
	UpdatedAt time.Time        `yaml:"updated_at"`
	Segments  map[string]Entry `yaml:"segments"`
}

// Store tracks segment completion in a YAML file. It is single-writer: one
// Store per checkpoint file, guarded by an exclusive lock file.
type Store struct {
	path   string
	runID  uuid.UUID
	logger *slog.Logger

	mu     sync.Mutex
	state  fileState
	locked bool
}

// Open loads the checkpoint at path, or starts empty if none exists yet.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:   path,
		runID:  uuid.New(),
		logger: logger,
		state:  fileState{Segments: make(map[string]Entry)},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	if s.state.Segments == nil {
		s.state.Segments = make(map[string]Entry)
	}

	logger.Info("checkpoint loaded",
		"path", path,
		"segments", len(s.state.Segments),
	)

	return s, nil
}

// RunID identifies this run in checkpoint entries and the lock file.
func (s *Store) RunID() uuid.UUID { return s.runID }

// lockPath is the lock file guarding the checkpoint.
func (s *Store) lockPath() string { return s.path + ".lock" }

// Lock acquires run exclusivity. It fails with ErrLocked if another process
// holds the lock file.
func (s *Store) Lock() error {
	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w (lock file %s)", ErrLocked, s.lockPath())
	}
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	fmt.Fprintf(f, "run_id: %s\npid: %d\n", s.runID, os.Getpid())
	if err := f.Close(); err != nil {
		return fmt.Errorf("write lock: %w", err)
	}

	s.mu.Lock()
	s.locked = true
	s.mu.Unlock()
	return nil
}

// Unlock releases run exclusivity. Safe to call when not locked.
func (s *Store) Unlock() error {
	s.mu.Lock()
	locked := s.locked
	s.locked = false
	s.mu.Unlock()

	if !locked {
		return nil
	}
	if err := os.Remove(s.lockPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// IsDone reports whether the segment completed in a previous run.
func (s *Store) IsDone(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Segments[key].Status == model.StatusDone
}

// Status returns the recorded status for a segment, or StatusPending if the
// segment has never been attempted.
func (s *Store) Status(key string) model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.state.Segments[key]; ok {
		return e.Status
	}
	return model.StatusPending
}

// MarkDone records a fully successful segment.
func (s *Store) MarkDone(key string) error {
	return s.mark(key, model.StatusDone, "")
}

// MarkPartial records a segment written with missing days.
func (s *Store) MarkPartial(key, reason string) error {
	return s.mark(key, model.StatusPartial, reason)
}

// MarkFailed records a segment that produced no artifact.
func (s *Store) MarkFailed(key, reason string) error {
	return s.mark(key, model.StatusFailed, reason)
}

// mark mutates one entry and persists immediately, so a crash loses at most
// the in-flight segment.
func (s *Store) mark(key string, status model.Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Segments[key] = Entry{
		Status:      status,
		Reason:      reason,
		LastAttempt: time.Now().UTC(),
		RunID:       s.runID.String(),
	}
	s.state.UpdatedAt = time.Now().UTC()

	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("persist checkpoint for %s: %w", key, err)
	}
	return nil
}

// saveLocked writes the full state atomically. Caller holds s.mu.
func (s *Store) saveLocked() error {
	data, err := yaml.Marshal(&s.state)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish checkpoint: %w", err)
	}
	return nil
}
