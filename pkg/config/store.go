package config

import (
	"errors"
	"fmt"
	"sync"
)

// Store owns the loaded configuration for the lifetime of the process.
//
// It keeps two copies: the record as read from disk, and the effective
// config with environment overrides applied. Only the log channel changes
// at runtime; SetLogChannelID updates both copies and rewrites the file
// copy, so env-supplied secrets never end up on disk.
type Store struct {
	path      string
	mu        sync.RWMutex
	file      Config
	effective Config
}

// Open loads path into a Store. ErrConfigCreated is passed through (wrapped)
// when a default file had to be written.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig(path)
	if err != nil && !errors.Is(err, ErrConfigCreated) {
		return nil, err
	}
	created := err

	effective := *cfg
	if err := ApplyEnv(&effective); err != nil {
		return nil, err
	}

	s := &Store{
		path:      path,
		file:      *cfg,
		effective: effective,
	}
	if created != nil {
		return s, fmt.Errorf("%s: %w", path, created)
	}
	return s, nil
}

// NewStore wraps an in-memory config. Save writes it to path.
func NewStore(path string, cfg Config) *Store {
	return &Store{path: path, file: cfg, effective: cfg}
}

func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the effective configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effective
}

func (s *Store) Prefix() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effective.Prefix
}

// LogChannelID returns the configured log channel and whether one is set.
func (s *Store) LogChannelID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := string(s.effective.LogChannelID)
	return id, id != ""
}

// SetLogChannelID points the log channel at channelID and persists the
// config immediately. Concurrent callers race; the last write wins.
func (s *Store) SetLogChannelID(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.effective.LogChannelID = ChannelID(channelID)
	s.file.LogChannelID = ChannelID(channelID)
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := SaveConfig(s.path, &s.file); err != nil {
		return fmt.Errorf("failed to save config %s: %w", s.path, err)
	}
	return nil
}
