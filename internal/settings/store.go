// Package settings persists the operator-tunable trade settings as a JSON
// file and serves immutable snapshots to the decision cycle.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
)

// Store holds the current settings and their backing file.
type Store struct {
	mu      sync.RWMutex
	current domain.TradeSettings
	path    string
	logger  ports.Logger
}

// NewStore loads settings from path, falling back to defaults when the file
// is missing or unreadable. A missing file is not an error.
func NewStore(ctx context.Context, path string, logger ports.Logger) *Store {
	s := &Store{
		current: domain.DefaultSettings(),
		path:    path,
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(ctx, "failed to read settings file, using defaults", map[string]interface{}{"path": path, "error": err.Error()})
		}
		return s
	}

	var loaded domain.TradeSettings
	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.Warn(ctx, "failed to parse settings file, using defaults", map[string]interface{}{"path": path, "error": err.Error()})
		return s
	}
	if err := loaded.Validate(); err != nil {
		logger.Warn(ctx, "stored settings invalid, using defaults", map[string]interface{}{"path": path, "error": err.Error()})
		return s
	}

	s.current = loaded
	logger.Info(ctx, "settings loaded", map[string]interface{}{"path": path})
	return s
}

// Get returns an immutable snapshot of the current settings.
func (s *Store) Get() domain.TradeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates and applies new settings, then persists them. The current
// settings are unchanged when validation or persistence fails.
func (s *Store) Update(ctx context.Context, next domain.TradeSettings) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(next); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	s.current = next
	s.logger.Info(ctx, "settings updated", map[string]interface{}{"path": s.path})
	return nil
}

// Reset restores and persists the defaults.
func (s *Store) Reset(ctx context.Context) error {
	return s.Update(ctx, domain.DefaultSettings())
}

func (s *Store) write(settings domain.TradeSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	// Write to a temp file first so a crash never truncates the settings.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
