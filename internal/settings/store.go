// internal/settings/store.go

// Package settings reads and writes the credential bundle. The core never
// persists credentials anywhere else; this file is the single boundary.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/models"
)

// Store persists the settings bundle as a JSON file, created with owner-only
// permissions since it holds API keys.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the settings file. A missing file is not an error; it returns
// an empty bundle so first-run works without setup.
func (s *Store) Load() (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &models.Settings{APIKeys: make(map[string]string)}, nil
	}
	if err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryFileSystem, "reading settings file", err)
	}

	var out models.Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryFileSystem, "settings file is corrupt", err)
	}
	if out.APIKeys == nil {
		out.APIKeys = make(map[string]string)
	}
	return &out, nil
}

// Save writes the bundle atomically: full write to a temp file in the same
// directory, then rename over the target.
func (s *Store) Save(settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return wizerrors.Wrap(wizerrors.CategoryFileSystem, "creating settings directory", err)
	}

	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return wizerrors.Wrap(wizerrors.CategoryInternal, "encoding settings", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.json")
	if err != nil {
		return wizerrors.Wrap(wizerrors.CategoryFileSystem, "creating temp settings file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return wizerrors.Wrap(wizerrors.CategoryFileSystem, "restricting settings permissions", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return wizerrors.Wrap(wizerrors.CategoryFileSystem, "writing settings file", err)
	}
	if err := tmp.Close(); err != nil {
		return wizerrors.Wrap(wizerrors.CategoryFileSystem, "closing settings file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return wizerrors.Wrap(wizerrors.CategoryFileSystem, "replacing settings file", err)
	}
	return nil
}
