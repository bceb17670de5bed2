// Package storage provides file system operations for .verso/ directories.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// versoDir is the name of the verso directory.
	versoDir = ".verso"
	// slotsDir is the subdirectory for durable slot files.
	slotsDir = "slots"
	// configFile is the name of the config file within .verso/.
	configFile = "config.yaml"
)

// validSlotKey restricts slot names to something safe to use as a file name.
var validSlotKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// StorageConfig contains settings stored in .verso/config.yaml.
type StorageConfig struct {
	Version int `yaml:"version"`
}

// Storage provides access to a .verso/ directory.
type Storage struct {
	root string // path to directory containing .verso/
}

// Open returns a Storage for the given directory.
// Returns error if .verso/ does not exist.
func Open(dir string) (*Storage, error) {
	versoPath := filepath.Join(dir, versoDir)
	info, err := os.Stat(versoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf(".verso/ directory not found in %s (run `verso init`)", dir)
		}
		return nil, fmt.Errorf("failed to access .verso/: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf(".verso is not a directory")
	}

	return &Storage{root: dir}, nil
}

// Init creates the .verso/ directory with an empty slots/ directory.
// Returns error if .verso/ already exists.
func Init(dir string) (*Storage, error) {
	versoPath := filepath.Join(dir, versoDir)

	if _, err := os.Stat(versoPath); err == nil {
		return nil, fmt.Errorf(".verso/ directory already exists in %s", dir)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to check for .verso/: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(versoPath, slotsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create .verso/slots/: %w", err)
	}

	cfg := StorageConfig{Version: 1}
	cfgData, err := yaml.Marshal(&cfg)
	if err != nil {
		os.RemoveAll(versoPath)
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(versoPath, configFile), cfgData, 0644); err != nil {
		os.RemoveAll(versoPath)
		return nil, fmt.Errorf("failed to write config.yaml: %w", err)
	}

	return &Storage{root: dir}, nil
}

// VersoPath returns the path to the .verso/ directory.
func (s *Storage) VersoPath() string {
	return filepath.Join(s.root, versoDir)
}

// Path resolves a path relative to the .verso/ directory.
// Absolute paths are returned unchanged.
func (s *Storage) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.VersoPath(), name)
}

// slotPath returns the path to a slot file by key.
func (s *Storage) slotPath(key string) string {
	return filepath.Join(s.root, versoDir, slotsDir, key+".json")
}

// Get reads the slot with the given key.
// A missing slot is reported as found == false with no error.
func (s *Storage) Get(key string) ([]byte, bool, error) {
	if !validSlotKey.MatchString(key) {
		return nil, false, fmt.Errorf("invalid slot key %q", key)
	}

	data, err := os.ReadFile(s.slotPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the contents of the slot with the given key.
// The file is written to a temporary sibling and renamed into place so a
// reader never sees a partial snapshot.
func (s *Storage) Set(key string, data []byte) error {
	if !validSlotKey.MatchString(key) {
		return fmt.Errorf("invalid slot key %q", key)
	}

	dir := filepath.Join(s.root, versoDir, slotsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create slots directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for slot %s: %w", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close slot %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, s.slotPath(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace slot %s: %w", key, err)
	}
	return nil
}

// Delete removes the slot with the given key. Deleting a missing slot is not an error.
func (s *Storage) Delete(key string) error {
	if !validSlotKey.MatchString(key) {
		return fmt.Errorf("invalid slot key %q", key)
	}
	if err := os.Remove(s.slotPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when the slot with the given key was last written.
func (s *Storage) UpdatedAt(key string) (time.Time, bool, error) {
	if !validSlotKey.MatchString(key) {
		return time.Time{}, false, fmt.Errorf("invalid slot key %q", key)
	}

	info, err := os.Stat(s.slotPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to stat slot %s: %w", key, err)
	}
	return info.ModTime(), true, nil
}
