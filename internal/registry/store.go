// Package registry persists dev environment records, one YAML file per
// environment, in a single directory (by default ~/.devdock).
//
// The file name is "<name>.yaml". Records are written whole on Create and
// never edited in place; there is no index file, so the directory listing
// is the source of truth.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/devdock/internal/model"
)

// recordExt is the extension of every record file.
const recordExt = ".yaml"

// Store reads and writes environment records under Dir.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created lazily
// by the first Create.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory holding the record files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path of the record for name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+recordExt)
}

// Create validates rec and writes it to "<name>.yaml", replacing any
// existing record of the same name.
func (s *Store) Create(rec *model.Environment) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize environment %s: %w", rec.Name, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", s.dir, err)
	}
	if err := os.WriteFile(s.Path(rec.Name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write environment %s: %w", rec.Name, err)
	}
	return nil
}

// Read loads the record for name. A missing record is a model.NotFoundError
// of kind "config"; a malformed one is a model.ParseError.
func (s *Store) Read(name string) (*model.Environment, error) {
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}

	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.NewNotFoundError("config", name, err)
		}
		return nil, fmt.Errorf("failed to read environment %s: %w", name, err)
	}

	var rec model.Environment
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, &model.ParseError{Path: path, Err: err}
	}
	if rec.Name == "" {
		rec.Name = name
	}
	return &rec, nil
}

// Delete removes the record for name.
func (s *Store) Delete(name string) error {
	if err := model.ValidateName(name); err != nil {
		return err
	}

	err := os.Remove(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NewNotFoundError("config", name, err)
		}
		return fmt.Errorf("failed to delete environment %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a record for name is present.
func (s *Store) Exists(name string) bool {
	if model.ValidateName(name) != nil {
		return false
	}
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// List returns the names of all stored records, sorted. A directory that
// does not exist yet simply holds no records.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), recordExt)
		if model.ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
