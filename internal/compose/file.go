package compose

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/devdock/internal/model"
)

// Load reads and parses a compose file.
// A missing file is reported as a model.NotFoundError, malformed content
// as a model.ParseError.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.NewNotFoundError("compose file", path, err)
		}
		return nil, fmt.Errorf("failed to read compose file %s: %w", path, err)
	}

	def, err := Parse(data)
	if err != nil {
		var perr *model.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return def, nil
}

// Parse decodes compose YAML into a Definition. This is a pure function.
func Parse(data []byte) (*Definition, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, &model.ParseError{Err: errors.New("compose document is empty")}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &model.ParseError{Err: err}
	}

	// "db:" with no body decodes to a nil *Service.
	for name, svc := range def.Services {
		if svc == nil {
			def.Services[name] = &Service{}
		}
	}
	return &def, nil
}

// Marshal encodes a Definition as YAML with two-space indentation.
func Marshal(def *Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return nil, fmt.Errorf("failed to serialize compose definition: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize compose definition: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes a Definition to path, creating parent directories as needed.
func Save(path string, def *Definition) error {
	data, err := Marshal(def)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write compose file %s: %w", path, err)
	}
	return nil
}

// DevPath derives the path of the "dev" variant of a compose file by
// inserting a ".dev" marker before the extension:
//
//	docker-compose.yml      -> docker-compose.dev.yml
//	stack/compose.yaml      -> stack/compose.dev.yaml
//	compose                 -> compose.dev
//
// A path that already carries the marker is returned unchanged.
func DevPath(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if strings.HasSuffix(base, ".dev") {
		return path
	}
	return base + ".dev" + ext
}
