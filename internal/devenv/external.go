package devenv

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/devdock/internal/model"
)

// externalDocument is the multi-environment form of an external
// configuration file.
type externalDocument struct {
	Environments []model.Environment `yaml:"environments"`
}

// LoadExternal reads environment definitions from an external file.
//
// The file is YAML, or JSON when its extension is .json or .jsonc (comments
// and trailing commas are allowed). It holds either a single environment
// record or a list under an "environments" key. Every record is validated;
// the first invalid one fails the whole load.
func LoadExternal(path string) ([]model.Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.NewNotFoundError("config file", path, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	envs, err := ParseExternal(data, isJSONFile(path))
	if err != nil {
		var perr *model.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return envs, nil
}

// ParseExternal decodes external configuration data. See LoadExternal.
func ParseExternal(data []byte, isJSON bool) ([]model.Environment, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, &model.ParseError{Err: errors.New("document is empty")}
	}

	var (
		envs []model.Environment
		err  error
	)
	if isJSON {
		envs, err = decodeJSONExternal(jsonc.ToJSON(data))
	} else {
		envs, err = decodeYAMLExternal(data)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(envs))
	for i := range envs {
		if err := envs[i].Validate(); err != nil {
			return nil, model.WrapCLIError(model.ExitInvalidInput, fmt.Sprintf("environment #%d is invalid", i+1), err)
		}
		if seen[envs[i].Name] {
			return nil, model.NewCLIError(model.ExitInvalidInput, fmt.Sprintf("environment %q is defined more than once", envs[i].Name))
		}
		seen[envs[i].Name] = true
	}
	return envs, nil
}

// Register stores every environment in the registry, in order, and returns
// the names stored. Registration stops at the first failure.
func (m *Manager) Register(envs []model.Environment) ([]string, error) {
	names := make([]string, 0, len(envs))
	for i := range envs {
		if err := m.store.Create(&envs[i]); err != nil {
			return names, err
		}
		names = append(names, envs[i].Name)
	}
	return names, nil
}

func decodeYAMLExternal(data []byte) ([]model.Environment, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &model.ParseError{Err: err}
	}

	if hasKey(&root, "environments") {
		var doc externalDocument
		if err := root.Decode(&doc); err != nil {
			return nil, &model.ParseError{Err: err}
		}
		if len(doc.Environments) == 0 {
			return nil, &model.ParseError{Err: errors.New(`"environments" is empty`)}
		}
		return doc.Environments, nil
	}

	var env model.Environment
	if err := root.Decode(&env); err != nil {
		return nil, &model.ParseError{Err: err}
	}
	return []model.Environment{env}, nil
}

func decodeJSONExternal(data []byte) ([]model.Environment, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, &model.ParseError{Err: err}
	}

	if raw, ok := keys["environments"]; ok {
		var envs []model.Environment
		if err := json.Unmarshal(raw, &envs); err != nil {
			return nil, &model.ParseError{Err: err}
		}
		if len(envs) == 0 {
			return nil, &model.ParseError{Err: errors.New(`"environments" is empty`)}
		}
		return envs, nil
	}

	var env model.Environment
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &model.ParseError{Err: err}
	}
	return []model.Environment{env}, nil
}

func isJSONFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return true
	default:
		return false
	}
}

// hasKey reports whether the document's top-level mapping contains key.
func hasKey(doc *yaml.Node, key string) bool {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}
