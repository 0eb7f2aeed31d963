// Package config loads devdock's own settings: where environment records
// live, which Docker daemon to talk to, which binary runs compose, and the
// log level.
//
// Precedence, lowest to highest: built-in defaults, the config file, and
// DEVDOCK_* environment variables (DEVDOCK_CONFIG_DIR, DEVDOCK_DOCKER_HOST,
// DEVDOCK_COMPOSE_BINARY, DEVDOCK_LOG_LEVEL).
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "DEVDOCK"

// DefaultConfigDir is the registry directory used when none is configured.
const DefaultConfigDir = "~/.devdock"

// Settings holds all application settings.
type Settings struct {
	ConfigDir string          `mapstructure:"config_dir"`
	Docker    DockerSettings  `mapstructure:"docker"`
	Compose   ComposeSettings `mapstructure:"compose"`
	Log       LogSettings     `mapstructure:"log"`
}

// DockerSettings holds Docker client settings.
type DockerSettings struct {
	// Host overrides DOCKER_HOST when non-empty.
	Host string `mapstructure:"host"`
}

// ComposeSettings holds settings for the compose subprocess.
type ComposeSettings struct {
	// Binary is the executable invoked as "<binary> compose ...".
	Binary string `mapstructure:"binary"`
}

// LogSettings holds logging settings.
type LogSettings struct {
	Level string `mapstructure:"level"`
}

// Load reads settings from configPath (if non-empty) and the environment.
//
// When configPath is empty, "config.yaml" inside the configured directory
// is read if it exists. An explicitly named file that does not exist is an
// error; a missing implicit one is not.
func Load(configPath string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("config_dir", DefaultConfigDir)
	v.SetDefault("docker.host", "")
	v.SetDefault("compose.binary", "docker")
	v.SetDefault("log.level", "warn")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		path, err := homedir.Expand(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path %s: %w", configPath, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		dir, err := homedir.Expand(v.GetString("config_dir"))
		if err != nil {
			return nil, fmt.Errorf("failed to expand config directory: %w", err)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dir, err := homedir.Expand(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config directory: %w", err)
	}
	s.ConfigDir = filepath.Clean(dir)

	if s.Compose.Binary == "" {
		s.Compose.Binary = "docker"
	}
	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))

	return &s, nil
}
