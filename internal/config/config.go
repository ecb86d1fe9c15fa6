package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional rdu configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	SSH      SSHConfig      `toml:"ssh"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	Strategy      *string  `toml:"strategy"`
	Workers       *int     `toml:"workers"`
	HumanReadable *bool    `toml:"human_readable"`
	SI            *bool    `toml:"si"`
	RateLimit     *float64 `toml:"rate_limit"`
}

// SSHConfig holds defaults for remote roots.
type SSHConfig struct {
	KeyFile *string `toml:"key_file"`
	Port    *int    `toml:"port"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "rdu", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields a zero Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, &UnknownKeysError{Path: path, Keys: undecoded}
	}
	return cfg, nil
}
