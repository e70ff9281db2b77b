package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Env switches override whatever the config file says.
var (
	DEBUG             = os.Getenv("DEBUG") != ""
	DEBUG_SAVE_BINARY = os.Getenv("DEBUG_SAVE_BINARY") != ""
	DEBUG_SAVE_JSON   = os.Getenv("DEBUG_SAVE_JSON") != ""
)

type Config struct {
	SaveDir string `toml:"save_dir"`
	Debug   Debug  `toml:"debug"`
}

type Debug struct {
	DumpJSON   bool `toml:"dump_json"`
	DumpBinary bool `toml:"dump_binary"`
}

// Load reads an optional TOML config file and applies env overrides. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(err, "read config")
		}
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "parse config")
			}
		}
	}

	if DEBUG_SAVE_JSON {
		cfg.Debug.DumpJSON = true
	}
	if DEBUG_SAVE_BINARY {
		cfg.Debug.DumpBinary = true
	}

	return cfg, nil
}
