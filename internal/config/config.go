package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	sderrors "sortderives/internal/errors"
	"sortderives/internal/order"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".sort-derives.toml"

// EnvPrefix prefixes environment overrides, e.g. SORT_DERIVES_ORDER.
const EnvPrefix = "SORT_DERIVES"

// Config represents the .sort-derives.toml settings
type Config struct {
	// Order is the custom derive order. It may contain one "..." wildcard.
	Order []string `json:"order,omitempty" toml:"order,omitempty" mapstructure:"order"`
	// Preserve keeps unlisted derives in their written order.
	Preserve bool `json:"preserve" toml:"preserve" mapstructure:"preserve"`
	// Exclude holds gitignore-style globs skipped during a walk.
	Exclude []string `json:"exclude,omitempty" toml:"exclude,omitempty" mapstructure:"exclude"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{}
}

// StarterConfig returns the configuration written by "config init"
func StarterConfig() *Config {
	return &Config{
		Order:    []string{"Debug", "Default", "Clone", "Copy", "PartialEq", "Eq", "PartialOrd", "Ord", "Hash", order.Wildcard},
		Preserve: false,
		Exclude:  []string{"target/"},
	}
}

// Path returns the config file path inside dir
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// LoadConfig loads configuration from .sort-derives.toml in dir, applying
// SORT_DERIVES_* environment overrides. A missing file is not an error.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()

	// Defaults make every key visible to AutomaticEnv
	v.SetDefault("order", []string{})
	v.SetDefault("preserve", false)
	v.SetDefault("exclude", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	path := Path(dir)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, sderrors.New(sderrors.ConfigInvalid, "cannot read "+path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, sderrors.New(sderrors.ConfigInvalid, "cannot stat "+path, err)
	}

	// order and exclude arrive either as TOML arrays or as comma-separated
	// strings (file or env); viper's default hook splits the latter.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, sderrors.New(sderrors.ConfigInvalid, "cannot decode "+path, err)
	}
	cfg.Order = trimAll(cfg.Order, false)
	cfg.Exclude = trimAll(cfg.Exclude, true)

	return &cfg, nil
}

func trimAll(list []string, dropEmpty bool) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" && dropEmpty {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := order.Build(c.Order); err != nil {
		return &ConfigError{Field: "order", Message: err.Error()}
	}
	return nil
}

// TOML renders the configuration in file form
func (c *Config) TOML() ([]byte, error) {
	return gotoml.Marshal(c)
}

// JSON renders the configuration as indented JSON
func (c *Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// WriteStarter writes a starter .sort-derives.toml into dir. An existing file
// is only replaced when force is set.
func WriteStarter(dir string, force bool) (string, error) {
	path := Path(dir)
	if _, err := os.Stat(path); err == nil && !force {
		return path, sderrors.NewSortError(sderrors.ConfigInvalid, path+" already exists", nil,
			[]sderrors.FixAction{{
				Type:        sderrors.RunCommand,
				Command:     "cargo sort-derives config init --force",
				Description: "Overwrite the existing config",
			}})
	}

	data, err := StarterConfig().TOML()
	if err != nil {
		return path, err
	}
	header := "# cargo sort-derives configuration\n" +
		"# order: custom derive order, \"...\" stands for every unlisted derive\n" +
		"# preserve: keep unlisted derives in their written order\n" +
		"# exclude: gitignore-style globs skipped when walking the project\n\n"

	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return path, sderrors.New(sderrors.IOFailure, "cannot write "+path, err)
	}
	return path, nil
}

// Check strictly decodes the config file at path and reports every problem
// found: unknown keys, values of the wrong type and a malformed order.
// A file that is not valid TOML is returned as an error.
func Check(path string) ([]*ConfigError, error) {
	var raw struct {
		Order    interface{} `toml:"order"`
		Preserve interface{} `toml:"preserve"`
		Exclude  interface{} `toml:"exclude"`
	}
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, sderrors.New(sderrors.ConfigInvalid, "cannot parse "+path, err)
	}

	var problems []*ConfigError
	for _, key := range md.Undecoded() {
		problems = append(problems, &ConfigError{Field: key.String(), Message: "unknown key"})
	}

	if md.IsDefined("order") {
		names, ok := stringList(raw.Order, true)
		if !ok {
			problems = append(problems, &ConfigError{Field: "order", Message: "must be a string or an array of strings"})
		} else if _, err := order.Build(names); err != nil {
			problems = append(problems, &ConfigError{Field: "order", Message: err.Error()})
		}
	}
	if md.IsDefined("preserve") {
		if _, ok := raw.Preserve.(bool); !ok {
			problems = append(problems, &ConfigError{Field: "preserve", Message: "must be a boolean"})
		}
	}
	if md.IsDefined("exclude") {
		if _, ok := stringList(raw.Exclude, false); !ok {
			problems = append(problems, &ConfigError{Field: "exclude", Message: "must be an array of strings"})
		}
	}

	return problems, nil
}

func stringList(v interface{}, allowString bool) ([]string, bool) {
	switch t := v.(type) {
	case string:
		if !allowString {
			return nil, false
		}
		return order.ParseList(t), true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s': %s", e.Field, e.Message)
}
