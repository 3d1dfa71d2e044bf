// Package config handles loading the taskmgr configuration.
//
// Values are layered: built-in defaults, then config.toml, then a .env file
// in the working directory, then the process environment. Command-line flags
// are applied by the caller on top of the result.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ErrInvalid is returned when a configured value is out of range.
var ErrInvalid = errors.New("invalid config")

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// DefaultKey is the slot the task collection is stored under.
const DefaultKey = "taskManagerTasks"

// Config represents the config.toml file.
type Config struct {
	Storage  Storage  `toml:"storage"`
	Notify   Notify   `toml:"notify"`
	Log      Log      `toml:"log"`
	Defaults Defaults `toml:"defaults"`
}

// Storage selects where the task collection lives.
type Storage struct {
	// Backend is one of sqlite, file or memory.
	Backend string `toml:"backend"`

	// Path is the database file (sqlite) or directory (file).
	// Empty means the XDG data directory.
	Path string `toml:"path"`

	// Key is the slot name inside the backend.
	Key string `toml:"key"`
}

// Notify configures transient notifications.
type Notify struct {
	Duration time.Duration `toml:"duration"`
}

// Log configures the log file.
type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Defaults holds values used when the user does not pick one.
type Defaults struct {
	Priority string `toml:"priority"`
	Filter   string `toml:"filter"`
}

// Options tells Load where to look.
type Options struct {
	// ConfigPath overrides the config.toml location.
	ConfigPath string

	// DotenvPath overrides the .env location. Defaults to ".env".
	DotenvPath string

	// Getenv reads the process environment. Defaults to os.Getenv.
	Getenv func(string) string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Backend: BackendSQLite,
			Key:     DefaultKey,
		},
		Notify:   Notify{Duration: 3 * time.Second},
		Log:      Log{Level: "info"},
		Defaults: Defaults{Priority: "medium", Filter: "all"},
	}
}

// Load builds the effective configuration. Missing files are not errors.
func Load(opts Options) (*Config, error) {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	cfg := Default()

	path := opts.ConfigPath
	if path == "" {
		path = opts.Getenv("TASKMGR_CONFIG")
	}
	if path == "" {
		var err error
		path, err = DefaultConfigPath(opts.Getenv)
		if err != nil {
			return nil, err
		}
	}
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}

	dotenvPath := opts.DotenvPath
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	dotenv, err := godotenv.Read(dotenvPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
	}

	lookup := func(name string) string {
		if v := opts.Getenv(name); v != "" {
			return v
		}
		return dotenv[name]
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) string) error {
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(lookup(name)); v != "" {
			*dst = v
		}
	}

	setString("TASKMGR_STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("TASKMGR_STORAGE_PATH", &cfg.Storage.Path)
	setString("TASKMGR_STORAGE_KEY", &cfg.Storage.Key)
	setString("TASKMGR_LOG_LEVEL", &cfg.Log.Level)
	setString("TASKMGR_LOG_FILE", &cfg.Log.File)
	setString("TASKMGR_DEFAULT_PRIORITY", &cfg.Defaults.Priority)
	setString("TASKMGR_DEFAULT_FILTER", &cfg.Defaults.Filter)

	if v := strings.TrimSpace(lookup("TASKMGR_NOTIFY_DURATION")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: TASKMGR_NOTIFY_DURATION: %v", ErrInvalid, err)
		}
		cfg.Notify.Duration = d
	}
	return nil
}

// Validate checks the value ranges that cannot be expressed in TOML.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("%w: storage backend %q (want sqlite, file or memory)", ErrInvalid, c.Storage.Backend)
	}

	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("%w: storage key is empty", ErrInvalid)
	}

	if c.Notify.Duration <= 0 {
		return fmt.Errorf("%w: notify duration must be positive, got %s", ErrInvalid, c.Notify.Duration)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}

	switch strings.ToLower(c.Defaults.Priority) {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("%w: default priority %q", ErrInvalid, c.Defaults.Priority)
	}

	switch strings.ToLower(c.Defaults.Filter) {
	case "all", "completed", "pending":
	default:
		return fmt.Errorf("%w: default filter %q", ErrInvalid, c.Defaults.Filter)
	}

	return nil
}

// StoragePath returns the configured storage path, falling back to the
// XDG data directory.
func (c *Config) StoragePath(getenv func(string) string) (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := DataDir(getenv)
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == BackendFile {
		return filepath.Join(dir, "tasks"), nil
	}
	return filepath.Join(dir, "taskmgr.db"), nil
}

// LogPath returns the configured log file, falling back to the XDG state
// directory.
func (c *Config) LogPath(getenv func(string) string) (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := xdgDir(getenv, "XDG_STATE_HOME", ".local", "state")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskmgr.log"), nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	type encoded struct {
		Storage  Storage           `toml:"storage"`
		Notify   map[string]string `toml:"notify"`
		Log      Log               `toml:"log"`
		Defaults Defaults          `toml:"defaults"`
	}
	return toml.NewEncoder(w).Encode(encoded{
		Storage:  c.Storage,
		Notify:   map[string]string{"duration": c.Notify.Duration.String()},
		Log:      c.Log,
		Defaults: c.Defaults,
	})
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/taskmgr/config.toml.
func DefaultConfigPath(getenv func(string) string) (string, error) {
	dir, err := xdgDir(getenv, "XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns $XDG_DATA_HOME/taskmgr.
func DataDir(getenv func(string) string) (string, error) {
	return xdgDir(getenv, "XDG_DATA_HOME", ".local", "share")
}

func xdgDir(getenv func(string) string, envName string, homeRel ...string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	base := getenv(envName)
	if base == "" {
		home := getenv("HOME")
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("get home directory: %w", err)
			}
		}
		base = filepath.Join(append([]string{home}, homeRel...)...)
	}
	return filepath.Join(base, "taskmgr"), nil
}
