// Package config resolves where the database lives and how the tool logs,
// from defaults, an optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDatabaseFile is the database file name inside the data directory.
	DefaultDatabaseFile = "parols.dbrs"
	// DefaultConfigFile is the config file name inside the data directory.
	DefaultConfigFile = "config.yaml"

	envConfig   = "PAROL_CONFIG"
	envDataDir  = "PAROL_DATA_DIR"
	envDatabase = "PAROL_DATABASE"
	envLogLevel = "PAROL_LOG_LEVEL"
)

// Options holds the configuration values for the application.
type Options struct {
	// DataDir is the directory holding the database, lock and config files.
	DataDir string `yaml:"data_dir"`

	// DatabaseFile is the database file name, or an absolute path.
	DatabaseFile string `yaml:"database_file"`

	// LogLevel is a zap level name.
	LogLevel string `yaml:"log_level"`

	// LockTimeout bounds how long a command waits for the database lock.
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// Default returns the built-in configuration rooted at $HOME/.config/parol.
func Default() (*Options, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Options{
		DataDir:      filepath.Join(home, ".config", "parol"),
		DatabaseFile: DefaultDatabaseFile,
		LogLevel:     "warn",
		LockTimeout:  10 * time.Second,
	}, nil
}

// Parse builds Options from defaults, then the config file, then the
// environment. An empty configPath means PAROL_CONFIG or the default file in
// the data directory; only an explicitly named file must exist.
func Parse(configPath string) (*Options, error) {
	options, err := Default()
	if err != nil {
		return nil, err
	}

	if v := os.Getenv(envDataDir); v != "" {
		options.DataDir = v
	}
	if configPath == "" {
		configPath = os.Getenv(envConfig)
	}
	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(options.DataDir, DefaultConfigFile)
	}

	if err := options.loadFile(configPath); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if v := os.Getenv(envDataDir); v != "" {
		options.DataDir = v
	}
	if v := os.Getenv(envDatabase); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", envDatabase, err)
		}
		options.DatabaseFile = abs
	}
	if v := os.Getenv(envLogLevel); v != "" {
		options.LogLevel = v
	}

	return options, nil
}

func (o *Options) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// DatabasePath returns the full path of the database file.
func (o *Options) DatabasePath() string {
	if filepath.IsAbs(o.DatabaseFile) {
		return o.DatabaseFile
	}
	return filepath.Join(o.DataDir, o.DatabaseFile)
}

// EnsureDataDir creates the data directory if it is absent and returns it.
func (o *Options) EnsureDataDir() (string, error) {
	if err := os.MkdirAll(o.DataDir, 0o700); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return o.DataDir, nil
}
