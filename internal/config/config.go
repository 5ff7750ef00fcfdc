// Package config loads and saves the actas settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DirName is the settings directory under the user's home.
const DirName = ".actas"

// Config is the settings file.
type Config struct {
	Executive Executive `yaml:"executive"`

	// Database is the record store path.
	Database string `yaml:"database"`

	// ExportDir receives regenerated masters and backup archives.
	ExportDir string `yaml:"export_dir"`

	// Timezone is the IANA zone for local visit timestamps. Empty means
	// the system zone.
	Timezone string `yaml:"timezone"`

	// ClientEnvironment is recorded in each seal.
	ClientEnvironment string `yaml:"client_environment,omitempty"`

	// Renderer is the PDF renderer command line. The record is written to
	// its stdin as JSON; the PDF is read from its stdout.
	Renderer []string `yaml:"renderer,omitempty,flow"`

	Master Master `yaml:"master"`
	Backup Backup `yaml:"backup"`
}

// Executive is the field agent operating this installation.
type Executive struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Master configures the spreadsheet synchronizer.
type Master struct {
	Filename  string        `yaml:"filename"`
	IOTimeout time.Duration `yaml:"io_timeout"`
	// AutoSync reconciles the master after every capture.
	AutoSync bool `yaml:"auto_sync"`
}

// Backup configures the scheduled backup.
type Backup struct {
	Auto          bool `yaml:"auto"`
	IntervalHours int  `yaml:"interval_hours"`
	// NoticeWindow throttles the backup notice.
	NoticeWindow time.Duration `yaml:"notice_window"`
}

// Interval returns IntervalHours as a duration.
func (b Backup) Interval() time.Duration {
	return time.Duration(b.IntervalHours) * time.Hour
}

// Dir returns the settings directory, ~/.actas.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns ~/.actas/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns settings rooted at dir.
func Default(dir string) Config {
	return Config{
		Database:  filepath.Join(dir, "actas.db"),
		ExportDir: filepath.Join(dir, "exports"),
		Master: Master{
			Filename:  "Actas_Master.xlsx",
			IOTimeout: 30 * time.Second,
			AutoSync:  true,
		},
		Backup: Backup{
			Auto:          true,
			IntervalHours: 24,
			NoticeWindow:  24 * time.Hour,
		},
	}
}

// Load reads the settings at path over the defaults for its directory.
// A missing file yields the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("database path is empty")
	}
	if c.Backup.IntervalHours < 1 {
		return fmt.Errorf("backup.interval_hours must be at least 1, got %d", c.Backup.IntervalHours)
	}
	if c.Master.IOTimeout < 0 {
		return fmt.Errorf("master.io_timeout must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}
