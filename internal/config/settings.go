package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ioutils "github.com/handiism/dstask/internal/io"
)

// Settings holds all configuration options.
type Settings struct {
	// Connection
	Host           string  `json:"host" yaml:"host"`
	Account        string  `json:"account" yaml:"account"`
	Insecure       bool    `json:"insecure" yaml:"insecure"`
	RequestTimeout float64 `json:"request_timeout" yaml:"request_timeout"` // seconds

	// Sync loop
	PollInterval float64 `json:"poll_interval" yaml:"poll_interval"` // seconds

	// Session cache
	CacheSession bool   `json:"cache_session" yaml:"cache_session"`
	SessionFile  string `json:"session_file" yaml:"session_file"`

	// External credential provider (1Password CLI)
	OnePasswordItem  string `json:"op_item" yaml:"op_item"`
	OnePasswordVault string `json:"op_vault" yaml:"op_vault"`

	// Destination used when the session cache has none
	DefaultDestination string `json:"default_destination" yaml:"default_destination"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	sessionFile := "session.json"
	if dir, err := ioutils.ConfigDir(); err == nil {
		sessionFile = filepath.Join(dir, "session.json")
	}
	return &Settings{
		RequestTimeout: 30,
		PollInterval:   1,
		CacheSession:   true,
		SessionFile:    sessionFile,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := ioutils.ConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads settings from a JSON or YAML file.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file.
func (s *Settings) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return ioutils.WriteFileAtomic(path, data, ioutils.PrivateFileMode)
}

// ApplyEnv loads envFile (if it exists) into the process environment and
// then overrides fields from DSTASK_* variables. Variables already set in
// the environment win over the file.
func (s *Settings) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v, ok := os.LookupEnv("DSTASK_HOST"); ok {
		s.Host = v
	}
	if v, ok := os.LookupEnv("DSTASK_ACCOUNT"); ok {
		s.Account = v
	}
	if v, ok := os.LookupEnv("DSTASK_SESSION_FILE"); ok {
		s.SessionFile = v
	}
	if v, ok := os.LookupEnv("DSTASK_OP_ITEM"); ok {
		s.OnePasswordItem = v
	}
	if v, ok := os.LookupEnv("DSTASK_OP_VAULT"); ok {
		s.OnePasswordVault = v
	}
	if v, ok := os.LookupEnv("DSTASK_DESTINATION"); ok {
		s.DefaultDestination = v
	}

	var err error
	if s.Insecure, err = envBool("DSTASK_INSECURE", s.Insecure); err != nil {
		return err
	}
	if s.CacheSession, err = envBool("DSTASK_CACHE_SESSION", s.CacheSession); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("DSTASK_POLL_INTERVAL"); ok {
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return fmt.Errorf("DSTASK_POLL_INTERVAL: %w", perr)
		}
		s.PollInterval = f
	}
	return nil
}

// PollEvery returns the poll interval as a duration, never below 250ms.
func (s *Settings) PollEvery() time.Duration {
	d := time.Duration(s.PollInterval * float64(time.Second))
	if d < 250*time.Millisecond {
		return 250 * time.Millisecond
	}
	return d
}

// Timeout returns the request timeout as a duration, defaulting to 30s.
func (s *Settings) Timeout() time.Duration {
	if s.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.RequestTimeout * float64(time.Second))
}

// HasProvider reports whether an external credential provider is configured.
func (s *Settings) HasProvider() bool {
	return strings.TrimSpace(s.OnePasswordItem) != ""
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func envBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
