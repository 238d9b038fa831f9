package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "webtally/internal/platform/errors"
)

const (
	dataDirName    = ".webtally"
	configFileName = "config.yaml"
)

type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Owner   string        `yaml:"owner"`
}

type SyncConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type TrackingConfig struct {
	IdleCheck     time.Duration `yaml:"idle_check"`
	EmitInterval  time.Duration `yaml:"emit_interval"`
	IdleThreshold time.Duration `yaml:"idle_threshold"`
}

type FocusConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"`
}

type BlockingConfig struct {
	Backend      string `yaml:"backend"`
	PluginBinary string `yaml:"plugin_binary"`
	RedirectURL  string `yaml:"redirect_url"`
}

type HTTPConfig struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Home     string         `yaml:"-"`
	Timezone string         `yaml:"timezone"`
	Remote   RemoteConfig   `yaml:"remote"`
	Sync     SyncConfig     `yaml:"sync"`
	Tracking TrackingConfig `yaml:"tracking"`
	Focus    FocusConfig    `yaml:"focus"`
	Blocking BlockingConfig `yaml:"blocking"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`

	DataDir    string `yaml:"-"`
	DBPath     string `yaml:"-"`
	SocketPath string `yaml:"-"`
	PIDPath    string `yaml:"-"`
	LogPath    string `yaml:"-"`
	RulesPath  string `yaml:"-"`
	ReportsDir string `yaml:"-"`
}

func Default() Config {
	return Config{
		Remote: RemoteConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			Interval:   30 * time.Minute,
			StaleAfter: time.Hour,
		},
		Tracking: TrackingConfig{
			IdleCheck:     5 * time.Second,
			EmitInterval:  10 * time.Second,
			IdleThreshold: 30 * time.Second,
		},
		Focus: FocusConfig{CheckInterval: time.Minute},
		Blocking: BlockingConfig{
			Backend:     "file",
			RedirectURL: "http://127.0.0.1:5002/blocked",
		},
		HTTP: HTTPConfig{
			Listen:         "127.0.0.1:5002",
			AllowedOrigins: []string{"chrome-extension://*", "moz-extension://*"},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// New returns the default configuration rooted at home.
func New(home string) (Config, error) {
	if strings.TrimSpace(home) == "" {
		return Config{}, fmt.Errorf("%w: home path is required", apperrors.ErrInvalidInput)
	}
	cfg := Default()
	cfg.derivePaths(home)
	return cfg, nil
}

// Load reads <home>/.webtally/config.yaml on top of the defaults. A missing
// file is not an error.
func Load(home string) (Config, error) {
	cfg, err := New(home)
	if err != nil {
		return Config{}, err
	}
	raw, err := os.ReadFile(cfg.FilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) FilePath() string {
	return filepath.Join(c.DataDir, configFileName)
}

func (c Config) Validate() error {
	positive := map[string]time.Duration{
		"remote.timeout":          c.Remote.Timeout,
		"sync.interval":           c.Sync.Interval,
		"sync.stale_after":        c.Sync.StaleAfter,
		"tracking.idle_check":     c.Tracking.IdleCheck,
		"tracking.emit_interval":  c.Tracking.EmitInterval,
		"tracking.idle_threshold": c.Tracking.IdleThreshold,
		"focus.check_interval":    c.Focus.CheckInterval,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%w: %s must be positive", apperrors.ErrInvalidInput, name)
		}
	}
	switch c.Blocking.Backend {
	case "file":
	case "plugin":
		if strings.TrimSpace(c.Blocking.PluginBinary) == "" {
			return fmt.Errorf("%w: blocking.plugin_binary is required for the plugin backend", apperrors.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown blocking.backend %q", apperrors.ErrInvalidInput, c.Blocking.Backend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone used for day keys.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", apperrors.ErrInvalidInput, c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) derivePaths(home string) {
	c.Home = home
	c.DataDir = filepath.Join(home, dataDirName)
	c.DBPath = filepath.Join(c.DataDir, "webtally.db")
	c.SocketPath = filepath.Join(c.DataDir, "daemon.sock")
	c.PIDPath = filepath.Join(c.DataDir, "daemon.pid")
	c.LogPath = filepath.Join(c.DataDir, "daemon.log")
	c.RulesPath = filepath.Join(c.DataDir, "block-rules.json")
	c.ReportsDir = filepath.Join(home, "reports")
}
