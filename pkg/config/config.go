package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/esview/pkg/core"
)

//go:embed config.toml.sample
var configTemplate string

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

type Config struct {
	DefaultPreset   string            `toml:"default_preset"`
	Presets         map[string]Preset `toml:"presets"`
	Timeout         Duration          `toml:"timeout"`
	MaxRetries      int               `toml:"max_retries"`
	MaxResults      int               `toml:"max_results"`
	PageSizes       []int             `toml:"page_sizes"`
	DefaultPageSize int               `toml:"default_page_size"`
	Web             WebConfig         `toml:"web"`
	Session         SessionConfig     `toml:"session"`
}

// Preset is a named cluster endpoint offered in the connection selector.
type Preset struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port,omitempty"`
	Scheme string `toml:"scheme,omitempty"`
}

// Connection converts the preset into a connection, filling defaults.
func (p Preset) Connection() core.Connection {
	return core.Connection{Host: p.Host, Port: p.Port, Scheme: p.Scheme}.WithDefaults()
}

type WebConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	DisableGzip bool   `toml:"disable_gzip,omitempty"`
}

type SessionConfig struct {
	Backend   string   `toml:"backend"`
	RedisAddr string   `toml:"redis_addr,omitempty"`
	RedisDB   int      `toml:"redis_db,omitempty"`
	TTL       Duration `toml:"ttl"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// newConfig returns a configuration holding the default limits. Files are
// decoded on top of it, so a key present in the file always wins, zero
// included.
func newConfig() *Config {
	return &Config{
		Timeout:         Duration{30 * time.Second},
		MaxRetries:      3,
		MaxResults:      100,
		DefaultPageSize: 50,
		Web:             WebConfig{Port: 8501},
		Session:         SessionConfig{TTL: Duration{12 * time.Hour}},
	}
}

func GetDefaultConfig() *Config {
	cfg := newConfig()
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty presets, page sizes and names. Numeric limits
// are left alone: their defaults come from newConfig and Validate rejects
// out of range values.
func (c *Config) ApplyDefaults() {
	if len(c.Presets) == 0 {
		c.Presets = map[string]Preset{
			"local": {Host: "localhost", Port: core.DefaultPort, Scheme: core.DefaultScheme},
		}
	}
	if c.DefaultPreset == "" {
		c.DefaultPreset = c.PresetNames()[0]
	}
	if len(c.PageSizes) == 0 {
		c.PageSizes = []int{20, 50, 100}
	}
	if c.Web.Host == "" {
		c.Web.Host = "localhost"
	}
	if c.Session.Backend == "" {
		c.Session.Backend = SessionMemory
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if _, ok := c.Presets[c.DefaultPreset]; !ok {
		return fmt.Errorf("default_preset %q is not a configured preset", c.DefaultPreset)
	}
	for name, p := range c.Presets {
		if err := p.Connection().Validate(); err != nil {
			return fmt.Errorf("presets.%s: %w", name, err)
		}
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("max_results must be positive, got %d", c.MaxResults)
	}
	for _, size := range c.PageSizes {
		if size < 1 {
			return fmt.Errorf("page_sizes must be positive, got %d", size)
		}
	}
	found := false
	for _, size := range c.PageSizes {
		if size == c.DefaultPageSize {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("default_page_size %d is not one of page_sizes %v", c.DefaultPageSize, c.PageSizes)
	}
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be between 1 and 65535, got %d", c.Web.Port)
	}
	if c.Session.TTL.Duration <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	switch c.Session.Backend {
	case SessionMemory:
	case SessionRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("session.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("session.backend must be %q or %q, got %q", SessionMemory, SessionRedis, c.Session.Backend)
	}
	return nil
}

// LoadConfig reads the configuration file. A missing file yields the default
// configuration.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := newConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveTemplateConfig writes the commented sample configuration.
func SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// PresetNames returns the preset names in display order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveConnection picks the endpoint to talk to. A non-empty host selects
// free entry (port and scheme default when empty); otherwise the named preset,
// or the default preset when preset is empty, is used.
func (c *Config) ResolveConnection(preset, host, port, scheme string) (core.Connection, error) {
	var conn core.Connection

	if host = strings.TrimSpace(host); host != "" {
		conn.Host = host
		if port = strings.TrimSpace(port); port != "" {
			n, err := strconv.Atoi(port)
			if err != nil {
				return core.Connection{}, fmt.Errorf("invalid port %q", port)
			}
			conn.Port = n
		}
		conn.Scheme = scheme
	} else {
		if preset == "" {
			preset = c.DefaultPreset
		}
		p, ok := c.Presets[preset]
		if !ok {
			return core.Connection{}, fmt.Errorf("unknown preset %q", preset)
		}
		conn = p.Connection()
	}

	conn = conn.WithDefaults()
	if err := conn.Validate(); err != nil {
		return core.Connection{}, err
	}
	return conn, nil
}

// GetConfigDir returns the configuration directory for esview
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "esview"), nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
