package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultTickInterval is how often `hg watch` refreshes when the config does
// not say otherwise.
const DefaultTickInterval = 500 * time.Millisecond

// Config represents the main configuration for hg.
type Config struct {
	BaseDir      string           `toml:"base_dir"`
	LogDir       string           `toml:"log_dir"`
	TickInterval string           `toml:"tick_interval"` // Go duration, e.g. "500ms"
	Database     DatabaseConfig   `toml:"database"`
	Encryption   EncryptionConfig `toml:"encryption"`
	Sound        SoundConfig      `toml:"sound"`
	Defaults     DefaultsConfig   `toml:"defaults"`
}

// EncryptionConfig holds paths to the age key pair used for encrypted exports.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	Armor          bool   `toml:"armor"` // PEM-armor encrypted exports
}

// DatabaseConfig represents configuration for the timer store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SoundConfig selects how expired timers are announced.
type SoundConfig struct {
	Type   string `toml:"type"`   // "bell" (default) or "none"
	Repeat int    `toml:"repeat"` // bells per alert; defaults to 1
}

// DefaultsConfig holds the options applied to new timers unless overridden
// on the command line.
type DefaultsConfig struct {
	LoopTimer        bool   `toml:"loop_timer"`
	ShowTimeElapsed  bool   `toml:"show_time_elapsed"`
	Sound            string `toml:"sound"`
	LoopSound        bool   `toml:"loop_sound"`
	CloseWhenExpired bool   `toml:"close_when_expired"`
}

// NewConfig creates a new Config rooted at baseDir with default paths.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:      baseDir,
		LogDir:       filepath.Join(baseDir, "log"),
		TickInterval: DefaultTickInterval.String(),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "hg.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "hg.key"),
		},
		Sound: SoundConfig{Type: "bell", Repeat: 1},
		Defaults: DefaultsConfig{
			Sound: "bell",
		},
	}
}

// Tick parses TickInterval. An empty value yields DefaultTickInterval.
func (c *Config) Tick() (time.Duration, error) {
	if c.TickInterval == "" {
		return DefaultTickInterval, nil
	}
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("parsing tick_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	return d, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
