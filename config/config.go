package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so config files can use "2s" / "10m" forms.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for toml decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler so defaults round-trip.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the venue service settings.
type Config struct {
	ListenAddress      string   `toml:"ListenAddress"`
	Environment        string   `toml:"Environment"`
	LogFile            string   `toml:"LogFile"`
	SettlementDelay    Duration `toml:"SettlementDelay"`
	SweepInterval      Duration `toml:"SweepInterval"`
	CompletedRetention Duration `toml:"CompletedRetention"`
	BotsEnabled        bool     `toml:"BotsEnabled"`
	BotInterval        Duration `toml:"BotInterval"`
}

func defaultConfig() *Config {
	return &Config{
		ListenAddress:      ":3000",
		Environment:        "local",
		SettlementDelay:    Duration(2 * time.Second),
		SweepInterval:      Duration(time.Minute),
		CompletedRetention: Duration(10 * time.Minute),
		BotsEnabled:        true,
		BotInterval:        Duration(6 * time.Second),
	}
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must not be empty")
	}
	if c.SettlementDelay < 0 {
		return fmt.Errorf("config: SettlementDelay must not be negative")
	}
	if c.SweepInterval.Std() <= 0 {
		return fmt.Errorf("config: SweepInterval must be positive")
	}
	if c.CompletedRetention.Std() <= 0 {
		return fmt.Errorf("config: CompletedRetention must be positive")
	}
	if c.BotsEnabled && c.BotInterval.Std() <= 0 {
		return fmt.Errorf("config: BotInterval must be positive when bots are enabled")
	}
	return nil
}
