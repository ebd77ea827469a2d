package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	LogFile       string `toml:"LogFile"`
	// OwnerAddress bootstraps the market owner on first start (0x-prefixed
	// hex, 20 bytes). Ignored once an owner is persisted.
	OwnerAddress string `toml:"OwnerAddress"`
	// FeeRecipient optionally seeds the platform fee recipient at bootstrap.
	FeeRecipient string `toml:"FeeRecipient"`
	// InitialFee optionally seeds the flat fee (decimal string, smallest
	// currency unit). Bounded by the fee ceiling.
	InitialFee string `toml:"InitialFee"`
}

// Load reads the configuration at path, writing a commented default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8646"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./tunemint-data"
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.OwnerAddress) == "" {
		return fmt.Errorf("config: OwnerAddress is required")
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	content := `# tunemint daemon configuration
ListenAddress = ":8646"
DataDir = "./tunemint-data"
LogFile = ""

# Market owner, bootstrapped on first start (0x-prefixed hex, 20 bytes).
OwnerAddress = ""

# Optional fee policy seed.
FeeRecipient = ""
InitialFee = "0"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("config: write default %s: %w", path, err)
	}
	return nil, fmt.Errorf("config: wrote default config to %s; set OwnerAddress and restart", path)
}
