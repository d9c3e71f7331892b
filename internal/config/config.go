package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"riptide/internal/common"
)

const (
	DefaultAddress     = "0.0.0.0"
	DefaultPort        = 9001
	DefaultFeedAddress = ":9002"
)

var ErrNoPairs = errors.New("config: at least one trading pair is required")

type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type FeedConfig struct {
	Address string `yaml:"address"`
}

type PairConfig struct {
	Base  string `yaml:"base"`
	Quote string `yaml:"quote"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Feed     FeedConfig   `yaml:"feed"`
	Pairs    []PairConfig `yaml:"pairs"`
	LogLevel string       `yaml:"log_level"`
}

// Load reads and validates the engine configuration. Trading pairs are
// fixed at startup; the engine never creates books on demand.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{
		Server:   ServerConfig{Address: DefaultAddress, Port: DefaultPort},
		Feed:     FeedConfig{Address: DefaultFeedAddress},
		LogLevel: zerolog.LevelInfoValue,
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if len(cfg.Pairs) == 0 {
		return nil, ErrNoPairs
	}
	for _, pair := range cfg.Pairs {
		if pair.Base == "" || pair.Quote == "" {
			return nil, fmt.Errorf("config: pair %q/%q is incomplete", pair.Base, pair.Quote)
		}
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// TradingPairs converts the configured pair list into book keys.
func (c *Config) TradingPairs() []common.TradingPair {
	pairs := make([]common.TradingPair, len(c.Pairs))
	for i, pair := range c.Pairs {
		pairs[i] = common.NewTradingPair(common.Asset(pair.Base), common.Asset(pair.Quote))
	}
	return pairs
}

// Level returns the parsed log level. Load already validated it.
func (c *Config) Level() zerolog.Level {
	level, _ := zerolog.ParseLevel(c.LogLevel)
	return level
}
