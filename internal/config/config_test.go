package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riptide/internal/common"
	"riptide/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 7001
feed:
  address: ":7002"
pairs:
  - base: BTC
    quote: USDC
  - base: ETH
    quote: USDT
log_level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Address)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, ":7002", cfg.Feed.Address)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, []common.TradingPair{
		common.NewTradingPair(common.BTC, common.USDC),
		common.NewTradingPair(common.ETH, common.USDT),
	}, cfg.TradingPairs())
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
pairs:
  - base: BTC
    quote: USDC
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAddress, cfg.Server.Address)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultFeedAddress, cfg.Feed.Address)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad_RequiresPairs(t *testing.T) {
	path := writeConfig(t, `log_level: info`)

	_, err := config.Load(path)
	assert.ErrorIs(t, err, config.ErrNoPairs)
}

func TestLoad_RejectsIncompletePair(t *testing.T) {
	path := writeConfig(t, `
pairs:
  - base: BTC
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, `
pairs:
  - base: BTC
    quote: USDC
log_level: shouting
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
