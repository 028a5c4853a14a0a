package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"CUSTODY_ADDR", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS",
		"CUSTODY_WAITED_TS", "CUSTODY_TOKEN", "CUSTODY_VESTING_REGISTRY", "CUSTODY_ADMINS",
		"CUSTODY_SELF_ADDRESS", "CUSTODY_SEED_BALANCE"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 24*time.Hour, cfg.Redis.HandleTTL)
	assert.Zero(t, cfg.Ledger.WaitedTS)
	assert.Empty(t, cfg.Ledger.Admins)
	assert.Equal(t, DefaultSelfAddress, cfg.Ledger.Self)
	assert.Nil(t, cfg.Ledger.SeedBalance)
}

func TestFromEnv_Ledger(t *testing.T) {
	t.Setenv("CUSTODY_WAITED_TS", "1700000000")
	t.Setenv("CUSTODY_TOKEN", "0x0000000000000000000000000000000000000070")
	t.Setenv("CUSTODY_VESTING_REGISTRY", "0x0000000000000000000000000000000000000071")
	t.Setenv("CUSTODY_ADMINS", " 0x00000000000000000000000000000000000000A1, 0x00000000000000000000000000000000000000a1 ,,0x00000000000000000000000000000000000000a2")
	t.Setenv("KAFKA_BROKERS", "localhost:9092, localhost:9093")
	t.Setenv("CUSTODY_SEED_BALANCE", "1000000000000000000000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_700_000_000), cfg.Ledger.WaitedTS)
	assert.Equal(t, common.HexToAddress("0x70"), cfg.Ledger.Token)
	assert.Equal(t, common.HexToAddress("0x71"), cfg.Ledger.VestingRegistry)
	assert.Equal(t, []common.Address{common.HexToAddress("0xa1"), common.HexToAddress("0xa2")}, cfg.Ledger.Admins)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.Kafka.Brokers)
	require.NotNil(t, cfg.Ledger.SeedBalance)
	assert.Equal(t, "1000000000000000000000", cfg.Ledger.SeedBalance.String())
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("waited ts", func(t *testing.T) {
		t.Setenv("CUSTODY_WAITED_TS", "soon")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("admin address", func(t *testing.T) {
		t.Setenv("CUSTODY_WAITED_TS", "")
		t.Setenv("CUSTODY_ADMINS", "0xnothex")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
