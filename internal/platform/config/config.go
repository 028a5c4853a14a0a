package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	pstrings "custody/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Ledger   LedgerConfig
}

// DatabaseConfig selects the persistence mode. An empty URL keeps every
// store in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the vesting-handle cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	HandleTTL    time.Duration
}

// KafkaConfig configures the audit sink. No brokers disables the outbox relay.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

// LedgerConfig carries the ledger construction parameters. They are parsed
// here and validated by the ledger itself.
type LedgerConfig struct {
	WaitedTS        uint64
	Token           domain.Address
	VestingRegistry domain.Address
	Admins          []domain.Address

	// Self is the ledger's own holder address on the in-process token.
	Self domain.Address
	// SeedBalance, when set, is minted to every initial admin and approved
	// for the ledger at startup.
	SeedBalance *big.Int
}

// DefaultSelfAddress is the ledger's holder address when none is configured.
var DefaultSelfAddress = common.HexToAddress("0x000000000000000000000000000000000000c057")

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	ledger, err := ledgerFromEnv()
	if err != nil {
		return Server{}, err
	}

	return Server{
		Addr:          getEnv("CUSTODY_ADDR", ":8080"),
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     getEnv("JWT_ISSUER", "custody"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "custody-api"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			HandleTTL:    getEnvDuration("REDIS_VESTING_HANDLE_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:      pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:        getEnv("KAFKA_AUDIT_TOPIC", "custody.audit"),
			PollInterval: getEnvDuration("AUDIT_OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    getEnvInt("AUDIT_OUTBOX_BATCH_SIZE", 100),
		},
		Ledger: ledger,
	}, nil
}

func ledgerFromEnv() (LedgerConfig, error) {
	var cfg LedgerConfig

	if raw := strings.TrimSpace(os.Getenv("CUSTODY_WAITED_TS")); raw != "" {
		ts, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return LedgerConfig{}, dErrors.New(dErrors.CodeInvalidInput, "CUSTODY_WAITED_TS must be a unix timestamp")
		}
		cfg.WaitedTS = ts
	}

	token, err := domain.ParseOptionalAddress(os.Getenv("CUSTODY_TOKEN"))
	if err != nil {
		return LedgerConfig{}, fmt.Errorf("CUSTODY_TOKEN: %w", err)
	}
	cfg.Token = token

	registry, err := domain.ParseOptionalAddress(os.Getenv("CUSTODY_VESTING_REGISTRY"))
	if err != nil {
		return LedgerConfig{}, fmt.Errorf("CUSTODY_VESTING_REGISTRY: %w", err)
	}
	cfg.VestingRegistry = registry

	for _, raw := range pstrings.DedupeAndTrimLower(strings.Split(os.Getenv("CUSTODY_ADMINS"), ",")) {
		admin, err := domain.ParseOptionalAddress(raw)
		if err != nil {
			return LedgerConfig{}, fmt.Errorf("CUSTODY_ADMINS %q: %w", raw, err)
		}
		cfg.Admins = append(cfg.Admins, admin)
	}

	self, err := domain.ParseOptionalAddress(os.Getenv("CUSTODY_SELF_ADDRESS"))
	if err != nil {
		return LedgerConfig{}, fmt.Errorf("CUSTODY_SELF_ADDRESS: %w", err)
	}
	if domain.IsZero(self) {
		self = DefaultSelfAddress
	}
	cfg.Self = self

	if raw := strings.TrimSpace(os.Getenv("CUSTODY_SEED_BALANCE")); raw != "" {
		seed, err := domain.ParseAmount(raw)
		if err != nil {
			return LedgerConfig{}, fmt.Errorf("CUSTODY_SEED_BALANCE: %w", err)
		}
		cfg.SeedBalance = seed
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
