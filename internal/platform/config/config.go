package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the core reads from the environment. Every
// threshold is configuration, not a constant: the headline 15-minute RTO and
// 1-minute RPO are contractual, the rest are operational tuning knobs.
type Config struct {
	Addr     string `env:"REPLICARE_ADDR" envDefault:":8080"`
	LogLevel string `env:"REPLICARE_LOG_LEVEL" envDefault:"info"`

	// Operator API auth.
	JWTSigningKey string `env:"REPLICARE_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// Regions. PrimaryRegion is the current data-residency origin;
	// SecondaryRegion is the failover target.
	PrimaryRegion   string `env:"REPLICARE_PRIMARY_REGION" envDefault:"ca-central-1"`
	SecondaryRegion string `env:"REPLICARE_SECONDARY_REGION" envDefault:"ca-west-1"`

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	Compliance  ComplianceConfig
	Replication ReplicationConfig
	Audit       AuditConfig
}

// PostgresConfig configures the durable store. An empty URL keeps the core on
// in-memory stores, which is the dev and test default.
type PostgresConfig struct {
	URL string `env:"REPLICARE_POSTGRES_URL"`
}

// RedisConfig configures the latest-known snapshot/report cache read by the
// dashboard collaborator. Empty URL disables the cache.
type RedisConfig struct {
	URL          string        `env:"REPLICARE_REDIS_URL"`
	PoolSize     int           `env:"REPLICARE_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REPLICARE_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REPLICARE_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REPLICARE_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REPLICARE_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the alert/notification publisher. Empty brokers
// disable Kafka fan-out (events still land in the audit trail).
type KafkaConfig struct {
	Brokers    []string `env:"REPLICARE_KAFKA_BROKERS"`
	AlertTopic string   `env:"REPLICARE_KAFKA_ALERT_TOPIC" envDefault:"replicare.alerts"`
}

// ComplianceConfig drives the validator rule set and the scorer.
type ComplianceConfig struct {
	RequiredEncryptionLevel string        `env:"REPLICARE_REQUIRED_ENCRYPTION" envDefault:"AES-256"`
	ConsentTTL              time.Duration `env:"REPLICARE_CONSENT_TTL" envDefault:"8760h"`
	AlertThreshold          float64       `env:"REPLICARE_SCORE_ALERT_THRESHOLD" envDefault:"100"`
	AuditCycle              string        `env:"REPLICARE_AUDIT_CYCLE" envDefault:"@every 5m"`
	ScoreWindow             time.Duration `env:"REPLICARE_SCORE_WINDOW" envDefault:"24h"`
}

// ReplicationConfig bounds the replication health state machine.
type ReplicationConfig struct {
	WarningLag          time.Duration `env:"REPLICARE_WARNING_LAG" envDefault:"5m"`
	BreachLag           time.Duration `env:"REPLICARE_BREACH_LAG" envDefault:"15m"`
	RPO                 time.Duration `env:"REPLICARE_RPO" envDefault:"1m"`
	MaxConsecutiveFails int           `env:"REPLICARE_MAX_CONSECUTIVE_FAILS" envDefault:"3"`
	RecoveryConfirms    int           `env:"REPLICARE_RECOVERY_CONFIRMS" envDefault:"2"`
	StableConfirms      int           `env:"REPLICARE_STABLE_CONFIRMS" envDefault:"3"`
	SampleDeadline      time.Duration `env:"REPLICARE_SAMPLE_DEADLINE" envDefault:"2m"`
	WatchdogCycle       string        `env:"REPLICARE_WATCHDOG_CYCLE" envDefault:"@every 1m"`
}

// AuditConfig bounds the append-only trail.
type AuditConfig struct {
	Retention       time.Duration `env:"REPLICARE_AUDIT_RETENTION" envDefault:"61320h"` // 7 years
	CompactionCycle string        `env:"REPLICARE_COMPACTION_CYCLE" envDefault:"@daily"`
	AppendRetries   uint64        `env:"REPLICARE_AUDIT_APPEND_RETRIES" envDefault:"5"`
	WorkerBuffer    int           `env:"REPLICARE_AUDIT_WORKER_BUFFER" envDefault:"1024"`
}

// FromEnv builds the full Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
