package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultReferenceKey = "set1"
	DefaultConcurrency  = 1

	DefaultCandidatesSource = "data/test_set.tsv"
	DefaultClosureSource    = "data/closures.tsv"
	DelimiterAuto           = "auto"

	DefaultNeo4jDatabase     = "neo4j"
	DefaultNeo4jPoolSize     = 10
	DefaultNeo4jConnTimeout  = 10 * time.Second
	DefaultNeo4jClosureQuery = "MATCH (t:Term)-[:SUBCLASS_OF*0..]->(a:Term)\nRETURN t.id AS term, a.id AS related"

	DefaultPostgresPort             = 5432
	DefaultPostgresDatabase         = "termsim"
	DefaultPostgresSSLMode          = "disable"
	DefaultPostgresMaxOpenConns     = 4
	DefaultPostgresConnectTimeout   = 10 * time.Second
	DefaultPostgresStatementTimeout = 30 * time.Second
	DefaultPostgresClosureQuery     = "SELECT term, related FROM term_closure"

	DefaultMinIORegion = "us-east-1"

	DefaultKafkaAcks         = "all"
	DefaultKafkaWriteTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultMetricsNamespace = "termsim"
)

// Enumerated setting values.
const (
	EmptyPolicyIdentical = "identical"
	EmptyPolicyError     = "error"

	ClosureBackendFile     = "file"
	ClosureBackendNeo4j    = "neo4j"
	ClosureBackendPostgres = "postgres"

	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
	OutputTSV   = "tsv"
)

// NewDefaultConfig returns a Config with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{Scoring: ScoringConfig{ReferenceKey: DefaultReferenceKey}}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// that have already been set (non-zero values) are left unchanged so that
// explicit configuration always wins.  Booleans default to false.
//
// Scoring.ReferenceKey is left alone: "" is a valid set id, so its default is
// applied by the loader only when the key is absent from every source.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Scoring ───────────────────────────────────────────────────────────────
	if cfg.Scoring.EmptyPolicy == "" {
		cfg.Scoring.EmptyPolicy = EmptyPolicyIdentical
	}
	if cfg.Scoring.Concurrency == 0 {
		cfg.Scoring.Concurrency = DefaultConcurrency
	}

	// ── Sources ───────────────────────────────────────────────────────────────
	if cfg.Sources.Candidates == "" {
		cfg.Sources.Candidates = DefaultCandidatesSource
	}
	if cfg.Sources.Closure == "" {
		cfg.Sources.Closure = DefaultClosureSource
	}
	if cfg.Sources.Delimiter == "" {
		cfg.Sources.Delimiter = DelimiterAuto
	}

	// ── Closure ───────────────────────────────────────────────────────────────
	if cfg.Closure.Backend == "" {
		cfg.Closure.Backend = ClosureBackendFile
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = DefaultNeo4jPoolSize
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = DefaultNeo4jConnTimeout
	}
	if cfg.Neo4j.ClosureQuery == "" {
		cfg.Neo4j.ClosureQuery = DefaultNeo4jClosureQuery
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = DefaultPostgresDatabase
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if cfg.Postgres.ConnectTimeout == 0 {
		cfg.Postgres.ConnectTimeout = DefaultPostgresConnectTimeout
	}
	if cfg.Postgres.StatementTimeout == 0 {
		cfg.Postgres.StatementTimeout = DefaultPostgresStatementTimeout
	}
	if cfg.Postgres.ClosureQuery == "" {
		cfg.Postgres.ClosureQuery = DefaultPostgresClosureQuery
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	// Endpoint stays empty: s3:// sources are disabled until one is set.
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = DefaultMinIORegion
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	// Brokers stay empty: kafka:// outputs are disabled until one is set.
	if cfg.Kafka.Acks == "" {
		cfg.Kafka.Acks = DefaultKafkaAcks
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = DefaultKafkaWriteTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Output ────────────────────────────────────────────────────────────────
	if cfg.Output.Format == "" {
		cfg.Output.Format = OutputText
	}

	cfg.Normalize()
}

//Personal.AI order the ending
