// Package config defines all configuration structures for termsim.  No I/O or
// parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/turtacn/termsim/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ScoringConfig holds the comparison parameters.
type ScoringConfig struct {
	ReferenceKey     string `mapstructure:"reference_key"`
	ExcludeReference bool   `mapstructure:"exclude_reference"`
	EmptyPolicy      string `mapstructure:"empty_policy"` // "identical" | "error"
	Concurrency      int    `mapstructure:"concurrency"`
}

// SourcesConfig names the candidate and closure record sources.  Each is a
// local path, a file:// URI, an s3://bucket/key URI or "-" for stdin.
type SourcesConfig struct {
	Candidates string `mapstructure:"candidates"`
	Closure    string `mapstructure:"closure"`
	Delimiter  string `mapstructure:"delimiter"` // "auto" | "tab" | "comma" | single character
}

// ClosureConfig selects where the closure relation is read from.  With the
// file backend the relation comes from sources.closure.
type ClosureConfig struct {
	Backend string `mapstructure:"backend"` // "file" | "neo4j" | "postgres"
}

// Neo4jConfig holds Neo4j / term-graph connection parameters.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	// FetchSize is records per pull; 0 keeps the driver default, -1 pulls all.
	FetchSize             int           `mapstructure:"fetch_size"`
	// ClosureQuery is a Cypher query returning term and related columns.
	ClosureQuery          string        `mapstructure:"closure_query"`
}

// PostgresConfig holds PostgreSQL parameters for a relational closure table.
type PostgresConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Database         string        `mapstructure:"database"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	// ClosureQuery is a SQL query returning term and related columns.
	ClosureQuery     string        `mapstructure:"closure_query"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

// KafkaConfig holds the producer used by kafka://topic outputs.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Acks         string        `mapstructure:"acks"` // "none" | "one" | "all"
	Compression  string        `mapstructure:"compression"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "console" | "json"
}

// MetricsConfig controls the Prometheus registry of a run.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	// Textfile, when set, receives the registry in text format after a run.
	Textfile  string `mapstructure:"textfile"`
}

// OutputConfig controls how the report is written.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text" | "json" | "table" | "tsv"
	Path   string `mapstructure:"path"`   // empty or "-" for stdout, a file, s3://bucket/key or kafka://topic
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Closure  ClosureConfig  `mapstructure:"closure"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Output   OutputConfig   `mapstructure:"output"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Normalize folds enumerated settings to their canonical lower-case spelling,
// so that "ERROR" or "Warning" from a file, the environment or a flag mean the
// same as in the parsers that consume them.
func (c *Config) Normalize() {
	fold := func(s *string) { *s = strings.ToLower(strings.TrimSpace(*s)) }
	fold(&c.Scoring.EmptyPolicy)
	fold(&c.Closure.Backend)
	fold(&c.Log.Level)
	fold(&c.Log.Format)
	fold(&c.Output.Format)
	fold(&c.Kafka.Acks)
	fold(&c.Kafka.Compression)
	if c.Log.Level == "warning" {
		c.Log.Level = "warn"
	}
}

// Validate performs semantic validation of the fully-populated Config.
// Source presence is not checked here; commands check the sources they read.
func (c *Config) Validate() error {
	// Scoring.  An empty reference key is a valid set id.
	switch c.Scoring.EmptyPolicy {
	case EmptyPolicyIdentical, EmptyPolicyError:
	default:
		return invalid("scoring.empty_policy",
			fmt.Sprintf("%q is invalid; expected identical|error", c.Scoring.EmptyPolicy))
	}
	if c.Scoring.Concurrency < 1 {
		return invalid("scoring.concurrency", fmt.Sprintf("must be ≥ 1, got %d", c.Scoring.Concurrency))
	}

	// Sources
	if err := validateDelimiter(c.Sources.Delimiter); err != nil {
		return err
	}

	// Closure
	switch c.Closure.Backend {
	case ClosureBackendFile:
	case ClosureBackendNeo4j:
		if c.Neo4j.URI == "" {
			return invalid("neo4j.uri", "required when closure.backend is neo4j")
		}
		if strings.TrimSpace(c.Neo4j.ClosureQuery) == "" {
			return invalid("neo4j.closure_query", "required when closure.backend is neo4j")
		}
	case ClosureBackendPostgres:
		if c.Postgres.Host == "" {
			return invalid("postgres.host", "required when closure.backend is postgres")
		}
		if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
			return invalid("postgres.port", fmt.Sprintf("must be in 1..65535, got %d", c.Postgres.Port))
		}
		if strings.TrimSpace(c.Postgres.ClosureQuery) == "" {
			return invalid("postgres.closure_query", "required when closure.backend is postgres")
		}
	default:
		return invalid("closure.backend",
			fmt.Sprintf("%q is invalid; expected file|neo4j|postgres", c.Closure.Backend))
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level",
			fmt.Sprintf("%q is invalid; expected debug|info|warn|error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format", fmt.Sprintf("%q is invalid; expected json|console", c.Log.Format))
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace", "required when metrics are enabled")
	}

	// Output
	switch c.Output.Format {
	case OutputText, OutputJSON, OutputTable, OutputTSV:
	default:
		return invalid("output.format",
			fmt.Sprintf("%q is invalid; expected text|json|table|tsv", c.Output.Format))
	}
	if strings.HasPrefix(c.Output.Path, "kafka://") {
		if len(c.Kafka.Brokers) == 0 {
			return invalid("kafka.brokers", "required when output.path is a kafka:// topic")
		}
		switch c.Kafka.Acks {
		case "none", "one", "all":
		default:
			return invalid("kafka.acks", fmt.Sprintf("%q is invalid; expected none|one|all", c.Kafka.Acks))
		}
		switch c.Kafka.Compression {
		case "", "none", "gzip", "snappy", "lz4", "zstd":
		default:
			return invalid("kafka.compression",
				fmt.Sprintf("%q is invalid; expected none|gzip|snappy|lz4|zstd", c.Kafka.Compression))
		}
	}

	return nil
}

func validateDelimiter(d string) error {
	switch strings.ToLower(d) {
	case DelimiterAuto, "tab", `\t`, "comma":
		return nil
	}
	if utf8.RuneCountInString(d) != 1 {
		return invalid("sources.delimiter",
			fmt.Sprintf("%q is invalid; expected auto|tab|comma or a single character", d))
	}
	return nil
}

func invalid(field, message string) error {
	return errors.NewValidationError(field, "config: "+field+" "+message)
}

//Personal.AI order the ending
