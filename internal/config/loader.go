// Package config provides configuration loading, defaults, and validation for
// termsim.
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/turtacn/termsim/pkg/errors"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "TERMSIM"

// settingKeys lists every leaf key of Config.  Viper's AutomaticEnv only
// resolves keys it already knows about during Unmarshal, so each key is bound
// explicitly.
var settingKeys = []string{
	"scoring.reference_key", "scoring.exclude_reference", "scoring.empty_policy", "scoring.concurrency",
	"sources.candidates", "sources.closure", "sources.delimiter",
	"closure.backend",
	"neo4j.uri", "neo4j.user", "neo4j.password", "neo4j.database",
	"neo4j.max_connection_pool_size", "neo4j.connection_timeout", "neo4j.fetch_size", "neo4j.closure_query",
	"postgres.host", "postgres.port", "postgres.database", "postgres.user", "postgres.password",
	"postgres.ssl_mode", "postgres.max_open_conns", "postgres.connect_timeout",
	"postgres.statement_timeout", "postgres.closure_query",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.use_ssl", "minio.region",
	"kafka.brokers", "kafka.acks", "kafka.compression", "kafka.write_timeout",
	"log.level", "log.format",
	"metrics.enabled", "metrics.namespace", "metrics.textfile",
	"output.format", "output.path",
}

// SearchPaths returns the files tried, in order, when no config path is given.
func SearchPaths() []string {
	paths := []string{"termsim.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".termsim", "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", "termsim", "config.yaml"))
}

// newViper builds a pre-configured Viper instance: YAML file type, TERMSIM_
// env prefix, and a key replacer that maps "." → "_" so that nested keys like
// "neo4j.uri" resolve to "TERMSIM_NEO4J_URI".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range settingKeys {
		_ = v.BindEnv(key)
	}
	v.SetDefault("scoring.reference_key", DefaultReferenceKey)
	return v
}

// Load reads the YAML file at configPath, merges any TERMSIM_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
//
// An empty configPath searches SearchPaths and falls back to environment and
// defaults when none of them exists.  An explicit path must exist.
func Load(configPath string) (*Config, error) {
	cfg, _, err := LoadWithSource(configPath)
	return cfg, err
}

// LoadWithSource is Load that also reports the file used ("" when none).
func LoadWithSource(configPath string) (*Config, string, error) {
	v := newViper()

	if configPath == "" {
		configPath = firstExisting(SearchPaths())
		if configPath == "" {
			cfg, err := unmarshalAndFinalize(v)
			return cfg, "", err
		}
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeValidation, "config: failed to read config file").
			WithDetail("path=" + configPath)
	}

	cfg, err := unmarshalAndFinalize(v)
	return cfg, configPath, err
}

// LoadFromEnv builds a Config from TERMSIM_* environment variables and
// defaults, with no config file.
//
//	TERMSIM_<SECTION>_<FIELD>   e.g.  TERMSIM_SCORING_REFERENCE_KEY, TERMSIM_NEO4J_URI
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "config: failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p
		}
		if err != nil && !stderrors.Is(err, os.ErrNotExist) {
			// Unreadable candidates are reported when Load reads them.
			return p
		}
	}
	return ""
}

//Personal.AI order the ending
