package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Empty(t, cfg.Scoring.ReferenceKey, "an empty key is a valid set id")
	assert.Equal(t, EmptyPolicyIdentical, cfg.Scoring.EmptyPolicy)
	assert.Equal(t, 1, cfg.Scoring.Concurrency)
	assert.False(t, cfg.Scoring.ExcludeReference)
	assert.Equal(t, DefaultCandidatesSource, cfg.Sources.Candidates)
	assert.Equal(t, DefaultClosureSource, cfg.Sources.Closure)
	assert.Equal(t, DelimiterAuto, cfg.Sources.Delimiter)
	assert.Equal(t, ClosureBackendFile, cfg.Closure.Backend)
	assert.Contains(t, cfg.Neo4j.ClosureQuery, "AS term")
	assert.Contains(t, cfg.Neo4j.ClosureQuery, "AS related")
	assert.Equal(t, DefaultPostgresPort, cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, DefaultPostgresClosureQuery, cfg.Postgres.ClosureQuery)
	assert.Empty(t, cfg.MinIO.Endpoint)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "termsim", cfg.Metrics.Namespace)
	assert.Equal(t, OutputText, cfg.Output.Format)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Scoring.ReferenceKey = "ref"
	cfg.Scoring.Concurrency = 8
	cfg.Output.Format = OutputJSON
	ApplyDefaults(cfg)

	assert.Equal(t, "ref", cfg.Scoring.ReferenceKey)
	assert.Equal(t, 8, cfg.Scoring.Concurrency)
	assert.Equal(t, OutputJSON, cfg.Output.Format)
}

func TestNewDefaultConfig_ReferenceKey(t *testing.T) {
	assert.Equal(t, DefaultReferenceKey, NewDefaultConfig().Scoring.ReferenceKey)
}

func TestApplyDefaults_NormalizesEnumerations(t *testing.T) {
	cfg := &Config{}
	cfg.Scoring.EmptyPolicy = "Error"
	cfg.Log.Level = "WARNING"
	ApplyDefaults(cfg)

	assert.Equal(t, EmptyPolicyError, cfg.Scoring.EmptyPolicy)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
