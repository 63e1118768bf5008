// Package kafka publishes scoring records to Kafka topics.
package kafka

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/pkg/errors"
)

// Scheme is the URI scheme of topic outputs: kafka://topic.
const Scheme = "kafka"

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers          []string
	Acks             string // "none" | "one" | "all"
	MaxRetries       int
	BatchSize        int
	BatchTimeout     time.Duration
	WriteTimeout     time.Duration
	MaxMessageBytes  int
	CompressionCodec string // "" | "gzip" | "snappy" | "lz4" | "zstd"
}

// Message is one record to publish.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// BatchItemError is the failure of one message of a batch.
type BatchItemError struct {
	Index int
	Err   error
}

// BatchResult summarizes a PublishBatch call.
type BatchResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes messages synchronously.
type Producer struct {
	writer WriterInterface
	config ProducerConfig
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
}

// NewProducer creates a Producer.  No connection is made until the first
// publish.
func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = withDefaults(cfg)

	var requiredAcks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "one":
		requiredAcks = kafka.RequireOne
	default:
		requiredAcks = kafka.RequireAll
	}

	var compression kafka.Compression
	switch cfg.CompressionCodec {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: requiredAcks,
		Compression:  compression,
		Transport:    &kafka.Transport{DialTimeout: 10 * time.Second},
	}
	return newProducerWithWriter(writer, cfg, logger), nil
}

func newProducerWithWriter(w WriterInterface, cfg ProducerConfig, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{writer: w, config: withDefaults(cfg), logger: logger}
}

func withDefaults(cfg ProducerConfig) ProducerConfig {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 1024 * 1024
	}
	return cfg
}

// PublishBatch writes msgs in one call.  Any failed message makes the call
// fail with ErrCodeExternalService; the result still reports per-message
// outcomes.
func (p *Producer) PublishBatch(ctx context.Context, msgs []Message) (*BatchResult, error) {
	if p.closed.Load() {
		return nil, ErrProducerClosed
	}
	if len(msgs) == 0 {
		return &BatchResult{}, nil
	}

	kMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		if msg.Topic == "" {
			return nil, errors.NewValidationError("topic", "message topic is required")
		}
		if len(msg.Value) > p.config.MaxMessageBytes {
			return nil, errors.NewValidationError("value",
				fmt.Sprintf("message %d is %d bytes, limit %d", i, len(msg.Value), p.config.MaxMessageBytes))
		}
		kMsgs[i] = toKafkaMessage(msg)
	}

	start := time.Now()
	result := &BatchResult{}
	err := p.writer.WriteMessages(ctx, kMsgs...)
	var writeErrs kafka.WriteErrors
	switch {
	case err == nil:
		result.Succeeded = len(msgs)
	case stderrors.As(err, &writeErrs):
		for i, we := range writeErrs {
			if we != nil {
				result.Failed++
				result.Errors = append(result.Errors, BatchItemError{Index: i, Err: we})
			} else {
				result.Succeeded++
			}
		}
	default:
		result.Failed = len(msgs)
		result.Errors = append(result.Errors, BatchItemError{Index: -1, Err: err})
	}
	p.sent.Add(int64(result.Succeeded))

	p.logger.Info("batch published",
		logging.String("topic", msgs[0].Topic),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed),
		logging.Duration("duration", time.Since(start)))

	if result.Failed > 0 {
		return result, errors.Wrap(result.Errors[0].Err, errors.ErrCodeExternalService, "publish failed").
			WithDetail(fmt.Sprintf("topic=%s failed=%d of=%d", msgs[0].Topic, result.Failed, len(msgs)))
	}
	return result, nil
}

// Sent returns the number of messages written so far.
func (p *Producer) Sent() int64 {
	return p.sent.Load()
}

// Close flushes and closes the writer.  Subsequent calls are no-ops.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Debug("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

func toKafkaMessage(msg Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    time.Now(),
	}
}

// ValidateProducerConfig checks the settings NewProducer cannot default.
func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.NewValidationError("kafka.brokers", "at least one broker is required")
	}
	if cfg.MaxRetries < 0 {
		return errors.NewValidationError("kafka.max_retries", "must be >= 0")
	}
	return nil
}

// IsTopicURI reports whether s uses the kafka:// scheme.
func IsTopicURI(s string) bool {
	return strings.HasPrefix(s, Scheme+"://")
}

// ParseTopicURI returns the topic of kafka://topic.
func ParseTopicURI(s string) (string, error) {
	topic, ok := strings.CutPrefix(s, Scheme+"://")
	if !ok || topic == "" || strings.ContainsAny(topic, "/ ") {
		return "", errors.New(errors.ErrCodeSourceURIInvalid, "topic URI must be kafka://<topic>").
			WithDetail("uri=" + s)
	}
	return topic, nil
}

//Personal.AI order the ending
