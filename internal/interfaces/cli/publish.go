package cli

import (
	"context"
	"encoding/json"

	"github.com/turtacn/termsim/internal/application/scoring"
	"github.com/turtacn/termsim/internal/config"
	"github.com/turtacn/termsim/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/pkg/errors"
)

// recordPublisher writes report records to a topic.
type recordPublisher interface {
	PublishBatch(ctx context.Context, msgs []kafka.Message) (*kafka.BatchResult, error)
	Close() error
}

func newKafkaPublisher(cfg *config.Config, logger logging.Logger) (recordPublisher, error) {
	p, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:          cfg.Kafka.Brokers,
		Acks:             cfg.Kafka.Acks,
		CompressionCodec: cfg.Kafka.Compression,
		WriteTimeout:     cfg.Kafka.WriteTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// publishReport sends one JSON message per record, keyed by set ID.  The
// output format setting does not apply to topics.
func publishReport(ctx context.Context, deps scoreDeps, cfg *config.Config, report *scoring.Report, logger logging.Logger) error {
	topic, err := kafka.ParseTopicURI(cfg.Output.Path)
	if err != nil {
		return err
	}

	msgs := make([]kafka.Message, 0, len(report.Records))
	for _, rec := range report.Records {
		value, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encoding record").WithDetail("set_id=" + rec.SetID)
		}
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   []byte(rec.SetID),
			Value: value,
			Headers: map[string]string{
				"content-type":  "application/json",
				"reference_key": report.ReferenceKey,
			},
		})
	}

	pub, err := deps.newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn("closing kafka producer failed", logging.Err(err))
		}
	}()

	res, err := pub.PublishBatch(ctx, msgs)
	if err != nil {
		return err
	}
	logger.Info("report published", logging.String("topic", topic), logging.Int("records", res.Succeeded))
	return nil
}

//Personal.AI order the ending
