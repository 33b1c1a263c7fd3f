package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/predict"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Poller is the part of *kafka.Consumer the stream driver needs
type Poller interface {
	Poll(timeoutMs int) kafka.Event
	Commit() ([]kafka.TopicPartition, error)
}

// Options tunes the consumer loop
type Options struct {
	BatchSize   int
	PollTimeout time.Duration

	// Deadline for one HandleEvent call, 0 means none
	HandleTimeout time.Duration
}

// Consumer feeds sales events from a topic into the prediction service
type Consumer struct {
	poller  Poller
	svc     *predict.ModelService
	opts    Options
	logger  zerolog.Logger
	handled func(*models.PredictionResult)
}

// NewKafkaConsumer creates a consumer subscribed to topic with manual commits
func NewKafkaConsumer(bootstrapServers, groupID, topic string) (*kafka.Consumer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	}
	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	if err := consumer.SubscribeTopics([]string{topic}, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return consumer, nil
}

// NewConsumer creates a consumer loop around poller
func NewConsumer(poller Poller, svc *predict.ModelService, opts Options) *Consumer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = time.Second
	}
	return &Consumer{
		poller:  poller,
		svc:     svc,
		opts:    opts,
		logger:  log.With().Str("component", "stream_consumer").Logger(),
		handled: func(*models.PredictionResult) {},
	}
}

// Run polls until ctx is cancelled or the broker reports a fatal error.
// Messages are grouped into envelopes of at most BatchSize records; a poll
// that returns nothing flushes the pending group. Offsets are committed after
// each group is handled.
func (c *Consumer) Run(ctx context.Context) error {
	pending := make([]*kafka.Message, 0, c.opts.BatchSize)
	pollMs := int(c.opts.PollTimeout / time.Millisecond)

	c.logger.Info().Int("batch_size", c.opts.BatchSize).Msg("Consuming sales events")
	for {
		select {
		case <-ctx.Done():
			if len(pending) > 0 {
				c.logger.Info().Int("count", len(pending)).Msg("Processing remaining messages before shutdown")
				c.process(context.WithoutCancel(ctx), pending)
			}
			return nil
		default:
		}

		ev := c.poller.Poll(pollMs)
		switch e := ev.(type) {
		case nil:
			if len(pending) > 0 {
				c.process(ctx, pending)
				pending = pending[:0]
			}
		case *kafka.Message:
			pending = append(pending, e)
			if len(pending) >= c.opts.BatchSize {
				c.process(ctx, pending)
				pending = pending[:0]
			}
		case kafka.Error:
			if e.IsFatal() {
				c.logger.Error().Err(e).Msg("Fatal Kafka error. Shutting down consumer.")
				if len(pending) > 0 {
					c.process(context.WithoutCancel(ctx), pending)
				}
				return fmt.Errorf("kafka: %w", e)
			}
			c.logger.Warn().Err(e).Msg("Non-fatal Kafka error encountered")
		default:
			c.logger.Debug().Msgf("Ignored event: %v", e)
		}
	}
}

func (c *Consumer) process(ctx context.Context, messages []*kafka.Message) {
	payloads := make([]string, len(messages))
	for i, m := range messages {
		payloads[i] = string(m.Value)
	}

	if c.opts.HandleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.HandleTimeout)
		defer cancel()
	}

	result := c.svc.HandleEvent(ctx, models.NewKinesisEvent(payloads...))
	for _, f := range result.Failures {
		m := messages[f.Index]
		c.logger.Warn().Str("sales_id", f.SalesID.String()).Int32("partition", m.TopicPartition.Partition).
			Str("offset", m.TopicPartition.Offset.String()).Str("error", f.Error).Msg("Record skipped")
	}
	c.logger.Info().Int("records", len(messages)).Int("predictions", len(result.Predictions)).
		Int("failures", len(result.Failures)).Msg("Batch handled")
	c.handled(result)

	if _, err := c.poller.Commit(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to commit")
	}
}
