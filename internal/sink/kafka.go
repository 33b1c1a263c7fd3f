package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alias1177/SalesPredictor/models"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Producer is the part of *kafka.Producer the sink needs
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// KafkaSink publishes every prediction event to a topic
type KafkaSink struct {
	producer Producer
	topic    string
	logger   zerolog.Logger
}

// NewKafkaProducer connects a producer to the given brokers
func NewKafkaProducer(bootstrapServers string) (*kafka.Producer, error) {
	configMap := kafka.ConfigMap{
		"bootstrap.servers": bootstrapServers,
		"client.id":         "sales-prediction",
		"acks":              "all",
	}
	p, err := kafka.NewProducer(&configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return p, nil
}

// NewKafkaSink creates a sink writing to topic
func NewKafkaSink(producer Producer, topic string) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		topic:    topic,
		logger:   log.With().Str("component", "kafka_sink").Str("topic", topic).Logger(),
	}
}

// Notify produces the event keyed by sales_id and waits for the delivery report
func (s *KafkaSink) Notify(ctx context.Context, event models.PredictionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding prediction event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &s.topic,
			Partition: kafka.PartitionAny,
		},
		Value: value,
	}
	if key := event.Prediction.SalesID.String(); key != "" {
		msg.Key = []byte(key)
	}

	delivery := make(chan kafka.Event, 1)
	if err := s.producer.Produce(msg, delivery); err != nil {
		return fmt.Errorf("kafka produce error: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				return fmt.Errorf("kafka delivery failed: %w", ev.TopicPartition.Error)
			}
			s.logger.Debug().Str("sales_id", event.Prediction.SalesID.String()).
				Int32("partition", ev.TopicPartition.Partition).Msg("Prediction published")
			return nil
		case kafka.Error:
			return fmt.Errorf("kafka delivery failed: %w", ev)
		default:
			return fmt.Errorf("unexpected kafka event %v", e)
		}
	}
}
