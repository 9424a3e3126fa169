package publish

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/feedforge/marketsim/pkg/models"
)

// Writer is the subset of kafka.Writer the publisher needs, split out for
// deterministic testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher mirrors each broadcast batch onto a Kafka topic, one
// message per tick keyed by symbol so per-symbol partition ordering holds.
type KafkaPublisher struct {
	logger *zap.Logger
	writer Writer
}

func NewKafkaPublisher(logger *zap.Logger, writer Writer) *KafkaPublisher {
	return &KafkaPublisher{logger: logger, writer: writer}
}

// NewKafkaWriter builds the production writer with async batching, so the
// broadcast loop never blocks on broker round-trips.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, batch []models.Tick) error {
	msgs := make([]kafka.Message, 0, len(batch))
	for _, tick := range batch {
		payload, err := json.Marshal(tick)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(tick.Symbol),
			Value: payload,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	p.logger.Debug("Published batch to Kafka", zap.Int("ticks", len(msgs)))
	return nil
}

// Close flushes the writer buffer. Must be called on shutdown when the
// writer is async.
func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// EnsureTopic creates the topic before the first publish, best effort.
// Broker unavailability is logged and not fatal; the simulator still serves
// its socket clients.
func EnsureTopic(logger *zap.Logger, brokers []string, topic string) {
	var conn *kafka.Conn
	var err error
	for _, addr := range brokers {
		conn, err = kafka.Dial("tcp", addr)
		if err == nil {
			break
		}
	}
	if conn == nil {
		logger.Warn("Failed to dial Kafka brokers", zap.Error(err))
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		logger.Warn("Failed to get Kafka controller", zap.Error(err))
		return
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		logger.Warn("Failed to dial Kafka controller", zap.Error(err))
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     4,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Info("Topic creation finished (might already exist)", zap.Error(err))
	} else {
		logger.Info("Topic creation request sent", zap.String("topic", topic))
	}
}
