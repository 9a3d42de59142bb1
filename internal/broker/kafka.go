package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"smarena/internal/config"
	"smarena/internal/constants"
	"smarena/internal/logger"
	"smarena/pkg/errors"
	"smarena/pkg/logging"
	"smarena/pkg/metrics"
	"smarena/pkg/tracing"
)

type KafkaProducer struct {
	writer      *kafka.Writer
	logger      logger.Logger
	serviceName string
}

func NewKafkaProducer(cfg config.KafkaConfig, serviceName string, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaProducer{writer: w, logger: log, serviceName: serviceName}
}

// Publish writes msg synchronously. Keys are hashed so that every record of one
// sykmelding lands on the same partition.
func (p *KafkaProducer) Publish(ctx context.Context, msg Message) error {
	km := toKafkaMessage(msg)
	km.Headers = tracing.InjectTraceContext(ctx, km.Headers)
	if km.Time.IsZero() {
		km.Time = time.Now()
	}

	if err := p.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("failed to write kafka message to %s: %w", msg.Topic, err)
	}

	metrics.IncKafkaMessagesWritten(p.serviceName, msg.Topic, len(msg.Value))
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads a set of topics with one group reader. Each worker owns
// its own consumer, so a consumer is never shared between goroutines.
type KafkaConsumer struct {
	reader      messageReader
	topics      []string
	logger      logger.Logger
	serviceName string
	pollDelay   time.Duration
}

func NewKafkaConsumer(cfg config.KafkaConfig, topics []string, serviceName string, pollDelay time.Duration, log logger.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		MinBytes:    constants.KafkaMinBytes,
		MaxBytes:    constants.KafkaMaxBytes,
		StartOffset: kafka.FirstOffset,
	})

	return newKafkaConsumer(reader, topics, serviceName, pollDelay, log)
}

func newKafkaConsumer(reader messageReader, topics []string, serviceName string, pollDelay time.Duration, log logger.Logger) *KafkaConsumer {
	if pollDelay <= 0 {
		pollDelay = constants.DefaultPollDelay
	}
	return &KafkaConsumer{
		reader:      reader,
		topics:      topics,
		logger:      log,
		serviceName: serviceName,
		pollDelay:   pollDelay,
	}
}

// Consume blocks until ctx is done or handler fails. Records are committed only
// after handler returns nil, so a failed record is redelivered on restart.
func (c *KafkaConsumer) Consume(ctx context.Context, handler HandlerFunc) error {
	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming", "topics", c.topics)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming", "reason", "context canceled")
				return nil
			}
			c.logger.WarnwCtx(consumeCtx, "Error fetching kafka message", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.pollDelay):
			}
			continue
		}

		metrics.IncKafkaMessagesRead(c.serviceName, m.Topic, len(m.Value))

		if err := c.handle(consumeCtx, m, handler); err != nil {
			return fmt.Errorf("failed to handle message %s/%d@%d: %w", m.Topic, m.Partition, m.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit message %s/%d@%d: %w", m.Topic, m.Partition, m.Offset, err)
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, m kafka.Message, handler HandlerFunc) (err error) {
	msgCtx, span := tracing.StartSpanFromKafkaMessage(ctx, "kafka.consume", m)
	defer span.End()

	msgCtx = logging.WithTraceID(msgCtx, tracing.TraceID(msgCtx))
	msgCtx = logging.WithMessageID(msgCtx, string(m.Key))

	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
		}
		if err != nil {
			span.RecordError(err)
		}
	}()

	return handler(msgCtx, fromKafkaMessage(m))
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func fromKafkaMessage(m kafka.Message) Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Headers:   headers,
		Time:      m.Time,
	}
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
		Time:    msg.Time,
	}
}
