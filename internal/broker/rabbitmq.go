package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"smarena/internal/config"
	"smarena/internal/constants"
	"smarena/internal/logger"
)

var (
	ErrBrokerClosed = errors.New("rabbitmq connection is closed")
	ErrNack         = errors.New("rabbitmq nack received: message not persisted")
)

// RabbitMQConnection owns the AMQP connection shared by every publisher of the
// process. Channels are not shared: each worker opens its own.
type RabbitMQConnection struct {
	conn      *amqp.Connection
	queue     string
	logger    logger.Logger
	healthy   atomic.Bool
	closed    chan *amqp.Error
	closeOnce sync.Once
}

func DialRabbitMQ(cfg config.RabbitMQConfig, log logger.Logger) (*RabbitMQConnection, error) {
	conn, err := amqp.Dial(cfg.AMQPURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	c := &RabbitMQConnection{
		conn:   conn,
		queue:  cfg.Queue,
		logger: log,
		closed: make(chan *amqp.Error, 1),
	}
	c.healthy.Store(true)
	conn.NotifyClose(c.closed)

	go func() {
		if err, ok := <-c.closed; ok {
			c.healthy.Store(false)
			log.Warnw("RabbitMQ connection closed", "error", err)
		}
	}()

	log.Infow("Connected to RabbitMQ", "host", cfg.Host, "queue", cfg.Queue)
	return c, nil
}

func (c *RabbitMQConnection) IsHealthy() bool {
	return c.healthy.Load() && !c.conn.IsClosed()
}

// Ping satisfies the health checker interface.
func (c *RabbitMQConnection) Ping(context.Context) error {
	if !c.IsHealthy() {
		return ErrBrokerClosed
	}
	return nil
}

// NewPublisher opens a confirm-mode channel bound to the configured queue.
func (c *RabbitMQConnection) NewPublisher() (*RabbitMQPublisher, error) {
	if !c.IsHealthy() {
		return nil, ErrBrokerClosed
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to activate publisher confirms: %w", err)
	}

	p := &RabbitMQPublisher{
		channel:        ch,
		queue:          c.queue,
		confirmTimeout: constants.PublishConfirmTimeout,
		chanClosed:     make(chan *amqp.Error, 1),
	}
	p.healthy.Store(true)
	ch.NotifyClose(p.chanClosed)

	go func() {
		if err, ok := <-p.chanClosed; ok {
			p.healthy.Store(false)
			c.logger.Warnw("RabbitMQ channel closed", "error", err)
		}
	}()

	return p, nil
}

func (c *RabbitMQConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.healthy.Store(false)
		if !c.conn.IsClosed() {
			err = c.conn.Close()
		}
	})
	return err
}

// RabbitMQPublisher sends persistent text messages to one queue through the
// default exchange and waits for the broker confirm.
type RabbitMQPublisher struct {
	channel        *amqp.Channel
	queue          string
	confirmTimeout time.Duration
	healthy        atomic.Bool
	chanClosed     chan *amqp.Error
	closeOnce      sync.Once
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, body []byte, headers map[string]string) error {
	if !p.healthy.Load() {
		return ErrBrokerClosed
	}

	table := amqp.Table{}
	for k, v := range headers {
		table[k] = v
	}

	deferred, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			Headers:      table,
			ContentType:  "text/xml",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.queue, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-deferred.Done():
		if !deferred.Acked() {
			return ErrNack
		}
		return nil
	case <-time.After(p.confirmTimeout):
		return fmt.Errorf("publisher confirm timeout after %s", p.confirmTimeout)
	}
}

func (p *RabbitMQPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.healthy.Store(false)
		if !p.channel.IsClosed() {
			err = p.channel.Close()
		}
	})
	return err
}
