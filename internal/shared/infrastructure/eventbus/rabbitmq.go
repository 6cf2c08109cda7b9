package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the topic exchange for journal events.
	ExchangeName = "moodlens.domain.events"
	// DefaultQueueName is the durable queue the worker consumes.
	DefaultQueueName = "moodlens.consumer"
)

// dialChannel connects and declares the durable topic exchange.
func dialChannel(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

// RabbitMQPublisher publishes persistent JSON messages to the exchange.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewRabbitMQPublisher connects a publisher.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, ch, err := dialChannel(url, ExchangeName)
	if err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", ExchangeName)

	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.logger.Debug("message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Ping reports whether the connection is still open.
func (p *RabbitMQPublisher) Ping(context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("connection closed")
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		p.logger.Warn("error closing channel", "error", err)
	}
	return p.conn.Close()
}

// RabbitMQConsumer reads the worker queue and dispatches to a Registry.
type RabbitMQConsumer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	registry *Registry
	logger   *slog.Logger
	running  bool
}

// NewRabbitMQConsumer connects and declares the consumer queue.
func NewRabbitMQConsumer(url, queue string, registry *Registry, logger *slog.Logger) (*RabbitMQConsumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if queue == "" {
		queue = DefaultQueueName
	}

	conn, ch, err := dialChannel(url, ExchangeName)
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	logger.Info("RabbitMQ consumer connected", "queue", queue, "exchange", ExchangeName)
	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    queue,
		registry: registry,
		logger:   logger,
	}, nil
}

// RegisterConsumer registers the consumer and binds its routing keys.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) error {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.queue, key, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Start consumes until ctx is cancelled. Messages are acked after a
// successful dispatch and requeued once on failure.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.logger.Info("started consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed unexpectedly")
			}
			c.handleDelivery(ctx, msg)
		}
	}
}

func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	event, err := decodeEnvelope(msg.RoutingKey, msg.Body)
	if err != nil {
		c.logger.Error("discarding undecodable event", "routing_key", msg.RoutingKey, "error", err)
		_ = msg.Ack(false)
		return
	}

	if err := c.registry.Dispatch(ctx, event); err != nil {
		// Redelivered messages are not requeued a second time.
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			c.logger.Error("failed to nack message", "error", nackErr)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
	}
}

func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false
	if err := c.channel.Close(); err != nil {
		c.logger.Warn("error closing channel", "error", err)
	}
	return c.conn.Close()
}
