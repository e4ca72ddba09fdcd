package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eatmeetclub/api/internal/model"
)

// ConsumerConfig configures the notification queue
type ConsumerConfig struct {
	URL      string
	Exchange string
	Queue    string
	Bindings []string
	Prefetch int
	DLX      string // dead-letter exchange; empty disables
	Name     string // consumer tag
}

// Consumer reads notifications from a queue and hands them to a Notifier
type Consumer struct {
	cfg      ConsumerConfig
	notifier Notifier
	logger   *slog.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer creates an unconnected consumer; call Connect before Run.
func NewConsumer(cfg ConsumerConfig, n Notifier, logger *slog.Logger) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	return &Consumer{cfg: cfg, notifier: n, logger: logger}
}

// Connect declares the exchange, queue, bindings and dead-letter queue
func (c *Consumer) Connect() error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	fail := func(step string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%s: %w", step, err)
	}

	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}

	args := amqp.Table{}
	if c.cfg.DLX != "" {
		args["x-dead-letter-exchange"] = c.cfg.DLX
		if err := ch.ExchangeDeclare(c.cfg.DLX, "topic", true, false, false, false, nil); err != nil {
			return fail("declare dlx", err)
		}
		dlq := c.cfg.Queue + ".dlq"
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return fail("declare dlq", err)
		}
		if err := ch.QueueBind(dlq, "#", c.cfg.DLX, false, nil); err != nil {
			return fail("bind dlq", err)
		}
	}

	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, args)
	if err != nil {
		return fail("declare queue", err)
	}
	for _, key := range c.cfg.Bindings {
		if err := ch.QueueBind(q.Name, key, c.cfg.Exchange, false, nil); err != nil {
			return fail("bind "+key, err)
		}
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fail("set qos", err)
	}

	c.conn = conn
	c.ch = ch
	return nil
}

// Run consumes until ctx is cancelled or the channel closes
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.cfg.Queue, c.cfg.Name, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

// Close closes the channel and connection
func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// handle delivers one message. Malformed messages are dead-lettered at once;
// a failed delivery is requeued once and dead-lettered on the second failure.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var n model.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		c.logger.Warn("rejecting malformed notification", "routing_key", d.RoutingKey, "error", err)
		_ = d.Nack(false, false)
		return
	}
	if errs := n.Validate(); len(errs) > 0 {
		c.logger.Warn("rejecting invalid notification", "routing_key", d.RoutingKey, "field", errs[0].Field, "message", errs[0].Message)
		_ = d.Nack(false, false)
		return
	}

	if err := c.notifier.Deliver(ctx, &n); err != nil {
		requeue := !d.Redelivered
		c.logger.Error("notification delivery failed",
			"routing_key", d.RoutingKey,
			"to", n.To,
			"requeue", requeue,
			"error", err,
		)
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}
