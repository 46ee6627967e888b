package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/core"

	"github.com/rabbitmq/amqp091-go"
)

// DefaultPublishTimeout bounds a single publish when the client is built
// without an explicit timeout.
const DefaultPublishTimeout = 5 * time.Second

// channel is the part of *amqp091.Channel the client uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

type Client struct {
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	queueName    string
	timeout      time.Duration
}

func NewClient(url, exchangeName, queueName string, timeout time.Duration) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setup(ch, exchangeName, queueName); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	client := newClient(ch, exchangeName, queueName, timeout)
	client.conn = conn
	return client, nil
}

func newClient(ch channel, exchangeName, queueName string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Client{
		channel:      ch,
		exchangeName: exchangeName,
		queueName:    queueName,
		timeout:      timeout,
	}
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	// durable, not auto-deleted, not internal
	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// durable, shared, kept when unused
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// The queue name doubles as the routing key
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Publish announces the seq-th transaction of the ledger. It is sent once;
// a failure is returned to the caller and never retried.
func (c *Client) Publish(ctx context.Context, seq int, tx core.Transaction) error {
	msg := NewTransactionRecordedMessage(seq, tx)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    msg.Timestamp,
		Body:         body,
	}
	if err := c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, publishing); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published transaction recorded message",
		"seq", seq,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeTransactions hands every transaction recorded message to handler
// until ctx is done. Handled messages are acked; a handler error requeues the
// message once, undecodable messages are dropped.
func (c *Client) ConsumeTransactions(ctx context.Context, handler func(context.Context, *TransactionRecordedMessage) error) error {
	// Manual acknowledgement
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Consuming transaction messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			msg, err := TransactionRecordedMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Dropping undecodable message", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Transaction message not handled",
					"seq", msg.Seq,
					"redelivered", delivery.Redelivered,
					"error", err)
				delivery.Nack(false, !delivery.Redelivered)
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
