// Package amqp publishes and consumes ledger events over RabbitMQ. The
// engines publish best-effort after a successful write; downstream consumers
// (the archive export worker) read from a durable queue.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishLedgerEvent publishes a record-changed event.
func (c *Client) PublishLedgerEvent(ctx context.Context, kind, id, date string) error {
	msg := NewLedgerEventMessage(kind, id, date)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published ledger event",
		"kind", kind,
		"id", id,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishMonthClosed publishes a month-closed event.
func (c *Client) PublishMonthClosed(ctx context.Context, month string) error {
	msg := NewMonthClosedMessage(month)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published month closed event",
		"month", month,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// MonthClosedHandler processes one month-closed event.
type MonthClosedHandler func(ctx context.Context, msg *MonthClosedMessage) error

// ConsumeMessages consumes the queue until ctx is done, dispatching
// month-closed events to the handler. Other ledger events are acknowledged
// and skipped; this consumer only drives archive export. Failed handling
// nacks with requeue so the message is retried.
func (c *Client) ConsumeMessages(ctx context.Context, onMonthClosed MonthClosedHandler) error {
	deliveries, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(ctx, d, onMonthClosed)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, onMonthClosed MonthClosedHandler) {
	kind, err := KindOf(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Discarding unparseable message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if kind != KindMonthClosed {
		_ = d.Ack(false)
		return
	}

	msg, err := MonthClosedMessageFromJSON(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Discarding malformed month closed message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := onMonthClosed(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Month closed handler failed, requeueing",
			"month", msg.Month,
			"error", err)
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}

func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close AMQP client: %v", errs)
	}
	return nil
}
