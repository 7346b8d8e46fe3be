package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer drains GuestCheckOutQueue and hands every message to a Handler.
type Consumer struct {
	url     string
	handler Handler
	log     logrus.FieldLogger
}

// NewConsumer returns a consumer for the broker at url.
func NewConsumer(url string, h Handler, log logrus.FieldLogger) *Consumer {
	return &Consumer{url: url, handler: h, log: log}
}

// Run connects, declares the work queue and consumes until ctx is done.
// Broker failures trigger a reconnect with exponential backoff capped at
// 30s; the only returned error is the context's.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("guest-checkout-consumer: dial failed; retrying in %s", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("guest-checkout-consumer: consume loop ended; reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("guest-checkout-consumer: set QoS failed")
	}
	if err := declareWorkQueue(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(GuestCheckOutQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleBody(ctx, d.Body); err != nil {
				c.log.WithError(err).Error("guest-checkout-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleBody(ctx context.Context, body []byte) error {
	var msg GuestCheckOutMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if msg.Email == "" || msg.Location.ID == "" {
		return errors.New("message missing email or location")
	}
	return c.handler.HandleGuestCheckOut(ctx, msg)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
