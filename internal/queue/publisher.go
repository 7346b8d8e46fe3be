package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher dispatches guest checkout messages to RabbitMQ.  A message
// with zero delay goes straight to GuestCheckOutQueue.  Otherwise it is
// parked in a wait queue dedicated to that delay (x-message-ttl), which
// dead-letters into GuestCheckOutQueue when the TTL runs out.  One queue
// per delay keeps a long delay from holding back a short one, since
// RabbitMQ only expires messages at the head of a queue.
type Publisher struct {
	url string
	log logrus.FieldLogger
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Dispatch publishes msg to fire after delay.  Errors are logged and
// returned so the caller can decide whether to surface them.
func (p *Publisher) Dispatch(ctx context.Context, msg GuestCheckOutMessage, delay time.Duration) error {
	l := p.log.WithFields(logrus.Fields{"job_id": msg.JobID, "delay": delay})

	conn, err := amqp.Dial(p.url)
	if err != nil {
		l.WithError(err).Error("rabbitmq: dial failed")
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		l.WithError(err).Error("rabbitmq: channel open failed")
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareWorkQueue(ch); err != nil {
		l.WithError(err).Error("rabbitmq: queue declare failed")
		return err
	}

	routingKey := GuestCheckOutQueue
	if delay > 0 {
		routingKey, err = declareDelayQueue(ch, delay)
		if err != nil {
			l.WithError(err).Error("rabbitmq: delay queue declare failed")
			return err
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.JobID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", routingKey, false, false, pub); err != nil {
		l.WithError(err).Error("rabbitmq: publish failed")
		return fmt.Errorf("publish: %w", err)
	}
	l.Debug("guest checkout scheduled")
	return nil
}

func declareWorkQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(GuestCheckOutQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", GuestCheckOutQueue, err)
	}
	return nil
}

// declareDelayQueue declares the wait queue for delay and returns its name.
// Idle wait queues delete themselves a minute after their last message
// could have expired.
func declareDelayQueue(ch *amqp.Channel, delay time.Duration) (string, error) {
	ms := delay.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	name := delayQueueName(ms)
	args := amqp.Table{
		"x-message-ttl":             ms,
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": GuestCheckOutQueue,
		"x-expires":                 ms + int64(time.Minute/time.Millisecond),
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, args); err != nil {
		return "", fmt.Errorf("declare %s: %w", name, err)
	}
	return name, nil
}

func delayQueueName(ms int64) string {
	return delayQueuePrefix + strconv.FormatInt(ms, 10)
}
