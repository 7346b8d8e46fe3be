// Package queue defines the deferred guest checkout message and the
// transports that deliver it: RabbitMQ for multi-instance deployments and
// in-process timers otherwise.
package queue

import (
	"context"
	"time"

	"github.com/iliyamo/location-checkin/internal/model"
)

const (
	// GuestCheckOutQueue receives messages whose delay has elapsed.
	GuestCheckOutQueue = "checkin.guest-checkout"
	// delayQueuePrefix names the per-delay wait queues that dead-letter
	// into GuestCheckOutQueue.
	delayQueuePrefix = "checkin.guest-checkout.delay."
)

// GuestCheckOutMessage asks a worker to check a guest out of a place once
// FireAt has passed.  It carries enough of the place to address the
// backend without another lookup.
type GuestCheckOutMessage struct {
	JobID    string      `json:"job_id"`
	Email    string      `json:"email"`
	Location model.Place `json:"location"`
	Seat     *int        `json:"seat,omitempty"`
	FireAt   time.Time   `json:"fire_at"`
}

// Handler processes a delivered message.  A returned error rejects the
// message without requeueing it.
type Handler interface {
	HandleGuestCheckOut(ctx context.Context, msg GuestCheckOutMessage) error
}
