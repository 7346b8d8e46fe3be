package queue

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TimerQueue delivers messages from in-process timers.  Pending jobs are
// lost when the process exits, so it is only meant for single-instance
// deployments without a broker.
type TimerQueue struct {
	handler Handler
	log     logrus.FieldLogger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

// NewTimerQueue returns a queue delivering to h.
func NewTimerQueue(h Handler, log logrus.FieldLogger) *TimerQueue {
	return &TimerQueue{handler: h, log: log, pending: make(map[string]*time.Timer)}
}

// Dispatch arms a timer that delivers msg after delay.
func (q *TimerQueue) Dispatch(_ context.Context, msg GuestCheckOutMessage, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return context.Canceled
	}
	q.wg.Add(1)
	q.pending[msg.JobID] = time.AfterFunc(delay, func() {
		defer q.wg.Done()
		q.mu.Lock()
		delete(q.pending, msg.JobID)
		q.mu.Unlock()
		if err := q.handler.HandleGuestCheckOut(context.Background(), msg); err != nil {
			q.log.WithError(err).WithField("job_id", msg.JobID).Error("timer queue: guest checkout failed")
		}
	})
	return nil
}

// Pending reports how many timers have not fired yet.
func (q *TimerQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops every pending timer and waits for running handlers.
func (q *TimerQueue) Close() {
	q.mu.Lock()
	q.closed = true
	for id, t := range q.pending {
		if t.Stop() {
			q.wg.Done()
		}
		delete(q.pending, id)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
