package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/logging"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// Settler is implemented by payloads that want to learn how their job ended.
// Settle is called once per subscriber with the number of attempts made and
// the last error (nil on success). A broker-backed queue settles with zero
// attempts once the broker has the message.
type Settler interface {
	Settle(attempts int, err error)
}

// InMemoryQueue runs jobs on goroutines with retry.
type InMemoryQueue struct {
	MaxRetries int
	Backoff    time.Duration
	Log        logrus.FieldLogger

	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(maxRetries int, log logrus.FieldLogger) *InMemoryQueue {
	return &InMemoryQueue{
		MaxRetries: maxRetries,
		Backoff:    500 * time.Millisecond,
		Log:        logging.OrStandard(log),
		handlers:   make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{
			Topic:      topic,
			Payload:    payload,
			MaxRetries: q.MaxRetries,
		}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()

	var err error
	for {
		err = handler(job.Payload)
		job.RetryCount++
		if err == nil {
			q.Log.WithFields(logrus.Fields{"topic": job.Topic, "attempts": job.RetryCount}).Debug("job processed")
			break
		}

		q.Log.WithFields(logrus.Fields{
			"topic":   job.Topic,
			"attempt": job.RetryCount,
			"error":   err,
		}).Warn("⚠️ job failed")

		if job.RetryCount > job.MaxRetries {
			q.Log.WithField("topic", job.Topic).Warnf("job permanently failed after %d attempts", job.RetryCount)
			break
		}

		// linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}

	if s, ok := job.Payload.(Settler); ok {
		s.Settle(job.RetryCount, err)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished. Used on shutdown.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
