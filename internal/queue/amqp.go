package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/unclebandit/clinic-crm/internal/logging"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes JSON payloads to durable RabbitMQ queues, one queue per
// topic. Subscribers receive the raw message body ([]byte).
type AMQPQueue struct {
	MaxRetries int
	Log        logrus.FieldLogger

	// OnSettled, when set, is called once a delivery succeeded or ran out
	// of retries.
	OnSettled func(topic string, body []byte, attempts int, err error)

	conn     *amqp.Connection
	ch       *amqp.Channel
	mu       sync.Mutex
	declared map[string]bool
}

func DialAMQP(url string, maxRetries int, log logrus.FieldLogger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open a channel: %w", err)
	}
	return &AMQPQueue{
		MaxRetries: maxRetries,
		Log:        logging.OrStandard(log),
		conn:       conn,
		ch:         ch,
		declared:   map[string]bool{},
	}, nil
}

// declare must be called with q.mu held.
func (q *AMQPQueue) declare(topic string) error {
	if q.declared[topic] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

// Publish marshals payload as JSON. A Settler payload is settled as soon as
// the broker accepted it; the consumer reports the delivery outcome.
func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err == nil {
		err = q.publish(topic, body, 0)
	}
	if s, ok := payload.(Settler); ok {
		s.Settle(0, err)
	}
	return err
}

func (q *AMQPQueue) publish(topic string, body []byte, retries int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.declare(topic); err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{retryHeader: int32(retries)},
			Body:         body,
		},
	)
}

// Subscribe consumes topic with manual ack. A failed delivery is published
// again with its retry count bumped until MaxRetries is exceeded.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	err := q.declare(topic)
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = q.ch.Consume(
			topic,
			"",
			false, // autoAck = false for reliability
			false,
			false,
			false,
			nil,
		)
	}
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			q.deliver(topic, d, handler)
		}
	}()
	return nil
}

func (q *AMQPQueue) deliver(topic string, d amqp.Delivery, handler func(payload any) error) {
	retries := RetryCount(d.Headers)
	err := handler(d.Body)
	if err == nil {
		d.Ack(false)
		q.settle(topic, d.Body, retries+1, nil)
		return
	}

	q.Log.WithFields(logrus.Fields{"topic": topic, "attempt": retries + 1, "error": err}).Warn("⚠️ delivery failed")
	if retries < q.MaxRetries {
		if perr := q.publish(topic, d.Body, retries+1); perr == nil {
			d.Ack(false)
			return
		}
		d.Nack(false, true) // requeue
		return
	}
	d.Ack(false)
	q.settle(topic, d.Body, retries+1, err)
}

func (q *AMQPQueue) settle(topic string, body []byte, attempts int, err error) {
	if q.OnSettled != nil {
		q.OnSettled(topic, body, attempts, err)
	}
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// RetryCount reads the retry header of a delivery.
func RetryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

var _ Queue = (*AMQPQueue)(nil)
