package queue

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type settleRecorder struct {
	mu       sync.Mutex
	calls    int
	attempts int
	err      error
	done     chan struct{}
}

func newSettleRecorder() *settleRecorder {
	return &settleRecorder{done: make(chan struct{})}
}

func (s *settleRecorder) Settle(attempts int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.attempts = attempts
	s.err = err
	close(s.done)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestPublishWithoutSubscribers(t *testing.T) {
	q := NewInMemoryQueue(0, quietLogger())
	if err := q.Publish("customer_updates", 1); err == nil {
		t.Fatalf("expected error without subscribers")
	}
}

func TestInMemoryQueueSuccess(t *testing.T) {
	q := NewInMemoryQueue(0, quietLogger())
	var got atomic.Value
	q.Subscribe("customer_updates", func(payload any) error {
		got.Store(payload)
		return nil
	})

	rec := newSettleRecorder()
	if err := q.Publish("customer_updates", rec); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never settled")
	}
	if rec.err != nil || rec.attempts != 1 {
		t.Errorf("expected one successful attempt, got %d, %v", rec.attempts, rec.err)
	}
	if got.Load() != rec {
		t.Errorf("handler did not receive the payload")
	}
}

func TestInMemoryQueueRetriesThenSettlesOnce(t *testing.T) {
	q := NewInMemoryQueue(2, quietLogger())
	q.Backoff = time.Millisecond

	var calls int32
	boom := errors.New("sheet unavailable")
	q.Subscribe("customer_updates", func(payload any) error {
		atomic.AddInt32(&calls, 1)
		return boom
	})

	rec := newSettleRecorder()
	q.Publish("customer_updates", rec)
	q.Wait()

	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", calls)
	}
	if rec.calls != 1 || rec.attempts != 3 || !errors.Is(rec.err, boom) {
		t.Errorf("unexpected settlement: calls=%d attempts=%d err=%v", rec.calls, rec.attempts, rec.err)
	}
}

func TestInMemoryQueueRecoversOnRetry(t *testing.T) {
	q := NewInMemoryQueue(3, quietLogger())
	q.Backoff = time.Millisecond

	var calls int32
	q.Subscribe("customer_updates", func(payload any) error {
		if atomic.AddInt32(&calls, 1) < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	rec := newSettleRecorder()
	q.Publish("customer_updates", rec)
	q.Wait()

	if rec.err != nil || rec.attempts != 2 {
		t.Errorf("expected success on attempt 2, got %d, %v", rec.attempts, rec.err)
	}
}

func TestRetryCount(t *testing.T) {
	cases := []struct {
		headers amqp.Table
		want    int
	}{
		{nil, 0},
		{amqp.Table{}, 0},
		{amqp.Table{retryHeader: int32(2)}, 2},
		{amqp.Table{retryHeader: int64(3)}, 3},
		{amqp.Table{retryHeader: "x"}, 0},
	}
	for _, c := range cases {
		if got := RetryCount(c.headers); got != c.want {
			t.Errorf("%v: expected %d, got %d", c.headers, c.want, got)
		}
	}
}
