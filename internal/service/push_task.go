package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/unclebandit/clinic-crm/internal/model"
)

// PushTask is the observable outcome of one remote status push. It is
// settled exactly once; later settlements are ignored.
type PushTask struct {
	Update model.StatusUpdate

	once     sync.Once
	done     chan struct{}
	state    string
	err      error
	attempts int
	onSettle func(t *PushTask)
}

func newPushTask(update model.StatusUpdate, onSettle func(t *PushTask)) *PushTask {
	return &PushTask{
		Update:   update,
		done:     make(chan struct{}),
		state:    model.PushQueued,
		onSettle: onSettle,
	}
}

// Settle implements queue.Settler. Zero attempts without an error means the
// update was handed to a broker and stays queued from this side.
func (t *PushTask) Settle(attempts int, err error) {
	state := model.PushSent
	switch {
	case err != nil:
		state = model.PushFailed
	case attempts == 0:
		state = model.PushQueued
	}
	t.settle(state, attempts, err)
}

func (t *PushTask) settle(state string, attempts int, err error) {
	t.once.Do(func() {
		t.state = state
		t.attempts = attempts
		t.err = err
		close(t.done)
		if t.onSettle != nil {
			t.onSettle(t)
		}
	})
}

// Done is closed once the push has an outcome.
func (t *PushTask) Done() <-chan struct{} { return t.done }

// Err returns the push failure, nil while pending or on success.
func (t *PushTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// State is queued until settled, then sent, failed or local.
func (t *PushTask) State() string {
	select {
	case <-t.done:
		return t.state
	default:
		return model.PushQueued
	}
}

// Attempts made before settling.
func (t *PushTask) Attempts() int {
	select {
	case <-t.done:
		return t.attempts
	default:
		return 0
	}
}

// Wait blocks until the task settles or ctx ends.
func (t *PushTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarshalJSON sends only the update, so a broker-backed queue carries the
// same body the remote endpoint expects.
func (t *PushTask) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Update)
}
