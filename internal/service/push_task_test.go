package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/unclebandit/clinic-crm/internal/model"
)

func TestPushTaskSettlesOnce(t *testing.T) {
	calls := 0
	task := newPushTask(model.StatusUpdate{ID: "1"}, func(*PushTask) { calls++ })

	if task.State() != model.PushQueued || task.Err() != nil {
		t.Fatalf("fresh task should be queued, got %q", task.State())
	}

	task.Settle(2, errors.New("boom"))
	task.Settle(1, nil)

	if calls != 1 {
		t.Errorf("expected one settle callback, got %d", calls)
	}
	if task.State() != model.PushFailed || task.Attempts() != 2 || task.Err() == nil {
		t.Errorf("first settlement should win: state=%q attempts=%d err=%v", task.State(), task.Attempts(), task.Err())
	}
}

func TestPushTaskBrokerHandoffStaysQueued(t *testing.T) {
	task := newPushTask(model.StatusUpdate{ID: "1"}, nil)
	task.Settle(0, nil)

	select {
	case <-task.Done():
	default:
		t.Fatal("task should be settled")
	}
	if task.State() != model.PushQueued {
		t.Errorf("expected queued after broker handoff, got %q", task.State())
	}
}

func TestPushTaskWaitHonoursContext(t *testing.T) {
	task := newPushTask(model.StatusUpdate{ID: "1"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := task.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestPushTaskMarshalsUpdate(t *testing.T) {
	update := model.StatusUpdate{Action: model.UpdateCustomerAction, ID: "7", Status: model.Booked, Notes: "n"}
	task := newPushTask(update, nil)

	b, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	var got model.StatusUpdate
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got != update {
		t.Errorf("expected %+v, got %+v", update, got)
	}
}
