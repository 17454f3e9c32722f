package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/repository"
	"github.com/unclebandit/clinic-crm/internal/service"
)

func TestRecordSettled(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	pushLog := repository.NewMemoryPushLog(10)
	svc := service.NewSyncService(repository.NewMemoryMirror(), nil, nil, "customer_updates", pushLog, log)
	record := recordSettled(svc, log)

	record("customer_updates", []byte(`{"action":"updateCustomer","id":"1","status":"Booked","notes":"ok"}`), 1, nil)
	record("customer_updates", []byte(`{"action":"updateCustomer","id":"2","status":"Contacted"}`), 4, errors.New("sheet down"))
	record("customer_updates", []byte(`garbage`), 1, nil)

	pushes, err := pushLog.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pushes) != 2 {
		t.Fatalf("expected 2 recorded pushes, got %d", len(pushes))
	}

	// newest first
	failed, sent := pushes[0], pushes[1]
	if sent.CustomerID != "1" || sent.State != model.PushSent || sent.Attempts != 1 {
		t.Errorf("unexpected sent push %+v", sent)
	}
	if failed.CustomerID != "2" || failed.State != model.PushFailed || failed.LastError != "sheet down" || failed.Attempts != 4 {
		t.Errorf("unexpected failed push %+v", failed)
	}
}
