// internal/service/sync_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/clinic-crm/internal/errors"
	"github.com/unclebandit/clinic-crm/internal/logging"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/normalize"
	"github.com/unclebandit/clinic-crm/internal/queue"
	"github.com/unclebandit/clinic-crm/internal/remote"
	"github.com/unclebandit/clinic-crm/internal/repository"
	"github.com/unclebandit/clinic-crm/internal/seed"
)

const pushTimeout = 30 * time.Second

// SyncService keeps the local mirror in step with the remote sheet. A nil
// Source means local-only mode. None of its read paths fail: every remote
// problem is logged and answered from the mirror or the seed data.
type SyncService struct {
	Mirror  repository.MirrorRepository
	Source  remote.Source
	Queue   queue.Queue
	Topic   string
	PushLog repository.PushLogRepository
	Log     logrus.FieldLogger
	NewID   func() string

	// serialises load-modify-save on the mirror
	mu sync.Mutex
}

func NewSyncService(mirror repository.MirrorRepository, source remote.Source, q queue.Queue, topic string, pushLog repository.PushLogRepository, log logrus.FieldLogger) *SyncService {
	return &SyncService{
		Mirror:  mirror,
		Source:  source,
		Queue:   q,
		Topic:   topic,
		PushLog: pushLog,
		Log:     logging.OrStandard(log),
		NewID:   normalize.NewID,
	}
}

// Subscribe registers HandlePush on the service's queue topic.
func (s *SyncService) Subscribe() error {
	if s.Queue == nil {
		return nil
	}
	return s.Queue.Subscribe(s.Topic, s.HandlePush)
}

// FetchCustomers reads the remote sheet and replaces the mirror with the
// normalised rows. On any remote failure, or in local-only mode, it returns
// the mirror contents (seeding the mirror on first run).
func (s *SyncService) FetchCustomers(ctx context.Context) []model.Customer {
	if s.Source == nil {
		return s.Cached(ctx)
	}

	customers, err := s.fetchRemote(ctx)
	if err != nil {
		entry := s.log().WithFields(logrus.Fields{"action": remote.ActionGetCustomers, "error": err})
		if appErrors.IsRemoteFailure(err) {
			entry.Warn("remote unreachable, falling back to local mirror")
		} else {
			entry.Error("failed to fetch customers, falling back to local mirror")
		}
		return s.Cached(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(ctx, customers)
	return customers
}

// Import is FetchCustomers without the fallback: any remote or mirror
// error is returned to the caller.
func (s *SyncService) Import(ctx context.Context) ([]model.Customer, error) {
	if s.Source == nil {
		return nil, appErrors.ErrNoRemote
	}
	customers, err := s.fetchRemote(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Mirror.Save(ctx, customers); err != nil {
		return customers, fmt.Errorf("save mirror: %w", err)
	}
	return customers, nil
}

func (s *SyncService) fetchRemote(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.Source.Customers(ctx)
	if err != nil {
		return nil, err
	}

	customers := make([]model.Customer, 0, len(rows))
	for _, rec := range rows {
		c, err := normalize.Customer(rec, s.NewID)
		if err != nil {
			s.log().WithFields(logrus.Fields{"customer_id": c.ID, "error": err}).Warn("unrecognised follow-up status, using Pending")
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// PushStatusUpdate writes status and notes into the mirror for every
// customer with the given id, then queues the same change for the remote
// sheet. It returns as soon as the local write is done; the task reports
// the remote outcome. The returned list never depends on that outcome.
func (s *SyncService) PushStatusUpdate(ctx context.Context, id string, status model.FollowUpStatus, notes string) ([]model.Customer, *PushTask, error) {
	if !status.Valid() {
		return nil, nil, appErrors.NewUnknownStatus(id, string(status))
	}

	s.mu.Lock()
	customers := s.loadOrSeed(ctx)
	for i := range customers {
		if customers[i].ID == id {
			customers[i].Status = status
			customers[i].Notes = notes
		}
	}
	s.save(ctx, customers)
	s.mu.Unlock()

	update := model.StatusUpdate{Action: model.UpdateCustomerAction, ID: id, Status: status, Notes: notes}
	task := newPushTask(update, s.recordTask)

	switch {
	case s.Source == nil:
		task.settle(model.PushLocal, 0, nil)
	case s.Queue == nil:
		go func() { task.Settle(1, s.HandlePush(task)) }()
	default:
		if err := s.Queue.Publish(s.Topic, task); err != nil {
			task.settle(model.PushFailed, 0, fmt.Errorf("enqueue push: %w", err))
		}
	}
	return customers, task, nil
}

// Resync resets the mirror to the seed data in local-only mode, otherwise
// it behaves like FetchCustomers.
func (s *SyncService) Resync(ctx context.Context) []model.Customer {
	if s.Source != nil {
		return s.FetchCustomers(ctx)
	}
	s.log().Info("no remote endpoint configured, resetting mirror to seed data")

	customers := seed.Customers()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(ctx, customers)
	return customers
}

// Cached returns the mirror contents without touching the remote sheet.
func (s *SyncService) Cached(ctx context.Context) []model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadOrSeed(ctx)
}

// HandlePush is the queue handler. It accepts a *PushTask from the
// in-memory queue or a JSON StatusUpdate body from a broker.
func (s *SyncService) HandlePush(payload any) error {
	var update model.StatusUpdate
	switch p := payload.(type) {
	case *PushTask:
		update = p.Update
	case model.StatusUpdate:
		update = p
	case []byte:
		if err := json.Unmarshal(p, &update); err != nil {
			// a body that never decodes will not decode on retry either
			s.log().WithField("error", err).Error("dropping undecodable push")
			return nil
		}
	default:
		s.log().Errorf("dropping push with payload type %T", payload)
		return nil
	}
	if s.Source == nil {
		return appErrors.ErrNoRemote
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	return s.Source.PushUpdate(ctx, update)
}

// RecordPushOutcome stores how a push ended. The worker calls it for
// broker deliveries; in-process tasks record themselves.
func (s *SyncService) RecordPushOutcome(update model.StatusUpdate, state string, attempts int, err error) {
	p := &model.StatusPush{
		CustomerID: update.ID,
		Status:     update.Status,
		Notes:      update.Notes,
		State:      state,
		Attempts:   attempts,
	}
	fields := logrus.Fields{"customer_id": update.ID, "state": state, "attempts": attempts}
	if err != nil {
		p.LastError = err.Error()
		fields["error"] = err
		s.log().WithFields(fields).Warn("remote push failed, local change kept")
	} else {
		s.log().WithFields(fields).Debug("push settled")
	}

	if s.PushLog == nil {
		return
	}
	if rerr := s.PushLog.Record(context.Background(), p); rerr != nil {
		s.log().WithField("error", rerr).Error("failed to record push outcome")
	}
}

// RecentPushes lists the latest push outcomes, newest first.
func (s *SyncService) RecentPushes(ctx context.Context, limit int) ([]model.StatusPush, error) {
	if s.PushLog == nil {
		return []model.StatusPush{}, nil
	}
	return s.PushLog.Recent(ctx, limit)
}

func (s *SyncService) recordTask(t *PushTask) {
	s.RecordPushOutcome(t.Update, t.state, t.attempts, t.err)
}

// loadOrSeed must be called with s.mu held.
func (s *SyncService) loadOrSeed(ctx context.Context) []model.Customer {
	customers, found, err := s.Mirror.Load(ctx)
	if err != nil {
		s.log().WithField("error", err).Error("failed to read local mirror, using seed data")
		return seed.Customers()
	}
	if !found {
		customers = seed.Customers()
		s.save(ctx, customers)
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	return customers
}

// save must be called with s.mu held.
func (s *SyncService) save(ctx context.Context, customers []model.Customer) {
	if err := s.Mirror.Save(ctx, customers); err != nil {
		s.log().WithField("error", err).Error("failed to write local mirror")
	}
}

func (s *SyncService) log() logrus.FieldLogger {
	return logging.OrStandard(s.Log)
}
