package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/clinic-crm/internal/model"
)

// PushLogRepository records how each remote push ended.
type PushLogRepository interface {
	Record(ctx context.Context, p *model.StatusPush) error
	Recent(ctx context.Context, limit int) ([]model.StatusPush, error)
}

// MemoryPushLog keeps the newest Capacity entries.
type MemoryPushLog struct {
	Capacity int

	mu     sync.Mutex
	nextID int64
	items  []model.StatusPush
}

func NewMemoryPushLog(capacity int) *MemoryPushLog {
	if capacity < 1 {
		capacity = 200
	}
	return &MemoryPushLog{Capacity: capacity}
}

func (m *MemoryPushLog) Record(ctx context.Context, p *model.StatusPush) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	p.ID = m.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.items = append(m.items, *p)
	if len(m.items) > m.Capacity {
		m.items = m.items[len(m.items)-m.Capacity:]
	}
	return nil
}

// Recent returns newest first.
func (m *MemoryPushLog) Recent(ctx context.Context, limit int) ([]model.StatusPush, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.StatusPush{}
	for i := len(m.items) - 1; i >= 0 && (limit < 1 || len(out) < limit); i-- {
		out = append(out, m.items[i])
	}
	return out, nil
}

// SQLPushLog stores outcomes in status_pushes.
type SQLPushLog struct {
	DB *sqlx.DB
}

func NewSQLPushLog(db *sqlx.DB) *SQLPushLog {
	return &SQLPushLog{DB: db}
}

func (r *SQLPushLog) Record(ctx context.Context, p *model.StatusPush) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO status_pushes (customer_id, status, notes, state, last_error, attempts, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	args := []interface{}{p.CustomerID, p.Status, p.Notes, p.State, p.LastError, p.Attempts, p.CreatedAt}

	if r.DB.DriverName() == "postgres" {
		return r.DB.QueryRowContext(ctx, r.DB.Rebind(query+` RETURNING id`), args...).Scan(&p.ID)
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *SQLPushLog) Recent(ctx context.Context, limit int) ([]model.StatusPush, error) {
	if limit < 1 {
		limit = 50
	}
	pushes := []model.StatusPush{}
	query := r.DB.Rebind(`
        SELECT id, customer_id, status, notes, state, last_error, attempts, created_at
        FROM status_pushes
        ORDER BY id DESC
        LIMIT ?
    `)
	if err := r.DB.SelectContext(ctx, &pushes, query, limit); err != nil {
		return nil, err
	}
	return pushes, nil
}

var (
	_ PushLogRepository = (*MemoryPushLog)(nil)
	_ PushLogRepository = (*SQLPushLog)(nil)
)
