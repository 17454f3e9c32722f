package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/clinic-crm/internal/model"
)

// SQLMirror stores the snapshot as one row of mirror_snapshots. Works on
// SQLite and Postgres.
type SQLMirror struct {
	DB  *sqlx.DB
	Key string
}

func NewSQLMirror(db *sqlx.DB, key string) *SQLMirror {
	return &SQLMirror{DB: db, Key: key}
}

func (r *SQLMirror) Load(ctx context.Context) ([]model.Customer, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var payload string
	query := r.DB.Rebind(`SELECT payload FROM mirror_snapshots WHERE key = ?`)
	if err := r.DB.GetContext(ctx, &payload, query, r.Key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return decodeSnapshot([]byte(payload))
}

func (r *SQLMirror) Save(ctx context.Context, customers []model.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	data, err := encodeSnapshot(customers)
	if err != nil {
		return err
	}
	query := r.DB.Rebind(`
        INSERT INTO mirror_snapshots (key, payload, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
    `)
	_, err = r.DB.ExecContext(ctx, query, r.Key, string(data), time.Now().UTC())
	return err
}

var _ MirrorRepository = (*SQLMirror)(nil)
