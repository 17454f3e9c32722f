package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/config"
	"github.com/unclebandit/clinic-crm/internal/db"
)

// Stores bundles the repositories chosen by configuration. Close releases
// any connection they opened.
type Stores struct {
	Mirror  MirrorRepository
	PushLog PushLogRepository

	sqlDB *sqlx.DB
	redis *redis.Client
}

// Open builds the mirror and push log for cfg. SQL-backed mirrors share
// their database with the push log; other backends log pushes in memory.
func Open(ctx context.Context, cfg config.MirrorConfig, log logrus.FieldLogger) (*Stores, error) {
	s := &Stores{}

	switch cfg.Backend {
	case "memory":
		s.Mirror = NewMemoryMirror()
	case "file":
		s.Mirror = NewFileMirror(cfg.Path)
	case "sqlite", "postgres":
		conn, err := db.Open(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		s.sqlDB = conn
		s.Mirror = NewSQLMirror(conn, cfg.Key)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		s.redis = client
		s.Mirror = NewRedisMirror(client, cfg.Key)
	default:
		return nil, fmt.Errorf("unknown mirror backend %q", cfg.Backend)
	}

	if s.sqlDB != nil {
		s.PushLog = NewSQLPushLog(s.sqlDB)
	} else {
		s.PushLog = NewMemoryPushLog(200)
	}
	return s, nil
}

func (s *Stores) Close() error {
	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			return err
		}
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
