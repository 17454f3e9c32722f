package repository

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"

	"github.com/unclebandit/clinic-crm/internal/model"
)

// RedisMirror stores the snapshot as JSON under one key with no expiry.
type RedisMirror struct {
	Client *redis.Client
	Key    string
}

func NewRedisMirror(client *redis.Client, key string) *RedisMirror {
	return &RedisMirror{Client: client, Key: key}
}

func (r *RedisMirror) Load(ctx context.Context) ([]model.Customer, bool, error) {
	str, err := r.Client.Get(ctx, r.Key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return decodeSnapshot([]byte(str))
}

func (r *RedisMirror) Save(ctx context.Context, customers []model.Customer) error {
	data, err := encodeSnapshot(customers)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, r.Key, data, 0).Err()
}

var _ MirrorRepository = (*RedisMirror)(nil)
