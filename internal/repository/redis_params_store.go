package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	applogger "DemandCast/pkg/logger"
)

const paramsKeyPrefix = "demandcast:params:"

// RedisParamsStore persists per-commodity model parameters in Redis. Put is
// guarded by WATCH: a concurrent write between Get and Put bumps the version
// and the transaction aborts with ErrConflict.
type RedisParamsStore struct {
	rdb *redis.Client
	l   *applogger.Logger
}

func NewRedisParamsStore(rdb *redis.Client) *RedisParamsStore {
	return &RedisParamsStore{rdb: rdb}
}

// SetLogger injects a structured logger.
func (s *RedisParamsStore) SetLogger(l *applogger.Logger) { s.l = l }

func paramsKey(commodityID string) string { return paramsKeyPrefix + commodityID }

func (s *RedisParamsStore) Get(ctx context.Context, commodityID string) (models.StoredParameters, error) {
	raw, err := s.rdb.Get(ctx, paramsKey(commodityID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.StoredParameters{}, domrepo.ErrNotFound
		}
		return models.StoredParameters{}, fmt.Errorf("redis get params: %w", err)
	}

	var stored models.StoredParameters
	if err := json.Unmarshal(raw, &stored); err != nil {
		return models.StoredParameters{}, fmt.Errorf("decode params: %w", err)
	}
	return stored, nil
}

// Put writes the parameter record, expecting p.Version to match what is
// currently stored. On success the persisted version is p.Version+1.
func (s *RedisParamsStore) Put(ctx context.Context, commodityID string, p models.StoredParameters) error {
	key := paramsKey(commodityID)

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if p.Version != 0 {
				return domrepo.ErrConflict
			}
		case err != nil:
			return fmt.Errorf("redis get params: %w", err)
		default:
			var current models.StoredParameters
			if err := json.Unmarshal(raw, &current); err != nil {
				return fmt.Errorf("decode params: %w", err)
			}
			if current.Version != p.Version {
				return domrepo.ErrConflict
			}
		}

		p.Version++
		buf, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, 0)
			return nil
		})
		return err
	}

	err := s.rdb.Watch(ctx, txn, key)
	if errors.Is(err, redis.TxFailedErr) {
		if s.l != nil {
			s.l.Debug("params write raced", applogger.String("commodity", commodityID))
		}
		return domrepo.ErrConflict
	}
	if err != nil {
		if errors.Is(err, domrepo.ErrConflict) {
			return err
		}
		return fmt.Errorf("redis put params: %w", err)
	}
	return nil
}
