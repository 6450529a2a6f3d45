package redis

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/reposicion-api/internal/application/inventory"
)

var _ inventory.SweepLocker = (*SweepLocker)(nil)

// SweepLocker candado distribuido para que una sola réplica corra el barrido diario.
type SweepLocker struct {
	locker *redislock.Client
}

// NewSweepLocker construye el candado sobre el cliente Redis.
func NewSweepLocker(client goredis.UniversalClient) *SweepLocker {
	return &SweepLocker{locker: redislock.New(client)}
}

// Acquire intenta tomar key por ttl sin reintentos. ok = false si otra réplica lo tiene.
func (s *SweepLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	lock, err := s.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	release := func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// Expiró el TTL antes de terminar; no hay nada que liberar.
			return nil
		}
		return err
	}
	return release, true, nil
}
