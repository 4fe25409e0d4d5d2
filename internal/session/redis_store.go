package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/platform/domain"
)

const (
	keyPrefix  = "booking:session:"
	lockPrefix = "booking:session-lock:"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps wizard sessions as JSON snapshots in redis.
type RedisStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewRedisStore creates a new RedisStore. Sessions expire ttl after their last
// change; locks expire after lockTTL if never released.
func NewRedisStore(rdb *redis.Client, ttl, lockTTL time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, lockTTL: lockTTL, logger: logger}
}

// Get loads a wizard session.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*bookingDomain.Wizard, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewNotFoundError("BookingSession", id.String())
		}
		return nil, fmt.Errorf("failed to load booking session: %w", err)
	}
	var snap bookingDomain.WizardSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode booking session: %w", err)
	}
	return bookingDomain.RestoreWizard(snap), nil
}

// Create stores a new wizard session.
func (s *RedisStore) Create(ctx context.Context, w *bookingDomain.Wizard) error {
	data, err := json.Marshal(w.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode booking session: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, keyPrefix+w.ID().String(), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create booking session: %w", err)
	}
	if !ok {
		return domain.NewConflictError("booking session already exists")
	}
	return nil
}

// Save overwrites an existing wizard session and resets its expiry. SET XX
// keeps a deleted or expired session from being written back.
func (s *RedisStore) Save(ctx context.Context, w *bookingDomain.Wizard) error {
	data, err := json.Marshal(w.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode booking session: %w", err)
	}
	err = s.rdb.SetArgs(ctx, keyPrefix+w.ID().String(), data, redis.SetArgs{Mode: "XX", TTL: s.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return domain.NewNotFoundError("BookingSession", w.ID().String())
	}
	if err != nil {
		return fmt.Errorf("failed to save booking session: %w", err)
	}
	return nil
}

// Delete removes a wizard session.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, keyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete booking session: %w", err)
	}
	return nil
}

// Lock takes the session's exclusive lock with SET NX.
func (s *RedisStore) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	key := lockPrefix + id.String()
	token := uuid.NewString()

	ok, err := s.rdb.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire booking session lock: %w", err)
	}
	if !ok {
		return nil, domain.NewConflictError("booking session is being changed by another request")
	}

	return func() {
		// The request context may be cancelled by now.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, s.rdb, []string{key}, token).Err(); err != nil {
			s.logger.Warn("failed to release booking session lock",
				zap.String("session_id", id.String()),
				zap.Error(err),
			)
		}
	}, nil
}
