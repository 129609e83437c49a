// Package redisotp persists one-time passcodes in Redis. Redis owns expiry:
// every record carries a key TTL, so codes are garbage-collected by the
// store itself and survive neither restarts of this process nor their own
// validity window. The TTL runs slightly past the record's logical expiry so
// a verification attempt inside that grace window can still report "expired"
// instead of "not found".
package redisotp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp"

type Store struct {
	rdb    *redis.Client
	prefix string
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, prefix: keyPrefix}
}

func (s *Store) key(email string, purpose domain.OTPPurpose) string {
	return s.prefix + ":" + string(purpose) + ":" + strings.ToLower(strings.TrimSpace(email))
}

// Save stores rec under its (email, purpose) key. A plain SET makes the
// replace-on-reissue rule atomic: whatever record previously lived under the
// key is gone the instant the new one lands.
func (s *Store) Save(ctx context.Context, rec domain.OTPRecord, ttl time.Duration) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redisotp: encode record: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("redisotp: ttl must be positive, got %s", ttl)
	}

	if err := s.rdb.Set(ctx, s.key(rec.Email, rec.Purpose), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("redisotp: save: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, email string, purpose domain.OTPPurpose) (domain.OTPRecord, error) {
	data, err := s.rdb.Get(ctx, s.key(email, purpose)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.OTPRecord{}, store.ErrNotFound
		}
		return domain.OTPRecord{}, fmt.Errorf("redisotp: get: %w", err)
	}

	var rec domain.OTPRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.OTPRecord{}, fmt.Errorf("redisotp: decode record: %w", err)
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	if err := s.rdb.Del(ctx, s.key(email, purpose)).Err(); err != nil {
		return fmt.Errorf("redisotp: delete: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
