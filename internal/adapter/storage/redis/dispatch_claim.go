package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// DispatchClaimStore implements ports.DispatchClaimStore using Redis SET NX.
type DispatchClaimStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewDispatchClaimStore creates a new Redis-backed claim store.
func NewDispatchClaimStore(client goredis.UniversalClient) *DispatchClaimStore {
	return &DispatchClaimStore{
		client: client,
		prefix: "dispatch:claim:",
	}
}

// Claim atomically reserves a notification for ttl.
// Returns true if this caller won the claim, false if another invocation holds it.
func (s *DispatchClaimStore) Claim(ctx context.Context, notificationID uuid.UUID, ttl time.Duration) (bool, error) {
	key := s.prefix + notificationID.String()
	result, err := s.client.SetArgs(ctx, key, time.Now().UTC().Format(time.RFC3339), goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis dispatch claim: %w", err)
	}
	return result == "OK", nil
}
