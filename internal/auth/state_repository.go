package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const oauthStateTTL = 10 * time.Minute

// StateRepository stores OAuth state nonces in Redis so the callback can
// verify the handshake originated here. Nonces are single-use and expire
// on their own.
type StateRepository struct {
	client *redis.Client
}

func NewStateRepository(client *redis.Client) *StateRepository {
	return &StateRepository{client: client}
}

func stateKey(state string) string {
	return fmt.Sprintf("oauth_state:%s", state)
}

// Store saves a state nonce with a 10-minute TTL
func (r *StateRepository) Store(ctx context.Context, state string) error {
	if err := r.client.Set(ctx, stateKey(state), "1", oauthStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes a state nonce, reporting whether
// it existed
func (r *StateRepository) Consume(ctx context.Context, state string) (bool, error) {
	_, err := r.client.GetDel(ctx, stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return true, nil
}
