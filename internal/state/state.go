package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"etsy/lister/internal/domain"
)

// PendingAuthTTL bounds how long a user has to finish the OAuth consent screen
const PendingAuthTTL = 10 * time.Minute

// ConnectionStore keeps per-user marketplace connections and in-flight OAuth handshakes
type ConnectionStore interface {
	GetConnection(ctx context.Context, userID string) (*domain.Connection, error)
	SaveConnection(ctx context.Context, userID string, conn *domain.Connection) error
	DeleteConnection(ctx context.Context, userID string) error
	SavePendingAuth(ctx context.Context, state string, pending domain.PendingAuth) error
	TakePendingAuth(ctx context.Context, state string) (*domain.PendingAuth, error)
}

type redisConnectionStore struct {
	redisClient      *redis.Client
	connectionPrefix string
	pendingPrefix    string
}

func NewRedisConnectionStore(redisClient *redis.Client) ConnectionStore {
	return &redisConnectionStore{
		redisClient:      redisClient,
		connectionPrefix: "lister:connection:",
		pendingPrefix:    "lister:oauth:state:",
	}
}

// GetConnection returns nil without error when the user has not connected a shop
func (s *redisConnectionStore) GetConnection(ctx context.Context, userID string) (*domain.Connection, error) {
	val, err := s.redisClient.Get(ctx, s.connectionPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get connection for user %s: %w", userID, err)
	}

	var conn domain.Connection
	if err := json.Unmarshal(val, &conn); err != nil {
		return nil, fmt.Errorf("failed to decode connection for user %s: %w", userID, err)
	}

	return &conn, nil
}

func (s *redisConnectionStore) SaveConnection(ctx context.Context, userID string, conn *domain.Connection) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("failed to encode connection for user %s: %w", userID, err)
	}

	// Refresh tokens outlive access tokens, so the record does not expire
	if err := s.redisClient.Set(ctx, s.connectionPrefix+userID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save connection for user %s: %w", userID, err)
	}
	return nil
}

func (s *redisConnectionStore) DeleteConnection(ctx context.Context, userID string) error {
	if err := s.redisClient.Del(ctx, s.connectionPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete connection for user %s: %w", userID, err)
	}
	return nil
}

func (s *redisConnectionStore) SavePendingAuth(ctx context.Context, state string, pending domain.PendingAuth) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending auth: %w", err)
	}

	if err := s.redisClient.Set(ctx, s.pendingPrefix+state, data, PendingAuthTTL).Err(); err != nil {
		return fmt.Errorf("failed to save pending auth: %w", err)
	}
	return nil
}

// TakePendingAuth returns and deletes the handshake so a state value is usable once
func (s *redisConnectionStore) TakePendingAuth(ctx context.Context, state string) (*domain.PendingAuth, error) {
	val, err := s.redisClient.GetDel(ctx, s.pendingPrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUnknownAuthState
		}
		return nil, fmt.Errorf("failed to take pending auth: %w", err)
	}

	var pending domain.PendingAuth
	if err := json.Unmarshal(val, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending auth: %w", err)
	}

	return &pending, nil
}
