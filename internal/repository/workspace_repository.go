package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

const (
	workspaceKeyPrefix   = "timetable-ace:workspace:"
	workspaceMaxAttempts = 5
)

// WorkspaceMutator changes a workspace in place. Returning an error aborts the update.
type WorkspaceMutator func(ws *models.Workspace) error

func workspaceKey(sessionID string) string {
	return workspaceKeyPrefix + sessionID
}

// RedisWorkspaceRepository keeps workspaces as JSON documents in Redis.
type RedisWorkspaceRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisWorkspaceRepository constructs a Redis backed store.
func NewRedisWorkspaceRepository(client *redis.Client, logger *zap.Logger) *RedisWorkspaceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisWorkspaceRepository{client: client, logger: logger}
}

// Create stores a new workspace with the given TTL.
func (r *RedisWorkspaceRepository) Create(ctx context.Context, ws *models.Workspace, ttl time.Duration) error {
	payload, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("marshal workspace %s: %w", ws.SessionID, err)
	}
	if err := r.client.Set(ctx, workspaceKey(ws.SessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set workspace %s: %w", ws.SessionID, err)
	}
	return nil
}

// Get loads a workspace. Missing or expired sessions return appErrors.ErrSessionNotFound.
func (r *RedisWorkspaceRepository) Get(ctx context.Context, sessionID string) (*models.Workspace, error) {
	raw, err := r.client.Get(ctx, workspaceKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get workspace %s: %w", sessionID, err)
	}
	return decodeWorkspace(sessionID, raw)
}

// Update applies fn under an optimistic WATCH transaction and keeps the remaining TTL.
func (r *RedisWorkspaceRepository) Update(ctx context.Context, sessionID string, fn WorkspaceMutator) (*models.Workspace, error) {
	key := workspaceKey(sessionID)
	var updated *models.Workspace

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return appErrors.ErrSessionNotFound
			}
			return fmt.Errorf("redis get workspace %s: %w", sessionID, err)
		}
		ws, err := decodeWorkspace(sessionID, raw)
		if err != nil {
			return err
		}
		if err := fn(ws); err != nil {
			return err
		}
		ws.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(ws)
		if err != nil {
			return fmt.Errorf("marshal workspace %s: %w", sessionID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, payload, redis.SetArgs{KeepTTL: true})
			return nil
		})
		if err == nil {
			updated = ws
		}
		return err
	}

	for attempt := 0; attempt < workspaceMaxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("workspace update raced, retrying", zap.String("session_id", sessionID), zap.Int("attempt", attempt+1))
			continue
		}
		return nil, err
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "workspace is being modified concurrently")
}

// Delete removes a workspace. Deleting a missing workspace is not an error.
func (r *RedisWorkspaceRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, workspaceKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete workspace %s: %w", sessionID, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisWorkspaceRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func decodeWorkspace(sessionID string, raw []byte) (*models.Workspace, error) {
	var ws models.Workspace
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, fmt.Errorf("unmarshal workspace %s: %w", sessionID, err)
	}
	ws.Dataset.Normalize()
	return &ws, nil
}

type memoryWorkspace struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryWorkspaceRepository keeps workspaces in process memory. Values are stored
// encoded so callers never share state with the store.
type MemoryWorkspaceRepository struct {
	mu    sync.RWMutex
	items map[string]memoryWorkspace
	now   func() time.Time
}

// NewMemoryWorkspaceRepository constructs an in-process store.
func NewMemoryWorkspaceRepository() *MemoryWorkspaceRepository {
	return &MemoryWorkspaceRepository{
		items: make(map[string]memoryWorkspace),
		now:   time.Now,
	}
}

// Create stores a new workspace with the given TTL. A zero TTL never expires.
func (r *MemoryWorkspaceRepository) Create(_ context.Context, ws *models.Workspace, ttl time.Duration) error {
	payload, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("marshal workspace %s: %w", ws.SessionID, err)
	}
	item := memoryWorkspace{payload: payload}
	if ttl > 0 {
		item.expiresAt = r.now().Add(ttl)
	}
	r.mu.Lock()
	r.items[ws.SessionID] = item
	r.mu.Unlock()
	return nil
}

// Get loads a workspace. Missing or expired sessions return appErrors.ErrSessionNotFound.
func (r *MemoryWorkspaceRepository) Get(_ context.Context, sessionID string) (*models.Workspace, error) {
	r.mu.RLock()
	item, ok := r.items[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	if r.expired(item) {
		r.mu.Lock()
		delete(r.items, sessionID)
		r.mu.Unlock()
		return nil, appErrors.ErrSessionNotFound
	}
	return decodeWorkspace(sessionID, item.payload)
}

// Update applies fn while holding the store lock.
func (r *MemoryWorkspaceRepository) Update(_ context.Context, sessionID string, fn WorkspaceMutator) (*models.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[sessionID]
	if !ok || r.expired(item) {
		delete(r.items, sessionID)
		return nil, appErrors.ErrSessionNotFound
	}
	ws, err := decodeWorkspace(sessionID, item.payload)
	if err != nil {
		return nil, err
	}
	if err := fn(ws); err != nil {
		return nil, err
	}
	ws.UpdatedAt = r.now().UTC()
	payload, err := json.Marshal(ws)
	if err != nil {
		return nil, fmt.Errorf("marshal workspace %s: %w", sessionID, err)
	}
	item.payload = payload
	r.items[sessionID] = item

	return decodeWorkspace(sessionID, payload)
}

// Delete removes a workspace.
func (r *MemoryWorkspaceRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.items, sessionID)
	r.mu.Unlock()
	return nil
}

// Sweep drops expired workspaces and returns how many were removed.
func (r *MemoryWorkspaceRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, item := range r.items {
		if r.expired(item) {
			delete(r.items, id)
			removed++
		}
	}
	return removed
}

func (r *MemoryWorkspaceRepository) expired(item memoryWorkspace) bool {
	return !item.expiresAt.IsZero() && r.now().After(item.expiresAt)
}
