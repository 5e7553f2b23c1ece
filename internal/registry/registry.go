// Package registry lets multiple server processes share one namespace of
// lobby codes. spec.md's Manager only knows about lobbies on its own
// process; a deployment running several instances behind a UDP load
// balancer needs a way to resolve "lobby ABCD lives on instance X" before
// routing a join there. Adapted from the teacher's GoRedisAdapter
// (internal/infra/redis_adapter.go), which wraps go-redis the same way.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registry maps lobby codes to the server instance hosting them.
type Registry interface {
	RegisterLobby(ctx context.Context, code, instanceAddr string) error
	ResolveLobby(ctx context.Context, code string) (string, error)
	DeregisterLobby(ctx context.Context, code string) error
	ActiveInstances(ctx context.Context) ([]string, error)
	Close() error
}

const (
	lobbyKeyPrefix = "ocx:lobby:"
	instancesKey   = "ocx:instances"
	lobbyTTL       = 10 * time.Minute
)

// RedisRegistry is the production Registry, backed by Redis.
type RedisRegistry struct {
	rdb *redis.Client
}

// NewRedisRegistry connects to addr and verifies reachability.
func NewRedisRegistry(ctx context.Context, addr, password string, db int) (*RedisRegistry, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("registry: redis ping failed (%s): %w", addr, err)
	}
	return &RedisRegistry{rdb: rdb}, nil
}

// RegisterLobby records that code is hosted by instanceAddr, refreshing the
// TTL. Callers should re-register periodically (e.g. once per tick batch)
// so a crashed instance's lobbies expire rather than dangle.
func (r *RedisRegistry) RegisterLobby(ctx context.Context, code, instanceAddr string) error {
	if err := r.rdb.Set(ctx, lobbyKeyPrefix+code, instanceAddr, lobbyTTL).Err(); err != nil {
		return fmt.Errorf("registry: register lobby %s: %w", code, err)
	}
	return r.rdb.SAdd(ctx, instancesKey, instanceAddr).Err()
}

// ResolveLobby returns the instance address hosting code, or an error if
// unknown/expired.
func (r *RedisRegistry) ResolveLobby(ctx context.Context, code string) (string, error) {
	addr, err := r.rdb.Get(ctx, lobbyKeyPrefix+code).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("registry: no instance registered for lobby %s", code)
	}
	if err != nil {
		return "", fmt.Errorf("registry: resolve lobby %s: %w", code, err)
	}
	return addr, nil
}

// DeregisterLobby removes code's mapping, e.g. when its lobby ends.
func (r *RedisRegistry) DeregisterLobby(ctx context.Context, code string) error {
	return r.rdb.Del(ctx, lobbyKeyPrefix+code).Err()
}

// ActiveInstances lists every instance address that has registered at
// least one lobby and not yet been cleaned up.
func (r *RedisRegistry) ActiveInstances(ctx context.Context) ([]string, error) {
	return r.rdb.SMembers(ctx, instancesKey).Result()
}

func (r *RedisRegistry) Close() error {
	return r.rdb.Close()
}
