package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisEndpointRegistry publishes service endpoints to Redis and resolves
// the current endpoint map from it. It is an optional collaborator: a
// deployment announces each service with a TTL heartbeat, and callers feed
// Snapshot into Config.Endpoints instead of maintaining static files.
type RedisEndpointRegistry struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    Logger
}

// NewRedisEndpointRegistry creates a registry client with the default
// namespace
func NewRedisEndpointRegistry(redisURL string) (*RedisEndpointRegistry, error) {
	return NewRedisEndpointRegistryWithNamespace(redisURL, "agentwire")
}

// NewRedisEndpointRegistryWithNamespace creates a registry client with a
// custom key namespace
func NewRedisEndpointRegistryWithNamespace(redisURL, namespace string) (*RedisEndpointRegistry, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisEndpointRegistry{
		client:    client,
		namespace: namespace,
		ttl:       30 * time.Second,
		logger:    &NoOpLogger{},
	}, nil
}

// SetLogger replaces the registry's logger
func (r *RedisEndpointRegistry) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

func (r *RedisEndpointRegistry) key(name string) string {
	return fmt.Sprintf("%s:endpoints:%s", r.namespace, name)
}

// Announce publishes a service endpoint with the registry TTL. Callers are
// expected to re-announce before the TTL lapses; see StartHeartbeat.
func (r *RedisEndpointRegistry) Announce(ctx context.Context, name, address string) error {
	if err := r.client.Set(ctx, r.key(name), address, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to announce endpoint %s: %w", name, err)
	}
	return nil
}

// Unannounce removes a service endpoint
func (r *RedisEndpointRegistry) Unannounce(ctx context.Context, name string) error {
	return r.client.Del(ctx, r.key(name)).Err()
}

// Snapshot returns the current service-name to address map
func (r *RedisEndpointRegistry) Snapshot(ctx context.Context) (map[string]string, error) {
	endpoints := make(map[string]string)
	prefix := fmt.Sprintf("%s:endpoints:", r.namespace)

	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		address, err := r.client.Get(ctx, key).Result()
		if err != nil {
			continue // Endpoint might have expired between scan and get
		}
		endpoints[strings.TrimPrefix(key, prefix)] = address
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan endpoints: %w", err)
	}

	return endpoints, nil
}

// StartHeartbeat re-announces the endpoint at half the TTL until ctx is
// cancelled, keeping the registration alive
func (r *RedisEndpointRegistry) StartHeartbeat(ctx context.Context, name, address string) {
	ticker := time.NewTicker(r.ttl / 2)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Announce(ctx, name, address); err != nil {
					// Transient registry failures are expected; keep beating
					r.logger.Warn("Endpoint heartbeat failed", map[string]interface{}{
						"service": name,
						"error":   err.Error(),
					})
				}
			}
		}
	}()
}

// Close releases the underlying Redis connection
func (r *RedisEndpointRegistry) Close() error {
	return r.client.Close()
}
