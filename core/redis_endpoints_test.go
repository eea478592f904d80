package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestRedisEndpointRegistryRejectsBadURL tests URL validation before any
// connection attempt
func TestRedisEndpointRegistryRejectsBadURL(t *testing.T) {
	_, err := NewRedisEndpointRegistry("not-a-redis-url")
	if err == nil {
		t.Fatal("Expected error for malformed Redis URL")
	}
}

// TestRedisEndpointRegistryAnnounceSnapshot tests the announce/snapshot
// round trip against a live Redis
func TestRedisEndpointRegistryAnnounceSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	// Unique namespace keeps parallel test runs from seeing each other
	namespace := fmt.Sprintf("agentwire-test-%s", uuid.NewString())
	registry, err := NewRedisEndpointRegistryWithNamespace("redis://localhost:6379", namespace)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer registry.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := registry.Announce(ctx, "orders", "orders-addr"); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}
	if err := registry.Announce(ctx, "billing", "billing-addr"); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}

	endpoints, err := registry.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if endpoints["orders"] != "orders-addr" || endpoints["billing"] != "billing-addr" {
		t.Errorf("Expected both announced endpoints, got %v", endpoints)
	}

	if err := registry.Unannounce(ctx, "orders"); err != nil {
		t.Fatalf("Unannounce failed: %v", err)
	}
	endpoints, err = registry.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, exists := endpoints["orders"]; exists {
		t.Error("Expected orders to be gone after Unannounce")
	}
	if _, exists := endpoints["billing"]; !exists {
		t.Error("Expected billing to remain")
	}

	_ = registry.Unannounce(ctx, "billing")
}
