package svcreg

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/orderflow/pipeline/discovery/inmem"
)

func TestRegisterDeregister(t *testing.T) {
	registry := inmem.NewRegistry()
	log := slog.Default()

	reg, err := Register(context.Background(), registry, "orderworker-1", "orderworker", "127.0.0.1:9103")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg == nil {
		t.Fatal("expected non-nil registration for a non-nil registry")
	}

	addrs, err := registry.Discover(context.Background(), "orderworker")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "127.0.0.1:9103" {
		t.Fatalf("unexpected addresses: %v", addrs)
	}

	if err := reg.Deregister(context.Background()); err != nil {
		t.Fatalf("Deregister: %v", err)
	}
	if _, err := registry.Discover(context.Background(), "orderworker"); err == nil {
		t.Fatal("expected error discovering a deregistered service")
	}

	_ = log
}

func TestNewRegistryDisabledWithoutAddr(t *testing.T) {
	registry, err := NewRegistry("", slog.Default())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if registry != nil {
		t.Fatal("expected a nil registry when no consul address is configured")
	}

	reg, err := Register(context.Background(), registry, "orderworker-1", "orderworker", "127.0.0.1:9103")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg != nil {
		t.Fatal("expected a nil registration when discovery is disabled")
	}
	if err := reg.Deregister(context.Background()); err != nil {
		t.Fatalf("Deregister on nil registration should be a no-op: %v", err)
	}
}

func TestHeartbeatKeepsInstanceAlive(t *testing.T) {
	registry := inmem.NewRegistry()

	reg, err := Register(context.Background(), registry, "stockworker-1", "stockworker", "127.0.0.1:9104")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer reg.Deregister(context.Background())

	time.Sleep(50 * time.Millisecond)
	if err := registry.HealthCheck("stockworker-1", "stockworker"); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
