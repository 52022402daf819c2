// Package svcreg wires a worker into service discovery: register on
// startup, heartbeat on a ticker, deregister on shutdown. Shared by every
// worker's App so the registration dance isn't copy-pasted six times.
package svcreg

import (
	"context"
	"log/slog"
	"time"

	"github.com/orderflow/pipeline/discovery"
	"github.com/orderflow/pipeline/discovery/consul"
)

type Registration struct {
	registry    discovery.Registry
	instanceID  string
	serviceName string
	stopChan    chan struct{}
}

// NewRegistry returns a Consul-backed registry, or nil if addr is empty —
// discovery is optional ambient infra, never load-bearing for the pipeline
// since no worker dials another synchronously.
func NewRegistry(addr string, log *slog.Logger) (discovery.Registry, error) {
	if addr == "" {
		log.Info("consul address not provided, service discovery disabled")
		return nil, nil
	}
	return consul.NewRegistry(addr)
}

// Register registers instanceID/serviceName at hostPort and starts a
// background health-check heartbeat. Returns nil, nil if registry is nil.
func Register(ctx context.Context, registry discovery.Registry, instanceID, serviceName, hostPort string) (*Registration, error) {
	if registry == nil {
		return nil, nil
	}
	if err := registry.Register(ctx, instanceID, serviceName, hostPort); err != nil {
		return nil, err
	}

	r := &Registration{
		registry:    registry,
		instanceID:  instanceID,
		serviceName: serviceName,
		stopChan:    make(chan struct{}),
	}
	go r.heartbeat()
	return r, nil
}

func (r *Registration) heartbeat() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			_ = r.registry.HealthCheck(r.instanceID, r.serviceName)
		}
	}
}

// Deregister stops the heartbeat and removes the registration. No-op if r
// is nil (discovery was disabled).
func (r *Registration) Deregister(ctx context.Context) error {
	if r == nil {
		return nil
	}
	close(r.stopChan)
	return r.registry.Deregister(ctx, r.instanceID, r.serviceName)
}
