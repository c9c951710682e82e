// Package loadbalance provides load balancing strategies for distributing
// RPC calls across multiple service instances.
//
// Three strategies are implemented:
//   - RoundRobin:      stateless services, equal-capacity instances
//   - WeightedRandom:  heterogeneous instances (different CPU/memory)
//   - ConsistentHash:  calls that want affinity (same key, same instance)
package loadbalance

import (
	"errors"

	"solo-rpc/registry"
)

// ErrNoInstances is returned when the candidate list is empty — typically
// a service with no live registrations.
var ErrNoInstances = errors.New("no instances available")

// Balancer is the interface for load balancing strategies.
// The client calls Pick before each RPC to select a target instance.
type Balancer interface {
	// Pick selects one instance from the available list. key carries the
	// affinity key for strategies that use one (consistent hashing);
	// stateless strategies ignore it. Called on every RPC — must be
	// goroutine-safe.
	Pick(key string, instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
