package loadbalance

import (
	"go.uber.org/atomic"

	"solo-rpc/registry"
)

// RoundRobinBalancer distributes calls evenly across all instances in
// order. Uses an atomic counter for lock-free, goroutine-safe operation.
//
// Best for: stateless services where all instances have similar capacity.
type RoundRobinBalancer struct {
	counter atomic.Int64 // incremented on each Pick
}

// Pick selects the next instance in round-robin order, ignoring the key.
func (b *RoundRobinBalancer) Pick(key string, instances []registry.ServiceInstance) (*registry.ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}
	index := b.counter.Add(1) % int64(len(instances))
	return &instances[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
