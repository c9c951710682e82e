package registry

import (
	"fmt"
	"sync"
)

// StaticRegistry implements Registry with an in-memory table. It is meant
// for tests and for small fixed topologies where running etcd would be
// overkill; there are no leases, so entries live until deregistered.
type StaticRegistry struct {
	mu       sync.RWMutex
	services map[string][]ServiceInstance
	watchers map[string][]chan []ServiceInstance
}

// NewStaticRegistry returns an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		services: make(map[string][]ServiceInstance),
		watchers: make(map[string][]chan []ServiceInstance),
	}
}

// Register adds an instance. The ttl is accepted for interface
// compatibility and ignored: static entries do not expire.
func (r *StaticRegistry) Register(serviceName string, instance ServiceInstance, ttl int64) error {
	r.mu.Lock()
	for _, existing := range r.services[serviceName] {
		if existing.Addr == instance.Addr {
			r.mu.Unlock()
			return fmt.Errorf("instance %s already registered for %s", instance.Addr, serviceName)
		}
	}
	r.services[serviceName] = append(r.services[serviceName], instance)
	r.mu.Unlock()

	r.notify(serviceName)
	return nil
}

// Deregister removes the instance registered under addr, if present.
func (r *StaticRegistry) Deregister(serviceName string, addr string) error {
	r.mu.Lock()
	instances := r.services[serviceName]
	for i, instance := range instances {
		if instance.Addr == addr {
			r.services[serviceName] = append(instances[:i], instances[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.notify(serviceName)
	return nil
}

// Discover returns a copy of the instance list, so callers can hold it
// without racing against later registrations.
func (r *StaticRegistry) Discover(serviceName string) ([]ServiceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]ServiceInstance, len(r.services[serviceName]))
	copy(instances, r.services[serviceName])
	return instances, nil
}

// Watch emits the instance list after every Register or Deregister for the
// service.
func (r *StaticRegistry) Watch(serviceName string) <-chan []ServiceInstance {
	ch := make(chan []ServiceInstance, 1)
	r.mu.Lock()
	r.watchers[serviceName] = append(r.watchers[serviceName], ch)
	r.mu.Unlock()
	return ch
}

func (r *StaticRegistry) notify(serviceName string) {
	instances, _ := r.Discover(serviceName)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.watchers[serviceName] {
		// Drop the update if the watcher is not keeping up — the next
		// change will carry the fresh list anyway.
		select {
		case ch <- instances:
		default:
		}
	}
}
