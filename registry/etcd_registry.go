package registry

import (
	"context"
	"encoding/json"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdRegistry implements Registry on etcd v3, used as a distributed
// phonebook:
//
//	Key:   /solo-rpc/{ServiceName}/{Addr}
//	Value: JSON-encoded ServiceInstance
//
// Registration uses TTL-based leases: if the server crashes, the lease
// expires and the entry disappears on its own, so clients never discover
// ghost instances.
type EtcdRegistry struct {
	client *clientv3.Client // etcd client connection (thread-safe, shared across goroutines)
}

const keyPrefix = "/solo-rpc/"

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register adds a service instance to etcd with a TTL lease.
//
// Flow:
//  1. Grant a lease with the given TTL
//  2. Put the key-value pair attached to the lease
//  3. Start KeepAlive to renew the lease in the background
//
// The lease ID stays a local variable, not a struct field, so multiple
// servers can share one EtcdRegistry without racing on it.
func (r *EtcdRegistry) Register(serviceName string, instance ServiceInstance, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, keyPrefix+serviceName+"/"+instance.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Drain KeepAlive responses so the channel never fills up.
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes a service instance from etcd. Called during graceful
// shutdown before the listener closes.
func (r *EtcdRegistry) Deregister(serviceName string, addr string) error {
	_, err := r.client.Delete(context.TODO(), keyPrefix+serviceName+"/"+addr)
	return err
}

// Discover returns all currently registered instances for a service by
// listing the keys under its prefix.
func (r *EtcdRegistry) Discover(serviceName string) ([]ServiceInstance, error) {
	resp, err := r.client.Get(context.TODO(), keyPrefix+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]ServiceInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance ServiceInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // skip malformed entries
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Watch monitors a service prefix and emits updated instance lists on any
// change (new registrations, deregistrations, lease expirations). Uses
// etcd's server-push Watch API rather than polling.
func (r *EtcdRegistry) Watch(serviceName string) <-chan []ServiceInstance {
	ch := make(chan []ServiceInstance, 1)

	go func() {
		watchChan := r.client.Watch(context.TODO(), keyPrefix+serviceName+"/", clientv3.WithPrefix())
		for range watchChan {
			// On any change, re-fetch the full list. Simpler than parsing
			// individual watch events and plenty fast for registry-sized data.
			instances, err := r.Discover(serviceName)
			if err != nil {
				continue
			}
			ch <- instances
		}
	}()

	return ch
}

// Close releases the etcd client connection.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
