package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"
	"strings"
	"sync"

	"solo-rpc/registry"
)

// ConsistentHashBalancer maps keys to instances using a hash ring.
// The same key always maps to the same instance (until the instance set
// changes), giving cache affinity — useful when instances keep per-key
// state or local caches.
//
// Virtual nodes: each real instance is mapped to N points on the ring.
// Without them, three instances might cluster together and split load
// unevenly; 100 virtual nodes per instance gives statistical uniformity.
//
//	Hash Ring:
//	                  0
//	                ╱   ╲
//	              ╱       ╲
//	         B ●               ● A
//	           │    key ◆──►   │   (clockwise to nearest node → A)
//	         C ●               ● A' (virtual node of A)
//	              ╲       ╱
//	                ╲   ╱
type ConsistentHashBalancer struct {
	replicas int // virtual nodes per real instance

	mu          sync.Mutex
	fingerprint string   // addresses of the instance set the ring was built from
	ring        []uint32 // sorted hash values on the ring
	nodes       map[uint32]registry.ServiceInstance
}

// NewConsistentHashBalancer creates a balancer with 100 virtual nodes per
// instance.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		nodes:    make(map[uint32]registry.ServiceInstance),
	}
}

// Pick finds the instance responsible for the key: hash it, then binary
// search for the first ring node at or past the hash, wrapping to the
// first node when the hash is larger than all of them.
//
// The ring is rebuilt whenever the instance set differs from the one the
// current ring was built from, so discovery changes (new instances, lease
// expiries) take effect on the next call.
func (b *ConsistentHashBalancer) Pick(key string, instances []registry.ServiceInstance) (*registry.ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.rebuildIfChanged(instances)

	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}

	picked := b.nodes[b.ring[idx]]
	return &picked, nil
}

// rebuildIfChanged re-rings when the instance set differs from last time.
// Caller holds b.mu.
func (b *ConsistentHashBalancer) rebuildIfChanged(instances []registry.ServiceInstance) {
	addrs := make([]string, len(instances))
	for i, instance := range instances {
		addrs[i] = instance.Addr
	}
	sort.Strings(addrs)
	fingerprint := strings.Join(addrs, ",")
	if fingerprint == b.fingerprint {
		return
	}

	b.fingerprint = fingerprint
	b.ring = b.ring[:0]
	clear(b.nodes)

	// Each virtual node hashes "{addr}#{i}" to spread instances evenly.
	for _, instance := range instances {
		for i := 0; i < b.replicas; i++ {
			hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", instance.Addr, i)))
			b.ring = append(b.ring, hash)
			b.nodes[hash] = instance
		}
	}
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
