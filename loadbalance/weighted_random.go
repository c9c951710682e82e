package loadbalance

import (
	"math/rand"

	"solo-rpc/registry"
)

// WeightedRandomBalancer picks instances with probability proportional to
// their registered Weight, so a box with Weight 10 sees twice the calls of
// a box with Weight 5.
//
// Best for: heterogeneous fleets where instances differ in capacity.
type WeightedRandomBalancer struct{}

// Pick selects a random instance weighted by ServiceInstance.Weight,
// ignoring the key. Instances with no weight set fall back to a uniform
// pick.
func (b *WeightedRandomBalancer) Pick(key string, instances []registry.ServiceInstance) (*registry.ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	totalWeight := 0
	for _, v := range instances {
		totalWeight += v.Weight
	}
	if totalWeight <= 0 {
		return &instances[rand.Intn(len(instances))], nil
	}

	// Walk the list subtracting weights until the random point lands.
	r := rand.Intn(totalWeight)
	for i := range instances {
		r -= instances[i].Weight
		if r < 0 {
			return &instances[i], nil
		}
	}

	// Unreachable: r < totalWeight guarantees the walk terminates above.
	return &instances[len(instances)-1], nil
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
