// Package registry maps service names to live server instances.
//
// A solo-rpc server can register itself under a service name at startup
// and deregister during shutdown; discovery clients resolve the name to an
// address list before dialing. Two implementations are provided: etcd for
// real deployments and a static in-memory table for tests and fixed
// topologies.
package registry

// ServiceInstance is one reachable server for a service.
type ServiceInstance struct {
	Addr    string // host:port the instance serves on
	Weight  int    // relative capacity, consumed by weighted balancers
	Version string
}

// Registry is the discovery surface shared by all implementations.
type Registry interface {
	// Register adds an instance under a service name. ttl is the lease
	// duration in seconds for implementations that expire entries.
	Register(serviceName string, instance ServiceInstance, ttl int64) error

	// Deregister removes the instance registered under addr.
	Deregister(serviceName string, addr string) error

	// Discover returns all currently registered instances for a service.
	Discover(serviceName string) ([]ServiceInstance, error)

	// Watch emits updated instance lists whenever the set changes.
	Watch(serviceName string) <-chan []ServiceInstance
}
