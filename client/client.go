// Package client implements the calling side of solo-rpc.
//
// The base operation is Call: dial the server, write one request frame,
// read one response frame, hang up. One connection per call keeps the
// client stateless — no pool to manage, no multiplexing to match up — at
// the cost of a dial per call.
//
// Client layers service discovery on top: resolve a service name through
// a registry, balance across the live instances, and bound each call with
// a default timeout.
package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"go.uber.org/zap"

	"solo-rpc/config"
	"solo-rpc/loadbalance"
	"solo-rpc/procedure"
	"solo-rpc/protocol"
	"solo-rpc/registry"
	"solo-rpc/rpcerror"
)

// Call performs one RPC against addr. The context bounds the whole
// exchange: dial, write, and read. reply must be a pointer; on success it
// receives the decoded response value.
//
// Every returned error belongs to the rpcerror taxonomy, so callers can
// branch with errors.As: *ConnectionError (dial/write), *FramingError
// (malformed or truncated response, including the server hanging up
// without one), *AppError (the handler failed), *UnknownProcedureError,
// *ServerInternalError, *DecodeError, *EncodeError.
func Call(ctx context.Context, addr string, caller procedure.Caller, query any, reply any) error {
	payload, err := caller.EncodeQuery(query)
	if err != nil {
		return &rpcerror.EncodeError{What: "query", Err: err}
	}
	return callRaw(ctx, addr, caller, payload, reply)
}

// callRaw is Call after query encoding: one dial, one frame out, one frame
// back.
func callRaw(ctx context.Context, addr string, caller procedure.Caller, payload []byte, reply any) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &rpcerror.ConnectionError{Op: "dial", Addr: addr, Err: err}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := protocol.WriteRequest(conn, caller.ID(), payload); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &rpcerror.ConnectionError{Op: "write", Addr: addr, Err: err}
	}

	status, body, err := protocol.ReadResponse(conn)
	if err != nil {
		// When the deadline killed the read, surface the context's verdict
		// so errors.Is(err, context.DeadlineExceeded) holds.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &rpcerror.FramingError{Err: ctxErr}
		}
		return err
	}

	if status != protocol.StatusOK {
		descr, err := rpcerror.ParseBody(body)
		if err != nil {
			return err
		}
		return rpcerror.FromBody(descr)
	}

	if err := caller.DecodeResponse(body, reply); err != nil {
		return &rpcerror.DecodeError{What: "response", Err: err}
	}
	return nil
}

// discoveryCacheSize bounds how many service names a client caches
// instance lists for.
const discoveryCacheSize = 128

// Client calls procedures by service name instead of address: the registry
// resolves the name, the balancer picks an instance, and a default timeout
// bounds each call. Safe for concurrent use.
type Client struct {
	// CallTimeout applies to calls whose context carries no deadline of
	// its own. Zero disables the default.
	CallTimeout time.Duration

	reg      registry.Registry
	balancer loadbalance.Balancer
	logger   *zap.Logger

	// Discovery results are cached briefly so a burst of calls does not
	// become a burst of registry reads. LRU-bounded by service name.
	mu       sync.Mutex
	cache    *lru.Cache
	cacheTTL time.Duration
}

type cachedInstances struct {
	instances []registry.ServiceInstance
	fetchedAt time.Time
}

// NewClient builds a discovery client over a registry and a balancing
// strategy.
func NewClient(reg registry.Registry, balancer loadbalance.Balancer) *Client {
	return &Client{
		CallTimeout: 3 * time.Second,
		reg:         reg,
		balancer:    balancer,
		logger:      zap.NewNop(),
		cache:       lru.New(discoveryCacheSize),
		cacheTTL:    time.Second,
	}
}

// NewClientFromConfig builds a discovery client with the configured
// balancer, timeout, and cache TTL.
func NewClientFromConfig(reg registry.Registry, cfg *config.Config) (*Client, error) {
	balancer, err := balancerFor(cfg.Client.Balancer)
	if err != nil {
		return nil, err
	}

	c := NewClient(reg, balancer)
	c.CallTimeout = cfg.Client.CallTimeout
	if cfg.Client.CacheTTL > 0 {
		c.cacheTTL = cfg.Client.CacheTTL
	}
	return c, nil
}

func balancerFor(name string) (loadbalance.Balancer, error) {
	switch name {
	case "", "roundrobin":
		return &loadbalance.RoundRobinBalancer{}, nil
	case "weighted":
		return &loadbalance.WeightedRandomBalancer{}, nil
	case "hash":
		return loadbalance.NewConsistentHashBalancer(), nil
	default:
		return nil, fmt.Errorf("unknown balancer %q", name)
	}
}

// SetLogger replaces the default no-op logger.
func (c *Client) SetLogger(logger *zap.Logger) {
	c.logger = logger
}

// Call resolves service and performs one RPC against a picked instance.
func (c *Client) Call(ctx context.Context, service string, caller procedure.Caller, query any, reply any) error {
	return c.CallWithKey(ctx, service, "", caller, query, reply)
}

// CallWithKey is Call with an explicit affinity key for balancers that use
// one: with the hash balancer, equal keys land on the same instance as long
// as the instance set holds still. An empty key falls back to the encoded
// query bytes, so affinity is per-query unless the caller says otherwise.
func (c *Client) CallWithKey(ctx context.Context, service, key string, caller procedure.Caller, query any, reply any) error {
	payload, err := caller.EncodeQuery(query)
	if err != nil {
		return &rpcerror.EncodeError{What: "query", Err: err}
	}
	if key == "" {
		key = string(payload)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.CallTimeout)
		defer cancel()
	}

	instances, err := c.discover(service)
	if err != nil {
		return err
	}

	instance, err := c.balancer.Pick(key, instances)
	if err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}

	if err := callRaw(ctx, instance.Addr, caller, payload, reply); err != nil {
		c.logger.Debug("call failed",
			zap.String("service", service),
			zap.String("addr", instance.Addr),
			zap.Stringer("proc", caller.ID()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// discover returns the instance list for service, from cache when fresh.
func (c *Client) discover(service string) ([]registry.ServiceInstance, error) {
	c.mu.Lock()
	if v, ok := c.cache.Get(lru.Key(service)); ok {
		entry := v.(*cachedInstances)
		if time.Since(entry.fetchedAt) < c.cacheTTL {
			instances := entry.instances
			c.mu.Unlock()
			return instances, nil
		}
	}
	c.mu.Unlock()

	instances, err := c.reg.Discover(service)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", service, err)
	}

	c.mu.Lock()
	c.cache.Add(lru.Key(service), &cachedInstances{instances: instances, fetchedAt: time.Now()})
	c.mu.Unlock()

	return instances, nil
}
