// Package server implements the RPC server: procedure registration, the
// accept loop, dispatch through the middleware chain, and graceful
// shutdown.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (one goroutine per connection)
//	  → ReadRequest → Middleware Chain → dispatch
//	    → Handler.Decode → state.Apply(Handler.Exec) → Handler.Encode
//	  → WriteResponse → close conn
//
// Each connection carries exactly one call. Connections are handled in
// parallel, but every Exec runs under the state container's lock, so
// handlers are serialized with respect to each other: a handler never sees
// the state mid-mutation, and the effects of one call are visible to every
// later call, including mutations made by handlers that went on to fail.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"solo-rpc/config"
	"solo-rpc/message"
	"solo-rpc/middleware"
	"solo-rpc/procedure"
	"solo-rpc/protocol"
	"solo-rpc/registry"
	"solo-rpc/rpcerror"
	"solo-rpc/state"
)

// Server is the RPC server. Configure it (AddRPC, Use, EnableRegistry,
// timeouts) before calling Serve; configuration is not safe to change
// while serving.
type Server struct {
	// ReadTimeout bounds how long a connection may take to deliver its
	// request frame. Zero means no limit.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response frame. Zero means no limit.
	WriteTimeout time.Duration

	handlers    map[procedure.ID]procedure.Handler
	state       *state.Container
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc // final chain, built when serving starts
	logger      *zap.Logger
	stats       Stats

	mu       sync.Mutex // guards listener and the serving flag
	listener net.Listener
	serving  bool
	shutdown atomic.Bool // set during Shutdown to suppress the Accept error
	wg       sync.WaitGroup

	reg            registry.Registry
	serviceName    string
	advertiseAddr  string
	registryTTL    int64
	registeredAddr string // what actually went into the registry, for Deregister
}

// New creates a server that shares initialState across all handlers. The
// server owns the value from here on: handlers reach it only through their
// Exec calls, one at a time.
func New(initialState any) *Server {
	return &Server{
		handlers: make(map[procedure.ID]procedure.Handler),
		state:    state.NewContainer(initialState),
		logger:   zap.NewNop(),
	}
}

// NewFromConfig builds a server from a loaded configuration: timeouts,
// rate limiting, and etcd registration when endpoints are configured.
func NewFromConfig(initialState any, cfg *config.Config) (*Server, error) {
	svr := New(initialState)
	svr.ReadTimeout = cfg.Server.ReadTimeout
	svr.WriteTimeout = cfg.Server.WriteTimeout

	if cfg.Server.RateLimit > 0 {
		svr.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}

	if len(cfg.Registry.Endpoints) > 0 {
		reg, err := registry.NewEtcdRegistry(cfg.Registry.Endpoints)
		if err != nil {
			return nil, fmt.Errorf("connect registry: %w", err)
		}
		svr.EnableRegistry(reg, cfg.Server.ServiceName, cfg.Server.AdvertiseAddr, cfg.Registry.TTL)
	}

	return svr, nil
}

// SetLogger replaces the default no-op logger.
func (svr *Server) SetLogger(logger *zap.Logger) {
	svr.logger = logger
}

// Use appends a middleware. Middlewares run in the order they were added,
// outermost first.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// AddRPC registers the server role of a procedure. Each procedure ID can
// be bound once; a second binding reports rpcerror.ErrRegistrationConflict
// and leaves the first in place. Registration is rejected once the server
// is serving.
func (svr *Server) AddRPC(h procedure.Handler) error {
	svr.mu.Lock()
	defer svr.mu.Unlock()

	if svr.serving {
		return fmt.Errorf("add %v: server already serving", h.ID())
	}
	if _, exists := svr.handlers[h.ID()]; exists {
		return fmt.Errorf("add %v: %w", h.ID(), rpcerror.ErrRegistrationConflict)
	}
	svr.handlers[h.ID()] = h
	return nil
}

// MustAddRPC is AddRPC that panics on conflict. Registration happens at
// startup with a fixed procedure set, where a conflict is a programming
// error worth dying for.
func (svr *Server) MustAddRPC(h procedure.Handler) {
	if err := svr.AddRPC(h); err != nil {
		panic(err)
	}
}

// EnableRegistry makes Serve register this server under serviceName and
// Shutdown deregister it. advertiseAddr is what goes into the registry —
// it differs from the listen address when the server listens on ":0" or
// behind NAT; leave it empty to advertise the listener's own address.
func (svr *Server) EnableRegistry(reg registry.Registry, serviceName, advertiseAddr string, ttl int64) {
	svr.reg = reg
	svr.serviceName = serviceName
	svr.advertiseAddr = advertiseAddr
	svr.registryTTL = ttl
}

// Serve listens on the given network and address and accepts connections
// until Shutdown. It returns nil after a clean shutdown, or the first
// fatal listener error.
func (svr *Server) Serve(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	return svr.ServeListener(listener)
}

// ServeListener is Serve for a listener the caller already owns. Tests use
// it with a "127.0.0.1:0" listener to get a free port without sleeping.
func (svr *Server) ServeListener(listener net.Listener) error {
	svr.mu.Lock()
	svr.listener = listener
	svr.serving = true
	// Build the middleware chain once at startup, not per request.
	svr.handler = middleware.Chain(svr.middlewares...)(svr.dispatch)
	svr.mu.Unlock()

	if svr.reg != nil {
		addr := svr.advertiseAddr
		if addr == "" {
			addr = listener.Addr().String()
		}
		instance := registry.ServiceInstance{Addr: addr}
		if err := svr.reg.Register(svr.serviceName, instance, svr.registryTTL); err != nil {
			listener.Close()
			return fmt.Errorf("register %s: %w", svr.serviceName, err)
		}
		svr.registeredAddr = addr
		svr.logger.Info("registered",
			zap.String("service", svr.serviceName),
			zap.String("addr", addr),
		)
	}

	svr.logger.Info("serving", zap.String("addr", listener.Addr().String()))

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Shutdown closes the listener, which surfaces here as an
			// Accept error. The flag tells an intentional close from a
			// real failure.
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		svr.wg.Add(1)
		go svr.handleConn(conn)
	}
}

// Addr returns the address the server is listening on, or nil before
// Serve. Useful after listening on ":0".
func (svr *Server) Addr() net.Addr {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

// handleConn serves the one call a connection carries: read the request
// frame, dispatch, write the response frame, close.
//
// A request that cannot be framed gets no response — there is no way to
// know what was being asked, and writing a response frame into a stream
// that is mid-garbage would only confuse the peer. The connection is
// closed and the client reports it as a connection/framing failure.
func (svr *Server) handleConn(conn net.Conn) {
	defer svr.wg.Done()
	defer conn.Close()
	// A panic in framing or dispatch must not take down the accept loop.
	// Handler panics are already contained by the Recovery middleware when
	// installed; this is the last line for everything else.
	defer func() {
		if x := recover(); x != nil {
			svr.logger.Error("connection handler panic",
				zap.Any("panic", x),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	svr.stats.conns.Inc()

	if svr.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(svr.ReadTimeout))
	}

	proc, payload, err := protocol.ReadRequest(conn)
	if err != nil {
		svr.stats.framingErrors.Inc()
		svr.logger.Warn("dropping connection",
			zap.String("remote", conn.RemoteAddr().String()),
			zap.Error(err),
		)
		return
	}

	resp := svr.handler(context.Background(), &message.Request{Proc: proc, Payload: payload})

	svr.stats.served.Inc()
	if resp.Status != protocol.StatusOK {
		svr.stats.failed.Inc()
	}

	if svr.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(svr.WriteTimeout))
	}
	if err := protocol.WriteResponse(conn, resp.Status, resp.Payload); err != nil {
		svr.logger.Warn("write response",
			zap.Stringer("proc", proc),
			zap.Error(err),
		)
	}
}

// dispatch is the innermost HandlerFunc: procedure lookup, decode, the
// locked Exec, encode. The middleware chain wraps it.
func (svr *Server) dispatch(ctx context.Context, req *message.Request) *message.Response {
	h, ok := svr.handlers[req.Proc]
	if !ok {
		// Answered without touching state: a caller with a stale procedure
		// table gets a clean error and corrupts nothing.
		svr.stats.unknownProcedure.Inc()
		return message.Fail(protocol.StatusInternal, rpcerror.KindUnknownProcedure,
			fmt.Sprintf("no handler for %v", req.Proc))
	}

	// Decode outside the lock: a malformed query is rejected without ever
	// serializing against other handlers.
	query, err := h.Decode(req.Payload)
	if err != nil {
		return message.Fail(protocol.StatusInternal, rpcerror.KindDecode,
			fmt.Sprintf("%v: %v", req.Proc, err))
	}

	resp, err := svr.state.Apply(func(st any) (any, error) {
		return h.Exec(st, query)
	})
	if err != nil {
		// The handler failed. Whatever it mutated before failing stays;
		// the error is reported, not rolled back.
		return message.Fail(protocol.StatusAppError, rpcerror.KindApp, err.Error())
	}

	payload, err := h.Encode(resp)
	if err != nil {
		return message.Fail(protocol.StatusInternal, rpcerror.KindInternal,
			fmt.Sprintf("%v: encode response: %v", req.Proc, err))
	}

	return &message.Response{Status: protocol.StatusOK, Payload: payload}
}

// Shutdown performs graceful shutdown:
//  1. Deregister from the registry (clients stop routing here)
//  2. Set the shutdown flag, then close the listener (no new connections)
//  3. Wait for in-flight calls, up to the timeout
func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.reg != nil && svr.registeredAddr != "" {
		if err := svr.reg.Deregister(svr.serviceName, svr.registeredAddr); err != nil {
			svr.logger.Warn("deregister", zap.Error(err))
		}
	}

	// Flag before close: if the listener closed first, Serve could see the
	// Accept error before the flag and report a phantom failure.
	svr.shutdown.Store(true)
	svr.mu.Lock()
	listener := svr.listener
	svr.mu.Unlock()
	if listener != nil {
		listener.Close()
	}

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		svr.logger.Info("shutdown complete")
		return nil
	case <-time.After(timeout):
		return errors.New("shutdown: timeout waiting for in-flight calls")
	}
}
