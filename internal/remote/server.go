package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"sync"

	msgpackrpc "github.com/hashicorp/net-rpc-msgpackrpc"
	"github.com/rs/zerolog"

	"github.com/GitTumb/QuFRes/internal/circuit"
	"github.com/GitTumb/QuFRes/internal/sim"
)

// #region service

// Backend is the RPC service exposed by a simulator host.
type Backend struct {
	sim *sim.Simulator
	log zerolog.Logger
}

// Execute samples the program and returns the outcome histogram.
func (b *Backend) Execute(req ExecuteRequest, resp *ExecuteResponse) error {
	counts, err := b.sim.Execute(context.Background(), &req.Program, req.Shots, req.Seed)
	if err != nil {
		b.log.Warn().
			Err(err).
			Str("task", string(req.Program.Task)).
			Int("shots", req.Shots).
			Msg("execution failed")
		return err
	}
	resp.Counts = counts
	return nil
}

// Ping reports the backend's qubit capacity.
func (b *Backend) Ping(_ PingRequest, resp *PingResponse) error {
	resp.MaxQubits = b.sim.MaxQubits()
	return nil
}

// #endregion

// #region server

// Server accepts msgpack-RPC connections and serves Backend on each.
type Server struct {
	ln  net.Listener
	rpc *rpc.Server
	log zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// NewServer binds addr and registers the Backend service.
func NewServer(addr string, simulator *sim.Simulator, log zerolog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := rpc.NewServer()
	backend := &Backend{sim: simulator, log: log.With().Str("component", "backend").Logger()}
	if err := srv.RegisterName("Backend", backend); err != nil {
		ln.Close()
		return nil, fmt.Errorf("register backend service: %w", err)
	}

	return &Server{ln: ln, rpc: srv, log: log}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Serve accepts connections until Close is called. Each connection gets
// its own goroutine.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.log.Debug().Str("peer", conn.RemoteAddr().String()).Msg("connection accepted")
		go s.rpc.ServeCodec(msgpackrpc.NewServerCodec(conn))
	}
}

// Close stops the accept loop.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.ln.Close()
}

// #endregion

// #region client

// Client talks to a remote Backend and satisfies the executor contract
// used by the resampling pipeline.
type Client struct {
	rpc *rpc.Client
	log zerolog.Logger
}

// Dial connects to a backend at addr.
func Dial(addr string, log zerolog.Logger) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to backend %s: %w", addr, err)
	}
	client := rpc.NewClientWithCodec(msgpackrpc.NewClientCodec(conn))
	return &Client{
		rpc: client,
		log: log.With().Str("component", "remote_executor").Logger(),
	}, nil
}

// Execute runs the program on the remote backend. Cancelling ctx
// abandons the in-flight call; the underlying connection stays usable
// for later calls.
func (c *Client) Execute(ctx context.Context, prog *circuit.Program, shots int, seed int64) (map[int]int, error) {
	req := ExecuteRequest{Program: *prog, Shots: shots, Seed: seed}
	var resp ExecuteResponse

	call := c.rpc.Go("Backend.Execute", req, &resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case done := <-call.Done:
		if done.Error != nil {
			return nil, fmt.Errorf("remote execute: %w", done.Error)
		}
	}
	if resp.Counts == nil {
		return nil, errors.New("remote execute: empty response")
	}
	return resp.Counts, nil
}

// Ping checks liveness and returns the backend's qubit capacity.
func (c *Client) Ping(ctx context.Context) (int, error) {
	var resp PingResponse
	call := c.rpc.Go("Backend.Ping", PingRequest{}, &resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case done := <-call.Done:
		if done.Error != nil {
			return 0, fmt.Errorf("ping backend: %w", done.Error)
		}
	}
	return resp.MaxQubits, nil
}

// Close tears down the connection.
func (c *Client) Close() error { return c.rpc.Close() }

// #endregion
