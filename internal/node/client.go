// Package node implements the lazy-reconnecting node-client façade
// described in spec.md §4.3 (C3): a single gRPC channel shared by
// typed sub-clients for auth, bank, wasm, tx, reflection and raw
// queries, with reconnection driven by the status codes the remote
// end returns.
package node

import (
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	guard "github.com/nolus-protocol/chain-ops/internal/defer"
	"github.com/nolus-protocol/chain-ops/internal/log"
	"github.com/nolus-protocol/chain-ops/internal/metrics"
)

var logger = log.New(log.ModuleNode)

// Dialer abstracts the construction of a gRPC channel so tests can
// substitute an in-memory/bufconn transport without a real endpoint.
type Dialer func(endpoint string) (*grpc.ClientConn, error)

func defaultDialer(endpoint string) (*grpc.ClientConn, error) {
	return grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// sharedState is the single heap-allocated record the design notes
// (spec.md §9) call for: the reconnect flag and the transport slot,
// addressable independently of the Client handles that reference it,
// avoiding a back-pointer cycle between sub-clients and the façade.
type sharedState struct {
	endpoint        string
	dial            Dialer
	mu              sync.Mutex
	conn            *grpc.ClientConn
	shouldReconnect atomic.Bool
}

// acquire returns the current connection, first reconnecting if the
// flag is set. The reconnect critical section is the only place the
// flag is cleared (spec.md §5: single-writer-any-reader, last writer
// wins, clearing only happens inside the reconnect section).
func (s *sharedState) acquire() (*grpc.ClientConn, error) {
	if !s.shouldReconnect.Load() {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		return conn, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldReconnect.Load() {
		newConn, err := s.dial(s.endpoint)
		if err != nil {
			return nil, err
		}
		old := s.conn
		s.conn = newConn
		s.shouldReconnect.Store(false)
		if old != nil {
			_ = old.Close()
		}
		logger.Info("reconnected to node", "endpoint", s.endpoint)
		metrics.NodeReconnects.Inc()
	}
	return s.conn, nil
}

func (s *sharedState) markReconnect() {
	s.shouldReconnect.Store(true)
}

// Client is the node-client façade: acquiring any sub-client first
// checks the reconnect flag, possibly re-establishing the channel,
// before returning a typed wrapper bound to the current transport
// (spec.md §4.3).
type Client struct {
	state  *sharedState
	closer *guard.Guard[*sharedState]
}

// New dials endpoint and returns a ready Client.
func New(endpoint string) (*Client, error) {
	return NewWithDialer(endpoint, defaultDialer)
}

// NewWithDialer is New with an injectable Dialer, used by tests.
func NewWithDialer(endpoint string, dial Dialer) (*Client, error) {
	conn, err := dial(endpoint)
	if err != nil {
		return nil, err
	}
	state := &sharedState{endpoint: endpoint, dial: dial, conn: conn}
	closer := guard.New(state, func(s *sharedState) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
	return &Client{state: state, closer: closer}, nil
}

// Close releases the underlying channel exactly once, however many
// times it is called — a service's shutdown path and a deferred
// cleanup at the call site can both call Close without double-closing
// the channel.
func (c *Client) Close() error {
	c.closer.Release()
	return nil
}

// classify inspects err's gRPC status code and, if it indicates a
// broken or unreliable transport, raises the shared reconnect flag.
// The original error is always returned unchanged to the caller
// (spec.md §4.3: "the current error is still returned to the
// caller").
func (c *Client) classify(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Unknown, codes.Canceled:
		c.state.markReconnect()
	}
	return err
}

// Auth returns a QueryAuth bound to the current transport.
func (c *Client) Auth() (QueryAuth, error) {
	conn, err := c.state.acquire()
	if err != nil {
		return QueryAuth{}, err
	}
	return QueryAuth{conn: conn, classify: c.classify}, nil
}

// Bank returns a QueryBank bound to the current transport.
func (c *Client) Bank() (QueryBank, error) {
	conn, err := c.state.acquire()
	if err != nil {
		return QueryBank{}, err
	}
	return QueryBank{conn: conn, classify: c.classify}, nil
}

// Wasm returns a QueryWasm bound to the current transport.
func (c *Client) Wasm() (QueryWasm, error) {
	conn, err := c.state.acquire()
	if err != nil {
		return QueryWasm{}, err
	}
	return QueryWasm{conn: conn, classify: c.classify}, nil
}

// Tx returns a QueryTx bound to the current transport.
func (c *Client) Tx() (QueryTx, error) {
	conn, err := c.state.acquire()
	if err != nil {
		return QueryTx{}, err
	}
	return QueryTx{conn: conn, classify: c.classify}, nil
}

// Reflection returns a QueryReflection bound to the current transport.
func (c *Client) Reflection() (QueryReflection, error) {
	conn, err := c.state.acquire()
	if err != nil {
		return QueryReflection{}, err
	}
	return QueryReflection{conn: conn, classify: c.classify}, nil
}

// Raw returns a QueryRaw bound to the current transport, for
// application-specific protobuf queries this façade doesn't know the
// shape of ahead of time (e.g. an Osmosis SpotPriceV2 query).
func (c *Client) Raw() (QueryRaw, error) {
	conn, err := c.state.acquire()
	if err != nil {
		return QueryRaw{}, err
	}
	return QueryRaw{conn: conn, classify: c.classify}, nil
}
