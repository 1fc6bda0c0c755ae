package node

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

func countingDialer(t *testing.T, count *int) Dialer {
	return func(endpoint string) (*grpc.ClientConn, error) {
		*count++
		// grpc.NewClient is lazy: it never dials until an RPC is
		// attempted, which keeps this test free of any real network
		// dependency while still exercising the façade's reconnect
		// bookkeeping.
		conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		return conn, nil
	}
}

func TestReconnectIdempotence(t *testing.T) {
	dials := 0
	c, err := NewWithDialer("passthrough:///fake", countingDialer(t, &dials))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if dials != 1 {
		t.Fatalf("expected exactly one initial dial, got %d", dials)
	}

	// Simulate a transport-class failure observed by a sub-client.
	c.classify(status.Error(codes.Unavailable, "down"))
	c.classify(status.Error(codes.Unavailable, "down again"))

	if _, err := c.Auth(); err != nil {
		t.Fatalf("Auth: %v", err)
	}
	if dials != 2 {
		t.Fatalf("expected exactly one reconnect dial despite repeated failures, got %d dials total", dials)
	}

	// Further acquisitions, with the flag now clear, must not re-dial.
	if _, err := c.Bank(); err != nil {
		t.Fatalf("Bank: %v", err)
	}
	if dials != 2 {
		t.Fatalf("expected no further dials once reconnected, got %d", dials)
	}
}

func TestClassifyPassesThroughNonTransportErrors(t *testing.T) {
	dials := 0
	c, err := NewWithDialer("passthrough:///fake", countingDialer(t, &dials))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	orig := status.Error(codes.InvalidArgument, "bad request")
	wrapped := c.classify(orig)
	if wrapped != orig || !errors.Is(wrapped, orig) {
		t.Fatal("classify must return the original error unchanged")
	}
	if c.state.shouldReconnect.Load() {
		t.Fatal("business error must not raise the reconnect flag")
	}
}

// notFoundConn answers every unary call with a NotFound status, standing
// in for a tx service that does not know the requested hash.
type notFoundConn struct{}

func (notFoundConn) Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error {
	return status.Error(codes.NotFound, "tx not found")
}

func (notFoundConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, status.Error(codes.Unimplemented, "no streams")
}

func TestNotFoundMapsToNilOnGetTx(t *testing.T) {
	classified := false
	q := QueryTx{conn: notFoundConn{}, classify: func(err error) error { classified = true; return err }}
	resp, err := q.GetTx(context.Background(), "ABCDEF")
	if err != nil || resp != nil {
		t.Fatalf("expected (nil, nil) for a NotFound status, got (%v, %v)", resp, err)
	}
	if classified {
		t.Fatal("NotFound is normal and must not go through transport classification")
	}
}
