package node

import (
	"context"

	"google.golang.org/grpc"
)

// QueryRaw lets an application-defined task invoke a gRPC method this
// façade has no typed wrapper for — e.g. an Osmosis SpotPriceV2 query
// — while still going through the façade's reconnect and status-code
// classification (spec.md §4.3). The caller supplies already-encoded
// request/response messages (proto.Message), keeping the concrete
// wire encoding out of scope per spec.md §1.
type QueryRaw struct {
	conn     grpc.ClientConnInterface
	classify func(error) error
}

// Invoke performs a unary RPC at the given fully-qualified method
// name (e.g. "/osmosis.poolmanager.v1beta1.Query/SpotPriceV2").
func (q QueryRaw) Invoke(ctx context.Context, method string, req, reply interface{}) error {
	if err := q.conn.Invoke(ctx, method, req, reply); err != nil {
		return q.classify(err)
	}
	return nil
}
