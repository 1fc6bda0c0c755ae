package node

import (
	"context"
	"encoding/json"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"google.golang.org/grpc"
)

// QueryWasm wraps the CosmWasm gRPC query service. Smart-contract
// queries are JSON-encoded payloads transported inside a
// QuerySmartContractStateRequest (spec.md §6).
type QueryWasm struct {
	conn     grpc.ClientConnInterface
	classify func(error) error
}

// SmartQuery marshals query to JSON, sends it to contractAddr's smart
// query entry point, and unmarshals the JSON response into out.
func (q QueryWasm) SmartQuery(ctx context.Context, contractAddr string, query, out interface{}) error {
	payload, err := json.Marshal(query)
	if err != nil {
		return err
	}

	client := wasmtypes.NewQueryClient(q.conn)
	resp, err := client.SmartContractState(ctx, &wasmtypes.QuerySmartContractStateRequest{
		Address:   contractAddr,
		QueryData: payload,
	})
	if err != nil {
		return q.classify(err)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Data, out)
}
