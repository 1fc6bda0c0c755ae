package node

import (
	"context"

	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"google.golang.org/grpc"
)

// QueryBank wraps the bank gRPC query service.
type QueryBank struct {
	conn     grpc.ClientConnInterface
	classify func(error) error
}

// Balance returns the integer amount of denom held by address. Used
// by the balance reporter (spec.md §4.8).
func (q QueryBank) Balance(ctx context.Context, address, denom string) (string, error) {
	client := banktypes.NewQueryClient(q.conn)
	resp, err := client.Balance(ctx, &banktypes.QueryBalanceRequest{Address: address, Denom: denom})
	if err != nil {
		return "", q.classify(err)
	}
	if resp.Balance == nil {
		return "0", nil
	}
	return resp.Balance.Amount.String(), nil
}
