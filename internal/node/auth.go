package node

import (
	"context"

	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"google.golang.org/grpc"
)

// BaseAccount is the subset of auth's QueryAccountResponse the
// toolkit cares about: enough to seed a SignerState (spec.md §3).
type BaseAccount struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// QueryAuth wraps the auth gRPC query service.
type QueryAuth struct {
	conn     grpc.ClientConnInterface
	classify func(error) error
}

// Account fetches the base account for address, decoding the Any
// payload into the standard auth.BaseAccount shape.
func (q QueryAuth) Account(ctx context.Context, address string) (BaseAccount, error) {
	client := authtypes.NewQueryClient(q.conn)
	resp, err := client.Account(ctx, &authtypes.QueryAccountRequest{Address: address})
	if err != nil {
		return BaseAccount{}, q.classify(err)
	}

	var account authtypes.BaseAccount
	if err := account.Unmarshal(resp.Account.Value); err != nil {
		return BaseAccount{}, err
	}
	return BaseAccount{
		Address:       account.Address,
		AccountNumber: account.AccountNumber,
		Sequence:      account.Sequence,
	}, nil
}
