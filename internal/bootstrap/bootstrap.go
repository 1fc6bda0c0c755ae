// Package bootstrap implements the supervisor's bootstrap step
// (spec.md §4.10 step 1), shared by both application entry points:
// derive the signer, construct the node client, fetch the account, and
// wire the broadcaster and its tx channel. The chain id is taken from
// the node configuration; it is not queried from the node.
package bootstrap

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/multierr"

	"github.com/nolus-protocol/chain-ops/internal/broadcast"
	"github.com/nolus-protocol/chain-ops/internal/chainerr"
	"github.com/nolus-protocol/chain-ops/internal/channel"
	"github.com/nolus-protocol/chain-ops/internal/config"
	"github.com/nolus-protocol/chain-ops/internal/node"
	"github.com/nolus-protocol/chain-ops/internal/signer"
)

// Result bundles everything the supervisor and the application's
// task factories need after bootstrap.
type Result struct {
	Node        *node.Client
	Signer      *signer.State
	Broadcaster *broadcast.Broadcaster
	TxChannel   *channel.Unbounded[*broadcast.Package]
}

// Bootstrap derives the signer from mnemonic, dials the node at
// nodeCfg's endpoint, fetches the signer's account, and assembles the
// broadcaster. The node endpoint is nodeCfg.Host:nodeCfg.GRPCPort, the
// configured gRPC listener (spec.md §6's node table).
func Bootstrap(ctx context.Context, mnemonic string, nodeCfg config.NodeConfig, bcastCfg broadcast.Config) (*Result, error) {
	sdkConfig := sdk.GetConfig()
	sdkConfig.SetBech32PrefixForAccount(nodeCfg.AddressPrefix, nodeCfg.AddressPrefix+"pub")

	privKey, err := signer.PrivKeyFromMnemonic(mnemonic)
	if err != nil {
		return nil, chainerr.New(chainerr.KeyDerivation, fmt.Errorf("bootstrap: %w", err))
	}

	address, err := sdk.Bech32ifyAddressBytes(nodeCfg.AddressPrefix, privKey.PubKey().Address())
	if err != nil {
		return nil, chainerr.New(chainerr.KeyDerivation, fmt.Errorf("bootstrap: deriving bech32 address: %w", err))
	}

	endpoint := fmt.Sprintf("%s:%d", nodeCfg.Host, nodeCfg.GRPCPort)
	nodeClient, err := node.New(endpoint)
	if err != nil {
		return nil, chainerr.New(chainerr.Transport, fmt.Errorf("bootstrap: dialing node at %s: %w", endpoint, err))
	}

	authClient, err := nodeClient.Auth()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("bootstrap: acquiring auth client: %w", err), nodeClient.Close())
	}
	account, err := authClient.Account(ctx, address)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("bootstrap: fetching account %s: %w", address, err), nodeClient.Close())
	}

	s := signer.New(privKey, nodeCfg.ChainID, account)
	txCh := channel.NewUnbounded[*broadcast.Package]()

	txOf := func() (broadcast.TxQuerier, error) { return nodeClient.Tx() }
	authOf := func() (signer.AccountFetcher, error) { return nodeClient.Auth() }
	b := broadcast.New(bcastCfg, s, txOf, authOf, txCh)

	return &Result{Node: nodeClient, Signer: s, Broadcaster: b, TxChannel: txCh}, nil
}
