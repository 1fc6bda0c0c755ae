// Package signer implements the single-signer state described in
// spec.md §4.4 (C4): a private key, chain id, account identity and a
// strictly monotonic sequence number, producing signed TxRaw bytes.
// The broadcaster (internal/broadcast) is the state's sole caller and
// is responsible for serializing access to it (spec.md §5: the
// signer is exclusively owned by the broadcaster task).
package signer

import (
	"context"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"

	"github.com/nolus-protocol/chain-ops/internal/node"
)

// Fee is the computed fee for one transaction: amount plus the gas
// limit it was derived from.
type Fee struct {
	Amount   sdk.Coins
	GasLimit uint64
}

// AccountFetcher is the subset of node.QueryAuth the signer needs to
// refresh its sequence. Declared as an interface here (rather than
// depending on node.QueryAuth's concrete type) so tests can substitute
// a fake without a live gRPC connection; node.QueryAuth satisfies it
// structurally.
type AccountFetcher interface {
	Account(ctx context.Context, address string) (node.BaseAccount, error)
}

// State is the signer's mutable record (spec.md §3's SignerState).
type State struct {
	privKey       cryptotypes.PrivKey
	chainID       string
	address       string
	accountNumber uint64
	sequence      uint64
}

// New constructs a State seeded from a freshly queried BaseAccount.
// The (chain id, account number) pair is fixed for the State's
// lifetime; only the sequence ever changes.
func New(privKey cryptotypes.PrivKey, chainID string, account node.BaseAccount) *State {
	return &State{
		privKey:       privKey,
		chainID:       chainID,
		address:       account.Address,
		accountNumber: account.AccountNumber,
		sequence:      account.Sequence,
	}
}

// Address returns the signer's bech32 account address.
func (s *State) Address() string { return s.address }

// Sequence returns the sequence the next Sign call will use. Exposed
// for logging and tests, not for mutation outside this package.
func (s *State) Sequence() uint64 { return s.sequence }

// Sign encodes msgs into a TxBody, builds a single-signer AuthInfo at
// the current sequence, signs the canonical SignDoc, and returns the
// serialized TxRaw bytes (spec.md §4.4). It does not advance the
// sequence — only TxConfirmed does, after the chain has actually
// accepted the transaction.
func (s *State) Sign(msgs []*codectypes.Any, memo string, fee Fee) ([]byte, error) {
	body := &tx.TxBody{Messages: msgs, Memo: memo}
	bodyBytes, err := body.Marshal()
	if err != nil {
		return nil, err
	}

	pubKeyAny, err := codectypes.NewAnyWithValue(s.privKey.PubKey())
	if err != nil {
		return nil, err
	}

	authInfo := &tx.AuthInfo{
		SignerInfos: []*tx.SignerInfo{{
			PublicKey: pubKeyAny,
			ModeInfo: &tx.ModeInfo{
				Sum: &tx.ModeInfo_Single_{
					Single: &tx.ModeInfo_Single{Mode: signing.SignMode_SIGN_MODE_DIRECT},
				},
			},
			Sequence: s.sequence,
		}},
		Fee: &tx.Fee{Amount: fee.Amount, GasLimit: fee.GasLimit},
	}
	authInfoBytes, err := authInfo.Marshal()
	if err != nil {
		return nil, err
	}

	signDoc := &tx.SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainId:       s.chainID,
		AccountNumber: s.accountNumber,
	}
	signBytes, err := signDoc.Marshal()
	if err != nil {
		return nil, err
	}

	sig, err := s.privKey.Sign(signBytes)
	if err != nil {
		return nil, err
	}

	raw := &tx.TxRaw{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{sig},
	}
	return raw.Marshal()
}

// TxConfirmed increments the sequence by exactly one. Call only after
// on-chain inclusion or a definitive successful commit (spec.md §3).
func (s *State) TxConfirmed() {
	s.sequence++
}

// RefreshSequence re-fetches this signer's account over authClient and
// replaces the sequence, used on suspected desynchronization (spec.md
// §4.4). The account number never changes after initialization
// (spec.md §3) — only the sequence is taken from the refreshed query.
func (s *State) RefreshSequence(ctx context.Context, authClient AccountFetcher) error {
	account, err := authClient.Account(ctx, s.address)
	if err != nil {
		return err
	}
	s.sequence = account.Sequence
	return nil
}
