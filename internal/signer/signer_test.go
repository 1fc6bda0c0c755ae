package signer

import (
	"context"
	"errors"
	"testing"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	"github.com/nolus-protocol/chain-ops/internal/node"
)

func testState(t *testing.T, seq, accNum uint64) *State {
	t.Helper()
	priv := secp256k1.GenPrivKey()
	return New(priv, "test-chain", node.BaseAccount{
		Address:       "nolus1exampleaddressxxxxxxxxxxxxxxxxxxxxxxxxxx",
		AccountNumber: accNum,
		Sequence:      seq,
	})
}

func sampleMsgs(t *testing.T) []*codectypes.Any {
	t.Helper()
	msg := &banktypes.MsgSend{FromAddress: "from", ToAddress: "to"}
	any, err := codectypes.NewAnyWithValue(msg)
	if err != nil {
		t.Fatalf("NewAnyWithValue: %v", err)
	}
	return []*codectypes.Any{any}
}

func TestSignProducesNonEmptyTxRaw(t *testing.T) {
	s := testState(t, 5, 1)
	raw, err := s.Sign(sampleMsgs(t), "", Fee{Amount: sdk.NewCoins(), GasLimit: 200000})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty TxRaw bytes")
	}
}

func TestSignDoesNotAdvanceSequence(t *testing.T) {
	s := testState(t, 5, 1)
	if _, err := s.Sign(sampleMsgs(t), "", Fee{Amount: sdk.NewCoins(), GasLimit: 1}); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if s.Sequence() != 5 {
		t.Fatalf("expected Sign to leave sequence untouched, got %d", s.Sequence())
	}
}

func TestTxConfirmedIncrementsByExactlyOne(t *testing.T) {
	s := testState(t, 5, 1)
	s.TxConfirmed()
	if s.Sequence() != 6 {
		t.Fatalf("expected sequence 6 after confirmation, got %d", s.Sequence())
	}
}

type fakeAccountFetcher struct {
	account node.BaseAccount
	err     error
}

func (f fakeAccountFetcher) Account(ctx context.Context, address string) (node.BaseAccount, error) {
	return f.account, f.err
}

func TestRefreshSequenceUpdatesSequenceOnly(t *testing.T) {
	s := testState(t, 5, 1)
	fetcher := fakeAccountFetcher{account: node.BaseAccount{Address: s.Address(), AccountNumber: 99, Sequence: 42}}
	if err := s.RefreshSequence(context.Background(), fetcher); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	if s.Sequence() != 42 {
		t.Fatalf("expected refreshed sequence 42, got %d", s.Sequence())
	}
	if s.accountNumber != 1 {
		t.Fatalf("account number must never change after initialization, got %d", s.accountNumber)
	}
}

func TestRefreshSequencePropagatesError(t *testing.T) {
	s := testState(t, 5, 1)
	wantErr := errors.New("boom")
	fetcher := fakeAccountFetcher{err: wantErr}
	if err := s.RefreshSequence(context.Background(), fetcher); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
