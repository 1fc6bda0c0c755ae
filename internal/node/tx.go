package node

import (
	"context"
	"errors"

	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Response mirrors spec.md §3's TxResponse: the parts of a commit's
// outcome the broadcaster and its callers need.
type Response struct {
	Code      uint32
	Height    int64
	Data      []byte
	RawLog    string
	Info      string
	GasWanted int64
	GasUsed   int64
}

// Result codes the broadcaster distinguishes (spec.md §3).
const (
	CodeSuccess         uint32 = 0
	CodeInvalidSequence uint32 = 32 // sdkerrors ErrWrongSequence ABCI code
)

// QueryTx wraps the Cosmos SDK tx gRPC service: simulate, broadcast
// and tx lookup.
type QueryTx struct {
	conn     grpc.ClientConnInterface
	classify func(error) error
}

// Simulate dry-runs txBytes and returns the gas it would consume.
func (q QueryTx) Simulate(ctx context.Context, txBytes []byte) (gasUsed uint64, err error) {
	client := txtypes.NewServiceClient(q.conn)
	resp, err := client.Simulate(ctx, &txtypes.SimulateRequest{TxBytes: txBytes})
	if err != nil {
		return 0, q.classify(err)
	}
	return resp.GasInfo.GasUsed, nil
}

// BroadcastCommit submits txBytes in BROADCAST_MODE_SYNC and returns
// the CheckTx (mempool admission) result embedded in the response, the
// "commit" step of spec.md §4.7. It does not wait for block inclusion.
func (q QueryTx) BroadcastCommit(ctx context.Context, txBytes []byte) (Response, error) {
	client := txtypes.NewServiceClient(q.conn)
	resp, err := client.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: txBytes,
		Mode:    txtypes.BroadcastMode_BROADCAST_MODE_SYNC,
	})
	if err != nil {
		return Response{}, q.classify(err)
	}
	txResp := resp.TxResponse
	return Response{
		Code:      txResp.Code,
		Height:    txResp.Height,
		Data:      []byte(txResp.Data),
		RawLog:    txResp.RawLog,
		Info:      txResp.Info,
		GasWanted: txResp.GasWanted,
		GasUsed:   txResp.GasUsed,
	}, nil
}

// GetTx looks up a transaction by hash. A NotFound status is normal
// (the tx simply isn't included yet) and maps to (nil, nil) rather
// than an error, per spec.md §4.3.
func (q QueryTx) GetTx(ctx context.Context, hash string) (*Response, error) {
	client := txtypes.NewServiceClient(q.conn)
	resp, err := client.GetTx(ctx, &txtypes.GetTxRequest{Hash: hash})
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			return nil, nil
		}
		return nil, q.classify(err)
	}
	txResp := resp.TxResponse
	return &Response{
		Code:      txResp.Code,
		Height:    txResp.Height,
		Data:      []byte(txResp.Data),
		RawLog:    txResp.RawLog,
		Info:      txResp.Info,
		GasWanted: txResp.GasWanted,
		GasUsed:   txResp.GasUsed,
	}, nil
}

// ErrNoMsgResponse is returned by DecodeTxResponseData when the
// decoded TxMsgData carries no message responses to extract data from.
var ErrNoMsgResponse = errors.New("node: tx response carries no message responses")

// DecodeTxResponseData decodes a commit's raw Data field — itself a
// serialized sdk.TxMsgData whose first message response is expected
// to be a CosmWasm MsgExecuteContractResponse — and returns that
// response's opaque Data payload. This realizes the tx_response_data
// round-trip property in spec.md §8.
func DecodeTxResponseData(raw []byte) ([]byte, error) {
	var msgData sdk.TxMsgData
	if err := msgData.Unmarshal(raw); err != nil {
		return nil, err
	}
	if len(msgData.MsgResponses) == 0 {
		return nil, ErrNoMsgResponse
	}

	var execResp wasmtypes.MsgExecuteContractResponse
	if err := execResp.Unmarshal(msgData.MsgResponses[0].Value); err != nil {
		return nil, err
	}
	return execResp.Data, nil
}
