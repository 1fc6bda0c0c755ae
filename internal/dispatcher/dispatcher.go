// Package dispatcher supplies the alarms dispatcher's supervisor
// plumbing: the AlarmsDispatcher task id and the ExecuteMsg builders
// for the time-alarms and price-alarms contracts' dispatch_alarms
// entry points (spec.md §4.13). Alarms dispatch is not time-sensitive
// the way a price quote is, so built packages carry no expiration.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"

	"github.com/nolus-protocol/chain-ops/internal/broadcast"
	"github.com/nolus-protocol/chain-ops/internal/log"
	"github.com/nolus-protocol/chain-ops/internal/task"
)

var logger = log.New(log.ModuleDispatcher)

// TaskID is the AlarmsDispatcher TaskId variant (spec.md §4.13): one
// dispatcher per protocol, since time-alarms and price-alarms
// contract addresses are per-protocol configuration.
type TaskID struct {
	ProtocolName string
}

func (id TaskID) String() string { return fmt.Sprintf("alarms-dispatcher/%s", id.ProtocolName) }

func (id TaskID) Protocol() (string, bool) {
	if id.ProtocolName == "" {
		return "", false
	}
	return id.ProtocolName, true
}

// ContractSink is where a built TxPackage is handed to the
// broadcaster; identical contract to the feeder's sink.
type ContractSink interface {
	Send(pkg *broadcast.Package) error
}

// Task dispatches both the time-alarms and price-alarms contracts for
// one protocol, one commit per contract per invocation.
type Task struct {
	id               TaskID
	timeAlarmsAddr   string
	priceAlarmsAddr  string
	signerAddress    string
	sink             ContractSink
	hardGasLimit     uint64
	fallbackGas      uint64
}

// NewTask constructs an AlarmsDispatcher task for one protocol.
func NewTask(protocolName, timeAlarmsAddr, priceAlarmsAddr, signerAddress string, sink ContractSink, hardGasLimit, fallbackGas uint64) *Task {
	return &Task{
		id:              TaskID{ProtocolName: protocolName},
		timeAlarmsAddr:  timeAlarmsAddr,
		priceAlarmsAddr: priceAlarmsAddr,
		signerAddress:   signerAddress,
		sink:            sink,
		hardGasLimit:    hardGasLimit,
		fallbackGas:     fallbackGas,
	}
}

func (t *Task) ID() task.Id { return t.id }

// Run implements task.Runnable: dispatch time-alarms, then
// price-alarms, each as its own TxPackage so one contract's gas
// behavior cannot block the other's.
func (t *Task) Run(ctx context.Context, _ task.RunnableState) error {
	if err := t.dispatch(t.timeAlarmsAddr, "time-alarms"); err != nil {
		return err
	}
	if err := t.dispatch(t.priceAlarmsAddr, "price-alarms"); err != nil {
		return err
	}
	return nil
}

func (t *Task) dispatch(contractAddr, label string) error {
	if contractAddr == "" {
		return nil
	}

	body, err := buildDispatchAlarmsMsg(contractAddr, t.signerAddress)
	if err != nil {
		return err
	}

	pkg, feedback := broadcast.NewPackage(body, t.id.String()+"/"+label, t.hardGasLimit, t.fallbackGas, broadcast.NoExpiration())
	if err := t.sink.Send(pkg); err != nil {
		return err
	}

	resp := <-feedback
	logger.Debug("alarms dispatched", "task", t.id, "contract", label, "code", resp.Code)
	return nil
}

// dispatchAlarmsMsg is the time-alarms/price-alarms contracts'
// dispatch_alarms ExecuteMsg shape: a max-count bound on how many
// alarms one transaction processes.
type dispatchAlarmsMsg struct {
	DispatchAlarms dispatchAlarmsBody `json:"dispatch_alarms"`
}

type dispatchAlarmsBody struct {
	MaxCount uint32 `json:"max_count"`
}

const defaultMaxAlarmsPerTx uint32 = 50

func buildDispatchAlarmsMsg(contractAddr, senderAddress string) ([]*codectypes.Any, error) {
	payload, err := json.Marshal(dispatchAlarmsMsg{DispatchAlarms: dispatchAlarmsBody{MaxCount: defaultMaxAlarmsPerTx}})
	if err != nil {
		return nil, err
	}

	execMsg := &wasmtypes.MsgExecuteContract{
		Sender:   senderAddress,
		Contract: contractAddr,
		Msg:      wasmtypes.RawContractMessage(payload),
	}
	any, err := codectypes.NewAnyWithValue(execMsg)
	if err != nil {
		return nil, err
	}
	return []*codectypes.Any{any}, nil
}
