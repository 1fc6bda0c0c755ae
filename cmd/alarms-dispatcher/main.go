// Command alarms-dispatcher runs the alarms-dispatching supervisor:
// one AlarmsDispatcher task per observed protocol, committing
// dispatch_alarms transactions against that protocol's time-alarms
// and price-alarms contracts. Wiring follows the teacher's
// cmd/kcn/main.go urfave/cli shape: a single app with a Before hook
// and a Fatalf exit on bootstrap failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/urfave/cli.v1"

	"github.com/nolus-protocol/chain-ops/internal/balance"
	"github.com/nolus-protocol/chain-ops/internal/bootstrap"
	"github.com/nolus-protocol/chain-ops/internal/broadcast"
	"github.com/nolus-protocol/chain-ops/internal/chainerr"
	"github.com/nolus-protocol/chain-ops/internal/channel"
	"github.com/nolus-protocol/chain-ops/internal/config"
	"github.com/nolus-protocol/chain-ops/internal/dispatcher"
	"github.com/nolus-protocol/chain-ops/internal/errorhandler"
	"github.com/nolus-protocol/chain-ops/internal/log"
	"github.com/nolus-protocol/chain-ops/internal/metrics"
	"github.com/nolus-protocol/chain-ops/internal/protocol"
	"github.com/nolus-protocol/chain-ops/internal/service"
	"github.com/nolus-protocol/chain-ops/internal/supervisor"
	"github.com/nolus-protocol/chain-ops/internal/task"
)

var configFileFlag = cli.StringFlag{
	Name:  "config",
	Usage: "TOML configuration file",
	Value: "alarms-dispatcher.toml",
}

var app = cli.NewApp()

func init() {
	app.Name = "alarms-dispatcher"
	app.Usage = "Dispatch time and price alarms for every observed protocol"
	app.Flags = []cli.Flag{configFileFlag}
	app.Action = run

	app.Before = func(ctx *cli.Context) error {
		logsDir, err := config.LogsDirectory()
		if err != nil {
			return err
		}
		return log.Setup(config.EnvBool("DEBUG_LOGGING"), config.EnvBool("OUTPUT_JSON"), logsDir)
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		var cerr *chainerr.Error
		if errors.As(err, &cerr) {
			log.New(log.ModuleService).Error("startup failed", "kind", cerr.Kind, "fatal", cerr.Kind.Fatal(), "err", err)
		}
		log.Fatalf("alarms-dispatcher: %v", err)
	}
}

func run(cliCtx *cli.Context) error {
	cfg, err := config.Load(cliCtx.String(configFileFlag.Name))
	if err != nil {
		return chainerr.New(chainerr.Configuration, fmt.Errorf("loading config: %w", err))
	}

	mnemonic, err := readMnemonic()
	if err != nil {
		return err
	}

	bcastCfg := broadcast.Config{
		GasAdjustmentNum:   cfg.Node.GasAdjustmentNum,
		GasAdjustmentDenom: cfg.Node.GasAdjustmentDenom,
		GasPriceNum:        cfg.Node.GasPriceNum,
		GasPriceDenom:      cfg.Node.GasPriceDenom,
		FeeAdjustmentNum:   cfg.Node.FeeAdjustmentNum,
		FeeAdjustmentDenom: cfg.Node.FeeAdjustmentDenom,
		FeeDenom:           cfg.Node.FeeDenom,
	}

	ctx := context.Background()
	boot, err := bootstrap.Bootstrap(ctx, mnemonic, cfg.Node, bcastCfg)
	if err != nil {
		return err
	}
	defer boot.Node.Close()

	retries, err := config.RequiredRetriesCount()
	if err != nil {
		return err
	}
	marginSeconds, err := envUint("FAILED_RETRY_MARGIN")
	if err != nil {
		return err
	}
	margin := time.Duration(marginSeconds) * time.Second
	policy := errorhandler.New(retries, margin, nil)

	bank, err := boot.Node.Bank()
	if err != nil {
		return err
	}
	reporter := balance.New(bank, boot.Signer.Address(), cfg.Node.FeeDenom)

	wasm, err := boot.Node.Wasm()
	if err != nil {
		return err
	}
	events := channel.NewUnbounded[protocol.Event]()
	watcher := protocol.New(wasm, cfg.AdminContractAddress, time.Duration(cfg.PollTimeSeconds)*time.Second, events)

	sink := &txChannelSink{ch: boot.TxChannel}
	application := &dispatcherApplication{
		cfg:           cfg,
		signerAddress: boot.Signer.Address(),
		sink:          sink,
	}

	builtins := []task.Task{reporter, boot.Broadcaster.AsTask(), watcher}
	sup := supervisor.New(application, policy, events, builtins, nil)

	metrics.Serve(promPort())

	outcome, err := service.Run(ctx, sup)
	log.New(log.ModuleService).Info("service stopped", "outcome", outcome)
	return err
}

// txChannelSink adapts the broadcaster's tx channel to
// dispatcher.ContractSink.
type txChannelSink struct {
	ch *channel.Unbounded[*broadcast.Package]
}

func (s *txChannelSink) Send(pkg *broadcast.Package) error { return s.ch.Send(pkg) }

// dispatcherApplication implements supervisor.Application: it spawns
// exactly one AlarmsDispatcher task per observed protocol, using the
// protocol's configured time-alarms and price-alarms contract
// addresses (spec.md §6's time_alarms/market_price_oracle tables).
type dispatcherApplication struct {
	cfg           *config.Config
	signerAddress string
	sink          dispatcher.ContractSink
}

func (a *dispatcherApplication) ProtocolTaskSetIDs(protocolName string) []task.Id {
	return []task.Id{dispatcher.TaskID{ProtocolName: protocolName}}
}

func (a *dispatcherApplication) IntoTask(id task.Id, _ task.RunnableState) (task.Task, error) {
	did, ok := id.(dispatcher.TaskID)
	if !ok {
		return nil, fmt.Errorf("dispatcher: unexpected task id %s", id)
	}
	timeAlarmsAddr := fmt.Sprintf("%v", a.cfg.TimeAlarms[did.ProtocolName])
	priceAlarmsAddr := fmt.Sprintf("%v", a.cfg.MarketPriceOracle[did.ProtocolName])
	gasLimit, err := envUint("GAS_LIMIT")
	if err != nil {
		return nil, err
	}
	return dispatcher.NewTask(did.ProtocolName, timeAlarmsAddr, priceAlarmsAddr, a.signerAddress, a.sink, gasLimit, a.cfg.HardGasLimit), nil
}

func readMnemonic() (string, error) {
	if v, ok := os.LookupEnv("SIGNING_KEY_MNEMONIC"); ok && v != "" {
		return v, nil
	}
	return config.ReadMnemonicFromStdin()
}

// envUint reads name as a required, base-10 unsigned integer env var.
// An unset or malformed value is a Configuration-kind failure
// (spec.md §7 kind 1): fatal at startup, never silently defaulted.
func envUint(name string) (uint64, error) {
	v, err := config.RequireEnv(name)
	if err != nil {
		return 0, chainerr.New(chainerr.Configuration, err)
	}
	var n uint64
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, chainerr.New(chainerr.Configuration, fmt.Errorf("parsing %s=%q: %w", name, v, err))
	}
	return n, nil
}

func promPort() int { return 9091 }
