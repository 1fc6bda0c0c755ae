// Command market-data-feeder runs the price-feeding supervisor: one
// PriceFetcher task per configured DEX provider, broadcasting
// feed_prices transactions to the oracle contract of every observed
// protocol. Wiring follows the teacher's cmd/kcn/main.go urfave/cli
// shape: a single app with a Before hook and a Fatalf exit on
// bootstrap failure.
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
	"github.com/nolus-protocol/chain-ops/internal/errorhandler"
	"github.com/nolus-protocol/chain-ops/internal/feeder"
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
	Value: "market-data-feeder.toml",
}

var app = cli.NewApp()

func init() {
	app.Name = "market-data-feeder"
	app.Usage = "Feed DEX spot prices into the oracle contract of every observed protocol"
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
		log.Fatalf("market-data-feeder: %v", err)
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
	application := &feederApplication{
		cfg:           cfg,
		wasm:          wasm,
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

// txChannelSink adapts the broadcaster's tx channel to feeder.ContractSink / dispatcher.ContractSink.
type txChannelSink struct {
	ch *channel.Unbounded[*broadcast.Package]
}

func (s *txChannelSink) Send(pkg *broadcast.Package) error { return s.ch.Send(pkg) }

// feederApplication implements supervisor.Application: it spawns one
// PriceFetcher per configured provider name for a given protocol. The
// concrete DEX clients (Astroport, Osmosis, ...) are out of scope
// (spec.md §1 Non-goals) — an embedder adds them to providerRegistry
// before run; for a provider that is not registered, IntoTask returns
// an error, and the supervisor logs it and does not spawn that task.
// The process keeps running.
type feederApplication struct {
	cfg           *config.Config
	wasm          feeder.CurrenciesQuerier
	signerAddress string
	sink          feeder.ContractSink
}

func (a *feederApplication) ProtocolTaskSetIDs(protocolName string) []task.Id {
	var ids []task.Id
	for providerName := range a.cfg.Providers {
		ids = append(ids, feeder.TaskID{ProtocolName: protocolName, Provider: providerName})
	}
	return ids
}

func (a *feederApplication) IntoTask(id task.Id, _ task.RunnableState) (task.Task, error) {
	fid, ok := id.(feeder.TaskID)
	if !ok {
		return nil, fmt.Errorf("feeder: unexpected task id %s", id)
	}
	provider, ok := providerRegistry[fid.Provider]
	if !ok {
		return nil, fmt.Errorf("feeder: no provider registered for %q (DEX wire encodings are provided by the embedder)", fid.Provider)
	}
	oracleAddr := fmt.Sprintf("%v", a.cfg.Oracles[fid.ProtocolName])
	gasLimit, err := envUint("GAS_LIMIT")
	if err != nil {
		return nil, err
	}
	return feeder.NewTask(fid.ProtocolName, provider, a.wasm, oracleAddr, a.signerAddress, a.sink, gasLimit, a.cfg.HardGasLimit), nil
}

// providerRegistry maps a configured provider name to its concrete
// Provider implementation. Empty by default: spec.md §1 scopes the
// concrete Astroport/Osmosis wire encodings out of this toolkit: an
// embedding binary populates this registry before calling run.
var providerRegistry = map[string]feeder.Provider{}

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

func promPort() int { return 9090 }
