// Package service implements the service loop (spec.md §4.11, C11):
// it installs OS signal handling and races the supervisor's run
// against a stop signal, draining live tasks on the latter.
package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nolus-protocol/chain-ops/internal/log"
)

var logger = log.New(log.ModuleService)

// Outcome distinguishes why Run returned.
type Outcome int

const (
	// Exited means the supervisor's Run returned on its own (it
	// should not, under normal operation, but panics inside it are
	// not recovered here — by design, a supervisor crash is fatal).
	Exited Outcome = iota
	// StopSignalReceived means SIGINT or SIGTERM arrived.
	StopSignalReceived
)

func (o Outcome) String() string {
	if o == StopSignalReceived {
		return "stop-signal-received"
	}
	return "exited"
}

// Supervise is anything with a Run(ctx) that drives the supervisor
// main loop until ctx is cancelled.
type Supervise interface {
	Run(ctx context.Context) error
}

// Run installs SIGINT/SIGTERM handling, starts sup.Run under a
// cancellable context, and returns once either sup.Run itself returns
// or a stop signal is observed — whichever comes first. On a stop
// signal it cancels the context (which drains and aborts every live
// task inside the supervisor's own teardown) and waits for sup.Run to
// actually return before reporting StopSignalReceived.
func Run(ctx context.Context, sup Supervise) (Outcome, error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	supDone := make(chan error, 1)
	go func() {
		supDone <- sup.Run(runCtx)
	}()

	select {
	case err := <-supDone:
		return Exited, err
	case sig := <-sigCh:
		logger.Info("stop signal received", "signal", sig.String())
		cancel()
		err := <-supDone
		return StopSignalReceived, err
	}
}
