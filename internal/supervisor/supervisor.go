// Package supervisor implements the task supervisor (spec.md §4.10,
// C10): it bootstraps the built-in tasks, spawns caller-provided
// startup tasks, and runs the main loop that reacts to task exits,
// protocol events, and the stop signal.
package supervisor

import (
	"context"
	"time"

	"github.com/nolus-protocol/chain-ops/internal/channel"
	"github.com/nolus-protocol/chain-ops/internal/errorhandler"
	"github.com/nolus-protocol/chain-ops/internal/log"
	"github.com/nolus-protocol/chain-ops/internal/metrics"
	"github.com/nolus-protocol/chain-ops/internal/protocol"
	"github.com/nolus-protocol/chain-ops/internal/task"
)

var logger = log.New(log.ModuleSupervisor)

// Application is the caller's plug-in point (spec.md §9's "dynamic
// dispatch over tasks" design note): it knows how to materialize a
// task for any Id the supervisor needs to (re)spawn, and which Ids
// belong to a given protocol's task group.
type Application interface {
	// IntoTask materializes the runnable task for id, in state state
	// (New on first spawn, Restart on every subsequent respawn).
	IntoTask(id task.Id, state task.RunnableState) (task.Task, error)
	// ProtocolTaskSetIDs enumerates every Id belonging to protocol's
	// task group, used both to spawn on addition and to know what a
	// removal must cancel.
	ProtocolTaskSetIDs(protocolName string) []task.Id
}

// Supervisor owns the task set, the protocol-event stream, and the
// error-handler policy, and drives the main loop described in
// spec.md §4.10.
type Supervisor struct {
	tasks      *task.Set
	events     *channel.Unbounded[protocol.Event]
	eventsChan chan protocol.Event
	policy     *errorhandler.Policy
	app        Application
	builtin    []task.Task
	startup    []task.Id
}

// New constructs a Supervisor. builtin are the three always-on tasks
// (balance reporter, broadcaster, protocol watcher) already wired to
// their dependencies by the caller; startup are additional ids to
// materialize via app.IntoTask once bootstrap completes.
func New(app Application, policy *errorhandler.Policy, events *channel.Unbounded[protocol.Event], builtin []task.Task, startup []task.Id) *Supervisor {
	return &Supervisor{
		tasks:      task.NewSet(0),
		events:     events,
		eventsChan: make(chan protocol.Event),
		policy:     policy,
		app:        app,
		builtin:    builtin,
		startup:    startup,
	}
}

// Run executes the full lifecycle: bootstrap, startup tasks, main
// loop, teardown. It returns when ctx is cancelled (the stop signal)
// or, in principle, never otherwise — task exits are handled
// internally via the restart policy, not propagated as a Run error.
func (s *Supervisor) Run(ctx context.Context) error {
	go s.forwardEvents()

	for _, t := range s.builtin {
		s.tasks.Put(ctx, t, task.New)
	}

	for _, id := range s.startup {
		s.spawnByID(ctx, id, task.New)
	}

	s.mainLoop(ctx)

	s.tasks.CancelAll()
	return nil
}

func (s *Supervisor) mainLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case exit := <-s.tasks.Exits():
			s.handleExit(ctx, exit)
		case ev := <-s.eventsChan:
			s.handleProtocolEvent(ctx, ev)
		}
	}
}

// forwardEvents is the single long-lived adapter between the generic
// Unbounded channel and a plain Go channel select can wait on. A fresh
// forwarding goroutine per select iteration would race a prior
// iteration's still-blocked Recv() for the same event, since
// Unbounded.Recv() makes no oldest-waiter-wins guarantee; a single
// goroutine makes that race impossible. It returns only once the
// events channel is closed and drained; after Run returns it stays
// blocked on the next Recv or send.
func (s *Supervisor) forwardEvents() {
	for {
		ev, res := s.events.Recv()
		if res != channel.RecvOK {
			return
		}
		s.eventsChan <- ev
	}
}

func (s *Supervisor) handleExit(ctx context.Context, exit task.ExitEvent) {
	logger.Info("task exited", "id", exit.ID, "err", exit.Err)
	if !s.tasks.Cancel(exit.ID) {
		// The handle was already removed by a protocol removal: a
		// cancelled task is not restarted.
		return
	}

	strategy := s.policy.RestartStrategy(exit.ID)
	logger.Info("restart decision", "id", exit.ID, "strategy", strategy)
	metrics.TaskRestarts.WithLabelValues(exit.ID.String(), strategy.String()).Inc()

	if strategy == errorhandler.Delayed {
		go func() {
			delayThenRespawn(ctx, errorhandler.DelayedRestartWait)
			if ctx.Err() != nil {
				return
			}
			s.spawnByID(ctx, exit.ID, task.Restart)
		}()
		return
	}
	s.spawnByID(ctx, exit.ID, task.Restart)
}

// delayThenRespawn waits for dur or ctx cancellation, whichever comes
// first (spec.md §4.6: the fixed pause before a Delayed restart).
func delayThenRespawn(ctx context.Context, dur time.Duration) {
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *Supervisor) spawnByID(ctx context.Context, id task.Id, state task.RunnableState) {
	for _, t := range s.builtin {
		if t.ID() == id {
			s.tasks.Put(ctx, t, state)
			return
		}
	}

	t, err := s.app.IntoTask(id, state)
	if err != nil {
		logger.Error("failed to materialize task", "id", id, "err", err)
		return
	}
	s.tasks.Put(ctx, t, state)
}

func (s *Supervisor) handleProtocolEvent(ctx context.Context, ev protocol.Event) {
	switch ev.Kind {
	case protocol.Added:
		for _, id := range s.app.ProtocolTaskSetIDs(ev.Name) {
			s.spawnByID(ctx, id, task.New)
		}
	case protocol.Removed:
		for _, id := range s.tasks.IDsForProtocol(ev.Name) {
			s.tasks.Cancel(id)
		}
	}
}
