// Package task implements the task runtime described in spec.md §4.5
// (C5): typed task identifiers, the Runnable/Task contract, and
// cancellation-token-backed task handles.
package task

import (
	"context"
	"fmt"
)

// RunnableState tells a Runnable whether it is starting for the first
// time or being respawned after an exit.
type RunnableState int

const (
	// New is fed to a task the very first time it is spawned.
	New RunnableState = iota
	// Restart is fed to a task being respawned after exit, possibly
	// after a restart-policy delay.
	Restart
)

func (s RunnableState) String() string {
	if s == Restart {
		return "restart"
	}
	return "new"
}

// Id is the opaque, comparable, displayable task identifier described
// in spec.md §3. Concrete implementations must be comparable (no
// slices, maps or funcs) so they can key a TaskSet map.
type Id interface {
	fmt.Stringer
	// Protocol returns the protocol this id belongs to, and whether it
	// belongs to one at all. Built-in ids always return ("", false).
	Protocol() (name string, ok bool)
}

// Runnable is anything that can be run to completion (or until
// cancelled) given a RunnableState, yielding an error on unexpected
// exit and nil on graceful stop.
type Runnable interface {
	Run(ctx context.Context, state RunnableState) error
}

// Task pairs a Runnable with its identifier.
type Task interface {
	Runnable
	ID() Id
}

// funcTask adapts a plain function plus id into a Task, used by the
// built-in tasks (balance reporter, broadcaster, protocol watcher)
// and by application-defined task factories.
type funcTask struct {
	id  Id
	run func(ctx context.Context, state RunnableState) error
}

// FromFunc builds a Task from an id and a run function.
func FromFunc(id Id, run func(ctx context.Context, state RunnableState) error) Task {
	return funcTask{id: id, run: run}
}

func (t funcTask) ID() Id { return t.id }
func (t funcTask) Run(ctx context.Context, state RunnableState) error {
	return t.run(ctx, state)
}
