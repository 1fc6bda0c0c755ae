// Package protocol implements the protocol watcher (spec.md §4.9,
// C9): a task that periodically polls the admin contract's protocol
// list and reports additions and removals to the supervisor.
package protocol

import (
	"context"
	"sort"
	"time"

	"github.com/nolus-protocol/chain-ops/internal/channel"
	"github.com/nolus-protocol/chain-ops/internal/log"
	"github.com/nolus-protocol/chain-ops/internal/task"
)

var logger = log.New(log.ModuleProtocolWatch)

// EventKind distinguishes an addition from a removal.
type EventKind int

const (
	Added EventKind = iota
	Removed
)

func (k EventKind) String() string {
	if k == Removed {
		return "removed"
	}
	return "added"
}

// Event is one protocol add/remove notification (spec.md §3's
// ProtocolSet reconciliation).
type Event struct {
	Kind EventKind
	Name string
}

// AdminQuerier is the subset of node.QueryWasm the watcher needs to
// read the admin contract's protocol list.
type AdminQuerier interface {
	SmartQuery(ctx context.Context, contractAddr string, query, out interface{}) error
}

// protocolsQuery is the admin contract's JSON query for its protocol
// list: {"protocols": {}}.
type protocolsQuery struct {
	Protocols struct{} `json:"protocols"`
}

// Watcher polls the admin contract every pollInterval and diffs the
// result against its last-known set, emitting Added before Removed for
// the same tick (spec.md §4.9). The initial tick emits Added for every
// protocol observed.
type Watcher struct {
	wasm         AdminQuerier
	adminAddress string
	pollInterval time.Duration
	events       *channel.Unbounded[Event]

	known map[string]struct{}
}

// New constructs a Watcher. events is the supervisor-owned sink
// Events are sent to; the watcher is the channel's sole producer.
func New(wasm AdminQuerier, adminAddress string, pollInterval time.Duration, events *channel.Unbounded[Event]) *Watcher {
	return &Watcher{
		wasm:         wasm,
		adminAddress: adminAddress,
		pollInterval: pollInterval,
		events:       events,
		known:        make(map[string]struct{}),
	}
}

// ID identifies this task as the built-in protocol watcher.
func (w *Watcher) ID() task.Id { return task.ProtocolWatcher }

// Run implements task.Runnable.
func (w *Watcher) Run(ctx context.Context, _ task.RunnableState) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	if err := w.pollOnce(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.pollOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) error {
	var resp []string
	if err := w.wasm.SmartQuery(ctx, w.adminAddress, protocolsQuery{}, &resp); err != nil {
		return err
	}

	current := make(map[string]struct{}, len(resp))
	for _, name := range resp {
		current[name] = struct{}{}
	}

	added, removed := diff(w.known, current)
	for _, name := range added {
		logger.Info("protocol added", "protocol", name)
		_ = w.events.Send(Event{Kind: Added, Name: name})
	}
	for _, name := range removed {
		logger.Info("protocol removed", "protocol", name)
		_ = w.events.Send(Event{Kind: Removed, Name: name})
	}

	w.known = current
	return nil
}

// diff returns the sorted names present in current but not known
// (additions) and present in known but not current (removals).
func diff(known, current map[string]struct{}) (added, removed []string) {
	for name := range current {
		if _, ok := known[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range known {
		if _, ok := current[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
