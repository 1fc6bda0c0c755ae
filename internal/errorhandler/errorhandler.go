// Package errorhandler implements the per-task restart policy
// described in spec.md §4.6 (C6): an adaptive decision between an
// Immediate and a Delayed restart, with a retry budget that
// replenishes after a quiet period and stale-entry garbage collection.
package errorhandler

import (
	"sync"
	"time"

	"github.com/nolus-protocol/chain-ops/internal/task"
)

// Strategy is the restart decision for one task exit.
type Strategy int

const (
	Immediate Strategy = iota
	Delayed
)

func (s Strategy) String() string {
	if s == Delayed {
		return "delayed"
	}
	return "immediate"
}

// DelayedRestartWait is the fixed pause before a Delayed restart is
// re-spawned. The original source uses 15 seconds (spec.md §4.6).
const DelayedRestartWait = 15 * time.Second

type entry struct {
	lastRestart  time.Time
	retriesLeft  uint8
}

// Policy is the error-handler's state: the per-id restart record plus
// its configured budget and margin.
type Policy struct {
	maxImmediateRetries uint8
	margin              time.Duration
	now                 func() time.Time

	mu  sync.Mutex
	ids map[task.Id]entry
}

// New constructs a Policy. now defaults to time.Now if nil; tests pass
// a fake clock to exercise the margin boundary deterministically.
func New(maxImmediateRetries uint8, margin time.Duration, now func() time.Time) *Policy {
	if now == nil {
		now = time.Now
	}
	return &Policy{
		maxImmediateRetries: maxImmediateRetries,
		margin:              margin,
		now:                 now,
		ids:                 make(map[task.Id]entry),
	}
}

// RestartStrategy runs the decision in spec.md §4.6 for id and returns
// the strategy to use for the restart currently being considered.
func (p *Policy) RestartStrategy(id task.Id) Strategy {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	e, known := p.ids[id]
	var retries uint8
	if !known {
		retries = p.maxImmediateRetries
	} else if now.Sub(e.lastRestart) < p.margin {
		retries = saturatingSub(e.retriesLeft)
	} else {
		retries = p.maxImmediateRetries
	}
	p.ids[id] = entry{lastRestart: now, retriesLeft: retries}

	// Evict every entry (other than the one just written, which is
	// fresh by construction) whose last restart predates the margin.
	for otherID, otherEntry := range p.ids {
		if otherID == id {
			continue
		}
		if now.Sub(otherEntry.lastRestart) >= p.margin {
			delete(p.ids, otherID)
		}
	}

	if retries > 0 {
		return Immediate
	}
	return Delayed
}

func saturatingSub(v uint8) uint8 {
	if v == 0 {
		return 0
	}
	return v - 1
}
