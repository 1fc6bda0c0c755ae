// Package balance implements the balance reporter (spec.md §4.8, C8):
// a built-in task that periodically logs the signer account's on-chain
// balance.
package balance

import (
	"context"
	"time"

	"github.com/nolus-protocol/chain-ops/internal/log"
	"github.com/nolus-protocol/chain-ops/internal/task"
)

var logger = log.New(log.ModuleBalanceReport)

const interval = 30 * time.Second

// BankQuerier is the subset of node.QueryBank the reporter needs.
type BankQuerier interface {
	Balance(ctx context.Context, address, denom string) (string, error)
}

// Reporter periodically reads and logs the signer's balance. It never
// exits of its own accord; any query error propagates upward and is
// handled by the restart policy (spec.md §4.8).
type Reporter struct {
	bank    BankQuerier
	address string
	denom   string
}

// New constructs a Reporter for address's denom balance, queried
// through bank.
func New(bank BankQuerier, address, denom string) *Reporter {
	return &Reporter{bank: bank, address: address, denom: denom}
}

// ID identifies this task as the built-in balance reporter.
func (r *Reporter) ID() task.Id { return task.BalanceReporter }

// Run implements task.Runnable.
func (r *Reporter) Run(ctx context.Context, _ task.RunnableState) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.reportOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *Reporter) reportOnce(ctx context.Context) error {
	amount, err := r.bank.Balance(ctx, r.address, r.denom)
	if err != nil {
		return err
	}
	logger.Info("signer balance", "address", r.address, "denom", r.denom, "amount", formatThousands(amount))
	return nil
}

// formatThousands inserts a space every three digits from the right of
// an unsigned decimal integer string, leaving a leading sign (if any)
// untouched. Non-digit input is returned unchanged.
func formatThousands(s string) string {
	sign := ""
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		sign, s = string(s[0]), s[1:]
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return sign + s
		}
	}

	n := len(s)
	if n <= 3 {
		return sign + s
	}

	groups := (n - 1) / 3
	out := make([]byte, n+groups)
	srcIdx := n - 1
	dstIdx := len(out) - 1
	for digitsWritten := 0; srcIdx >= 0; digitsWritten++ {
		if digitsWritten > 0 && digitsWritten%3 == 0 {
			out[dstIdx] = ' '
			dstIdx--
		}
		out[dstIdx] = s[srcIdx]
		dstIdx--
		srcIdx--
	}
	return sign + string(out)
}
