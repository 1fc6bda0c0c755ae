package balance

import (
	"context"
	"errors"
	"testing"
)

func TestFormatThousands(t *testing.T) {
	cases := map[string]string{
		"0":             "0",
		"7":             "7",
		"123":           "123",
		"1234":          "1 234",
		"1234567":       "1 234 567",
		"-1234567":      "-1 234 567",
		"1000000000000": "1 000 000 000 000",
	}
	for in, want := range cases {
		if got := formatThousands(in); got != want {
			t.Errorf("formatThousands(%q) = %q, want %q", in, got, want)
		}
	}
}

type stubBank struct {
	amount string
	err    error
	calls  int
}

func (s *stubBank) Balance(ctx context.Context, address, denom string) (string, error) {
	s.calls++
	return s.amount, s.err
}

func TestReportOnceReturnsQueryError(t *testing.T) {
	bank := &stubBank{err: errors.New("transport down")}
	r := New(bank, "nolus1addr", "unls")
	if err := r.reportOnce(context.Background()); err == nil {
		t.Fatal("expected the query error to propagate")
	}
	if bank.calls != 1 {
		t.Fatalf("expected exactly one balance query, got %d", bank.calls)
	}
}

func TestIDIsBuiltinBalanceReporter(t *testing.T) {
	r := New(&stubBank{}, "addr", "unls")
	if r.ID().String() != "balance-reporter" {
		t.Fatalf("unexpected id: %s", r.ID())
	}
}
