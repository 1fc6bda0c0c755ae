package guard

import "testing"

func TestReleaseRunsOnce(t *testing.T) {
	calls := 0
	g := New(42, func(v int) {
		calls++
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	})
	g.Release()
	g.Release()
	g.Release()
	if calls != 1 {
		t.Fatalf("expected release to run exactly once, ran %d times", calls)
	}
}

func TestReleaseRunsOnPanicUnwind(t *testing.T) {
	released := false
	func() {
		g := New(struct{}{}, func(struct{}) { released = true })
		defer g.Release()
		defer func() { _ = recover() }()
		panic("boom")
	}()
	if !released {
		t.Fatal("expected release to run while unwinding a panic")
	}
}

func TestValue(t *testing.T) {
	g := New("x", func(string) {})
	if g.Value() != "x" {
		t.Fatalf("expected x, got %s", g.Value())
	}
}
