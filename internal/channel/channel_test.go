package channel

import (
	"sync"
	"testing"
	"time"
)

func TestUnboundedFIFO(t *testing.T) {
	ch := NewUnbounded[int]()
	for i := 0; i < 5; i++ {
		if err := ch.Send(i); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		v, res := ch.Recv()
		if res != RecvOK {
			t.Fatalf("expected RecvOK, got %v", res)
		}
		if v != i {
			t.Fatalf("expected %d, got %d (FIFO violated)", i, v)
		}
	}
}

func TestUnboundedCloseDrains(t *testing.T) {
	ch := NewUnbounded[int]()
	_ = ch.Send(1)
	ch.Close()

	if v, res := ch.Recv(); res != RecvOK || v != 1 {
		t.Fatalf("expected buffered value before closed sentinel, got %v %v", v, res)
	}
	if _, res := ch.Recv(); res != RecvClosed {
		t.Fatalf("expected RecvClosed once drained, got %v", res)
	}
	if err := ch.Send(2); err != ErrClosed {
		t.Fatalf("expected ErrClosed on send after close, got %v", err)
	}
}

func TestBoundedBlocksOnFull(t *testing.T) {
	ch := NewBounded[int](1)
	if err := ch.Send(1); err != nil {
		t.Fatalf("first send: %v", err)
	}

	sent := make(chan struct{})
	go func() {
		_ = ch.Send(2)
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("Send should have blocked while buffer is full")
	case <-time.After(50 * time.Millisecond):
	}

	if v, res := ch.Recv(); res != RecvOK || v != 1 {
		t.Fatalf("expected first value, got %v %v", v, res)
	}

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("blocked Send never unblocked after Recv freed capacity")
	}
}

func TestBoundedTryRecvEmpty(t *testing.T) {
	ch := NewBounded[int](4)
	if _, res := ch.TryRecv(); res != RecvEmpty {
		t.Fatalf("expected RecvEmpty, got %v", res)
	}
	ch.Close()
	if _, res := ch.TryRecv(); res != RecvClosed {
		t.Fatalf("expected RecvClosed, got %v", res)
	}
}

func TestUnboundedConcurrentSenders(t *testing.T) {
	ch := NewUnbounded[int]()
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = ch.Send(i)
		}(i)
	}
	wg.Wait()
	ch.Close()

	seen := make(map[int]bool)
	for {
		v, res := ch.Recv()
		if res == RecvClosed {
			break
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct values, got %d", n, len(seen))
	}
}
