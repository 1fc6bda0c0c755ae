package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func blockingTask(id Id, exitErr error) Task {
	return FromFunc(id, func(ctx context.Context, _ RunnableState) error {
		<-ctx.Done()
		return exitErr
	})
}

func TestSetCancelAbortsTask(t *testing.T) {
	s := NewSet(4)
	id := AppID{Discriminator: "x"}
	s.Put(context.Background(), blockingTask(id, nil), New)

	if !s.Cancel(id) {
		t.Fatal("expected Cancel to find the registered handle")
	}

	select {
	case ev := <-s.Exits():
		if ev.ID != id {
			t.Fatalf("unexpected exit id %v", ev.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled task never reported exit")
	}
}

func TestSetIDsForProtocol(t *testing.T) {
	s := NewSet(4)
	ctx := context.Background()
	a1 := AppID{ProtocolName: "A", Discriminator: "1"}
	a2 := AppID{ProtocolName: "A", Discriminator: "2"}
	b1 := AppID{ProtocolName: "B", Discriminator: "1"}
	s.Put(ctx, blockingTask(a1, nil), New)
	s.Put(ctx, blockingTask(a2, nil), New)
	s.Put(ctx, blockingTask(b1, nil), New)

	ids := s.IDsForProtocol("A")
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids for protocol A, got %d", len(ids))
	}
	s.CancelAll()
}

func TestSpawnRecoversPanic(t *testing.T) {
	id := AppID{Discriminator: "panicking"}
	task := FromFunc(id, func(ctx context.Context, _ RunnableState) error {
		panic("boom")
	})
	h := Spawn(context.Background(), task, New)
	select {
	case err := <-h.Done():
		if err == nil {
			t.Fatal("expected panic to surface as an error")
		}
	case <-time.After(time.Second):
		t.Fatal("task never finished")
	}
}

func TestTaskExitErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	task := FromFunc(AppID{Discriminator: "x"}, func(ctx context.Context, _ RunnableState) error {
		return wantErr
	})
	h := Spawn(context.Background(), task, New)
	if err := <-h.Done(); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
