package service

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

type fakeSupervisor struct {
	blockUntilCancelled bool
	retErr              error
}

func (f fakeSupervisor) Run(ctx context.Context) error {
	if f.blockUntilCancelled {
		<-ctx.Done()
		return nil
	}
	return f.retErr
}

func TestRunReportsExitedWhenSupervisorReturnsOnItsOwn(t *testing.T) {
	wantErr := errors.New("boom")
	outcome, err := Run(context.Background(), fakeSupervisor{retErr: wantErr})
	if outcome != Exited {
		t.Fatalf("expected Exited, got %v", outcome)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestRunReportsStopSignalReceivedAndWaitsForDrain(t *testing.T) {
	done := make(chan struct{})
	go func() {
		outcome, _ := Run(context.Background(), fakeSupervisor{blockUntilCancelled: true})
		if outcome != StopSignalReceived {
			t.Errorf("expected StopSignalReceived, got %v", outcome)
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after SIGTERM")
	}
}
