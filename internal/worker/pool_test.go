package worker

import (
	"sync/atomic"
	"testing"
)

func TestPool_RunsSubmittedJobs(t *testing.T) {
	p := NewPool(2)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		p.Submit(func() { ran.Add(1) })
	}
	p.Stop()

	if got := ran.Load(); got != 10 {
		t.Fatalf("ran = %d, want 10", got)
	}
}

func TestPool_SubmitAfterStopIsDropped(t *testing.T) {
	p := NewPool(1)
	p.Stop()

	// must not panic on the closed channel
	p.Submit(func() { t.Error("job ran after Stop") })
}

func TestPool_StopIsIdempotent(t *testing.T) {
	p := NewPool(1)
	p.Stop()
	p.Stop()
}
