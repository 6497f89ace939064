package sched

import (
	"testing"

	"nachos/kernel/stats"
	"nachos/kernel/thread"
)

func TestFCFSReadyQueueIsFIFO(t *testing.T) {
	tb := thread.NewTable()
	s := New(FCFS, 0, tb, stats.New(int(FCFS), 0))

	a := tb.New(0, "a", 100)
	b := tb.New(0, "b", 100)
	c := tb.New(0, "c", 100)

	s.MoveToReady(a, 0)
	s.MoveToReady(b, 0)
	s.MoveToReady(c, 0)

	for _, want := range []*thread.Thread{a, b, c} {
		got, ok := s.SelectNextReady()
		if !ok || got != want {
			t.Fatalf("SelectNextReady() = %v; want %v", got, want)
		}
	}
	if _, ok := s.SelectNextReady(); ok {
		t.Errorf("expected empty ready queue")
	}
}

func TestPriorityPolicyDispatchesSmallestThreadPriority(t *testing.T) {
	tb := thread.NewTable()
	s := New(Priority, 100, tb, stats.New(int(Priority), 100))

	low := tb.New(0, "low", 10)
	high := tb.New(0, "high", 200)

	s.MoveToReady(high, 0)
	s.MoveToReady(low, 0)

	got, ok := s.SelectNextReady()
	if !ok || got != low {
		t.Fatalf("expected the lower-priority-number thread first, got %v", got)
	}
}

func TestSJFBurstPredictorConvergesGeometrically(t *testing.T) {
	tb := thread.NewTable()
	s := New(SJF, 0, tb, stats.New(int(SJF), 0))
	th := tb.New(0, "cpu-bound", 100)
	th.ThreadPriority = 100 // initial guess seeded from priority, per spec.md scenario 6

	now := int64(0)
	for i := 0; i < 10; i++ {
		s.ScheduleThread(th, now)
		now += 10
		th.State = thread.Running
		s.MoveToReady(th, now)
	}

	if th.ThreadPriority < 9 || th.ThreadPriority > 11 {
		t.Errorf("ThreadPriority = %d; expected convergence near 10", th.ThreadPriority)
	}
}

func TestRRPreemptsAtQuantum(t *testing.T) {
	tb := thread.NewTable()
	s := New(RR, 100, tb, stats.New(int(RR), 100))
	th := tb.New(0, "cpu-bound", 100)
	s.ScheduleThread(th, 0)

	if s.ShouldPreempt(50) {
		t.Errorf("should not preempt before quantum elapses")
	}
	if !s.ShouldPreempt(100) {
		t.Errorf("should preempt once the quantum elapses")
	}
}

func TestPriorityAgingHalvesUsageOfNonRunningThreads(t *testing.T) {
	tb := thread.NewTable()
	s := New(Priority, 0, tb, stats.New(int(Priority), 0))
	running := tb.New(0, "running", 50)
	idle := tb.New(0, "idle", 50)
	idle.CPUUsage = 100

	s.ScheduleThread(running, 0)
	running.State = thread.Running
	s.MoveToReady(running, 20)

	if idle.CPUUsage != 50 {
		t.Errorf("idle.CPUUsage = %d; want 50 (halved)", idle.CPUUsage)
	}
	if running.CPUUsage != 10 {
		t.Errorf("running.CPUUsage = %d; want 10 ((0+20)/2)", running.CPUUsage)
	}
}

func TestTailDrainsDestroyedThread(t *testing.T) {
	tb := thread.NewTable()
	s := New(FCFS, 0, tb, stats.New(int(FCFS), 0))
	dead := tb.New(0, "dead", 100)

	s.MarkForDestruction(dead)
	if got := s.Tail(); got != dead {
		t.Errorf("Tail() = %v; want %v", got, dead)
	}
	if got := s.Tail(); got != nil {
		t.Errorf("second Tail() = %v; want nil", got)
	}
}
