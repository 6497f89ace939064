// Package sched implements the pluggable CPU scheduler: ready-queue
// management, burst accounting, priority aging and the context-switch
// bookkeeping described in spec.md §4.1.
package sched

import (
	"container/heap"

	"nachos/kernel/stats"
	"nachos/kernel/thread"
)

// Alpha is the exponential-averaging constant used by the SJF burst
// predictor, per spec.md §4.1.
const Alpha = 0.5

// readyItem wraps a thread with its insertion sequence, so the
// min-priority heap can break ties in FIFO order exactly as
// listOfReadyThreads->getMaxPriorityThread's linear scan does for the
// original's stable list traversal.
type readyItem struct {
	thread *thread.Thread
	seq    int64
}

// priorityHeap is a container/heap of readyItems ordered by smallest
// ThreadPriority, ties broken by insertion order.
type priorityHeap []*readyItem

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].thread.ThreadPriority != h[j].thread.ThreadPriority {
		return h[i].thread.ThreadPriority < h[j].thread.ThreadPriority
	}
	return h[i].seq < h[j].seq
}
func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x any)   { *h = append(*h, x.(*readyItem)) }
func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler dispatches the simulated CPU under a single active Policy,
// per spec.md §4.1.
type Scheduler struct {
	policy  Policy
	quantum int64

	fifo []*thread.Thread
	pq   priorityHeap
	seq  int64

	table *thread.Table
	stats *stats.Statistics

	current    *thread.Thread
	burstStart int64
	toDestroy  *thread.Thread
}

// New constructs a Scheduler for the given policy and (RR/Priority-only)
// quantum, backed by table for the priority-aging pass and stats for
// burst/wait accounting.
func New(policy Policy, quantum int64, table *thread.Table, statistics *stats.Statistics) *Scheduler {
	return &Scheduler{
		policy:  policy,
		quantum: quantum,
		table:   table,
		stats:   statistics,
	}
}

// Policy returns the active scheduling policy.
func (s *Scheduler) Policy() Policy { return s.policy }

// Current returns the thread currently holding the simulated CPU, or
// nil if none.
func (s *Scheduler) Current() *thread.Thread { return s.current }

// MoveToReady closes out th's CPU burst (if it was running), applies
// policy-specific accounting, and places th on the ready queue, per
// spec.md §4.1.
func (s *Scheduler) MoveToReady(th *thread.Thread, now int64) {
	if th.State == thread.Running {
		runTime := now - s.burstStart
		if runTime > 0 {
			s.stats.RecordBurst(runTime)
			switch s.policy {
			case Priority:
				s.ageUsageAndPriority(th, runTime)
				// ageUsageAndPriority mutates ThreadPriority on every
				// thread already sitting in s.pq; restore the heap
				// invariant before any Pop or top-of-heap read
				// observes this pass's new priorities.
				heap.Init(&s.pq)
			case SJF:
				predicted := int64(th.ThreadPriority)
				diff := runTime - predicted
				if diff < 0 {
					diff = -diff
				}
				s.stats.BurstEstimateError += diff
				th.ThreadPriority = int(Alpha*float64(runTime) + (1-Alpha)*float64(th.ThreadPriority))
			}
		}
	}

	th.State = thread.Ready
	th.WaitStartTick = now
	s.push(th)
}

// ageUsageAndPriority applies the UNIX decay to every live thread's
// cpuUsage and recomputes threadPriority from it, per spec.md §4.1.
// running is the thread whose burst just closed; it receives the
// actual runTime rather than the halving applied to every other thread.
func (s *Scheduler) ageUsageAndPriority(running *thread.Thread, runTime int64) {
	s.table.Each(func(t *thread.Thread) {
		var usage int
		switch {
		case t == running:
			usage = (t.CPUUsage + int(runTime)) / 2
		case t.State == thread.Finished:
			return
		default:
			usage = t.CPUUsage / 2
		}
		t.CPUUsage = usage
		t.ThreadPriority = t.BasePriority + usage/2
	})
}

// push enqueues th under the active policy's ready-queue discipline.
func (s *Scheduler) push(th *thread.Thread) {
	if s.policy.UsesMinPriorityLookup() {
		s.seq++
		heap.Push(&s.pq, &readyItem{thread: th, seq: s.seq})
		return
	}
	s.fifo = append(s.fifo, th)
}

// SelectNextReady dispatches the next thread to run per the active
// policy, or returns ok=false if the ready queue is empty, per
// spec.md §4.1.
func (s *Scheduler) SelectNextReady() (next *thread.Thread, ok bool) {
	if s.policy.UsesMinPriorityLookup() {
		if s.pq.Len() == 0 {
			return nil, false
		}
		item := heap.Pop(&s.pq).(*readyItem)
		return item.thread, true
	}
	if len(s.fifo) == 0 {
		return nil, false
	}
	next = s.fifo[0]
	s.fifo = s.fifo[1:]
	return next, true
}

// ReadyLen reports how many threads are currently waiting to run.
func (s *Scheduler) ReadyLen() int {
	if s.policy.UsesMinPriorityLookup() {
		return s.pq.Len()
	}
	return len(s.fifo)
}

// ScheduleThread dispatches next onto the simulated CPU: it starts a
// fresh burst, folds next's ready-queue wait into the statistics, and
// records next as current, per spec.md §4.1. It returns the thread that
// was current before the switch (nil if none).
func (s *Scheduler) ScheduleThread(next *thread.Thread, now int64) *thread.Thread {
	previous := s.current
	s.burstStart = now
	s.stats.RecordWait(now - next.WaitStartTick)
	s.current = next
	next.State = thread.Running
	return previous
}

// MarkForDestruction records th as finished and awaiting carcass
// cleanup, deferred until the successor thread has taken the CPU, per
// spec.md §9 ("the outgoing stack is still live during context switch").
func (s *Scheduler) MarkForDestruction(th *thread.Thread) {
	s.toDestroy = th
}

// Tail drains the to-be-reaped slot, returning the thread whose
// resources the caller may now finalize (address space teardown, table
// removal), or nil if nothing is pending. This is the Go analogue of
// the original's post-_SWITCH reap, invoked as the tail of every
// context switch including a freshly forked thread's first dispatch.
func (s *Scheduler) Tail() *thread.Thread {
	done := s.toDestroy
	s.toDestroy = nil
	return done
}

// ShouldPreempt reports whether the timer interrupt should force a
// reschedule of the currently running thread, per spec.md §4.1's
// preemption rule: RR once the burst has reached the quantum, or
// preemptive Priority once a strictly higher-priority thread is ready.
func (s *Scheduler) ShouldPreempt(now int64) bool {
	if s.current == nil {
		return false
	}
	switch s.policy {
	case RR:
		return now-s.burstStart >= s.quantum
	case Priority:
		if s.pq.Len() == 0 {
			return false
		}
		return s.pq[0].thread.ThreadPriority < s.current.ThreadPriority
	default:
		return false
	}
}
