package thread

import (
	"sort"
	"sync"
)

// Table is the process-wide PID-indexed thread table, the single
// owner of every Thread's authoritative record per spec.md §9's handle
// discipline: other subsystems hold a PID and look it up here rather
// than caching a pointer across a context switch.
//
// The original source guards this table (and the ready/sleep queues it
// feeds) by disabling simulated interrupts around edits. A hosted
// simulator has no interrupts to disable, so a mutex stands in for the
// same mutual-exclusion contract.
type Table struct {
	mu      sync.Mutex
	threads map[int]*Thread
	nextPID int
}

// NewTable constructs an empty thread table. PID 0 is reserved (it
// means "no parent"), so allocation starts at 1.
func NewTable() *Table {
	return &Table{
		threads: make(map[int]*Thread),
		nextPID: 1,
	}
}

// New allocates the next PID and registers a fresh thread under it.
func (tb *Table) New(ppid int, name string, basePriority int) *Thread {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	pid := tb.nextPID
	tb.nextPID++
	t := newThread(pid, ppid, name, basePriority)
	tb.threads[pid] = t
	return t
}

// Lookup returns the thread registered under pid, if any.
func (tb *Table) Lookup(pid int) (*Thread, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	t, ok := tb.threads[pid]
	return t, ok
}

// Remove deregisters pid, e.g. once its Thread has been reaped after
// finishing.
func (tb *Table) Remove(pid int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	delete(tb.threads, pid)
}

// Len returns the number of threads currently registered, used to
// detect "this was the last live thread" on Exit (spec.md §4.4).
func (tb *Table) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.threads)
}

// Each calls fn for every registered thread, in PID order, for the
// priority-aging pass that must visit every live thread on every burst
// close-out (spec.md §4.1). fn must not call back into the Table.
func (tb *Table) Each(fn func(*Thread)) {
	tb.mu.Lock()
	pids := make([]int, 0, len(tb.threads))
	for pid := range tb.threads {
		pids = append(pids, pid)
	}
	tb.mu.Unlock()

	sort.Ints(pids)
	for _, pid := range pids {
		tb.mu.Lock()
		t, ok := tb.threads[pid]
		tb.mu.Unlock()
		if ok {
			fn(t)
		}
	}
}
