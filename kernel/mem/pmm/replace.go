package pmm

import (
	"math/rand"

	"nachos/kernel"
)

// Policy selects the page-replacement algorithm, numbered per spec.md §6.
type Policy int

const (
	// PolicyNone disables replacement: allocation fails once the frame
	// pool is exhausted.
	PolicyNone Policy = iota
	PolicyRandom
	PolicyFIFO
	PolicyLRU
	PolicyClock
)

var errNoFreeFrame = kernel.New("pmm", "no free physical frame and replacement disabled")
var errPoolExhausted = kernel.New("pmm", "replacement policy could not find an eligible victim")

// EvictFn is invoked by the replacer before handing over a frame that
// already has an occupant, so the occupant's dirty bytes can be
// preserved before the frame is reused. It mirrors AddressSpace.takeBackup
// from spec.md §4.2 without pmm depending on the vmm package.
type EvictFn func(occupantPid, occupantVpn int)

// PageReplacer selects a victim frame for a requesting (pid, vpn) under
// the active Policy, per spec.md §4.3.
type PageReplacer struct {
	policy Policy
	table  *FrameTable
	rng    *rand.Rand
	clock  int
}

// NewPageReplacer constructs a replacer over table using the given
// policy. seed drives the Random policy's deterministic RNG.
func NewPageReplacer(policy Policy, table *FrameTable, seed int64) *PageReplacer {
	return &PageReplacer{
		policy: policy,
		table:  table,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Allocate returns a physical frame for the requesting (pid, vpn). If
// mustReplace is false it simply returns the first free frame, failing
// if none remains and the policy is PolicyNone. If mustReplace is true
// it evicts a victim per the active policy, skipping shared frames and
// excluded (the caller's own frame during a fork duplication).
func (r *PageReplacer) Allocate(pid, vpn int, mustReplace bool, excluded Frame, now int64, onEvict EvictFn) (Frame, *kernel.Error) {
	if !mustReplace {
		f, ok := r.table.firstFree()
		if !ok {
			if r.policy == PolicyNone {
				return InvalidFrame, errNoFreeFrame
			}
			return r.evict(pid, vpn, excluded, now, onEvict)
		}
		r.onAllocate(f, now)
		return f, nil
	}
	return r.evict(pid, vpn, excluded, now, onEvict)
}

// onAllocate updates per-policy bookkeeping for a freshly allocated,
// previously-unoccupied frame.
func (r *PageReplacer) onAllocate(f Frame, now int64) {
	switch r.policy {
	case PolicyFIFO:
		r.table.PushFIFO(f)
	case PolicyLRU:
		r.table.Stamp(f, now)
	case PolicyClock:
		r.table.SetReferenceBit(f, true)
	}
}

func (r *PageReplacer) eligible(f Frame, excluded Frame) bool {
	if f == excluded {
		return false
	}
	return !r.table.IsShared(f)
}

func (r *PageReplacer) evict(pid, vpn int, excluded Frame, now int64, onEvict EvictFn) (Frame, *kernel.Error) {
	if r.policy == PolicyNone {
		return InvalidFrame, errNoFreeFrame
	}

	var victim Frame
	switch r.policy {
	case PolicyRandom:
		v, err := r.pickRandom(excluded)
		if err != nil {
			return InvalidFrame, err
		}
		victim = v
	case PolicyFIFO:
		v, err := r.pickFIFO(excluded)
		if err != nil {
			return InvalidFrame, err
		}
		victim = v
	case PolicyLRU:
		v, err := r.pickLRU(excluded)
		if err != nil {
			return InvalidFrame, err
		}
		victim = v
	case PolicyClock:
		v, err := r.pickClock(excluded)
		if err != nil {
			return InvalidFrame, err
		}
		victim = v
	default:
		return InvalidFrame, errPoolExhausted
	}

	if occPid, occVpn, ok := r.table.Occupant(victim); ok && onEvict != nil {
		onEvict(occPid, occVpn)
	}
	r.table.Free(victim)

	switch r.policy {
	case PolicyFIFO:
		r.table.PushFIFO(victim)
	case PolicyLRU:
		r.table.Stamp(victim, now)
		if excluded.Valid() {
			r.table.Stamp(excluded, now-1)
		}
	case PolicyClock:
		r.table.SetReferenceBit(victim, true)
	}

	return victim, nil
}

// pickRandom uniformly samples frame indices until an eligible one
// appears.
func (r *PageReplacer) pickRandom(excluded Frame) (Frame, *kernel.Error) {
	n := r.table.NumFrames()
	attempts := n * 4
	if attempts == 0 {
		return InvalidFrame, errPoolExhausted
	}
	for i := 0; i < attempts; i++ {
		f := Frame(r.rng.Intn(n))
		if r.eligible(f, excluded) {
			return f, nil
		}
	}
	// Fall back to a linear scan in case randomness got unlucky against
	// a near-full shared pool.
	for i := 0; i < n; i++ {
		if r.eligible(Frame(i), excluded) {
			return Frame(i), nil
		}
	}
	return InvalidFrame, errPoolExhausted
}

// pickFIFO pops the head of the order queue, rotating ineligible
// entries to the tail until an eligible victim surfaces.
func (r *PageReplacer) pickFIFO(excluded Frame) (Frame, *kernel.Error) {
	n := r.table.NumFrames()
	for i := 0; i < n; i++ {
		f, ok := r.table.PopFIFO()
		if !ok {
			return InvalidFrame, errPoolExhausted
		}
		if r.eligible(f, excluded) {
			return f, nil
		}
		r.table.PushFIFO(f)
	}
	return InvalidFrame, errPoolExhausted
}

// pickLRU linearly scans for the eligible frame with the smallest
// timestamp, breaking ties toward the lower frame index.
func (r *PageReplacer) pickLRU(excluded Frame) (Frame, *kernel.Error) {
	best := InvalidFrame
	var bestTs int64
	for i := 0; i < r.table.NumFrames(); i++ {
		f := Frame(i)
		if !r.eligible(f, excluded) {
			continue
		}
		ts := r.table.Timestamp(f)
		if !best.Valid() || ts < bestTs {
			best = f
			bestTs = ts
		}
	}
	if !best.Valid() {
		return InvalidFrame, errPoolExhausted
	}
	return best, nil
}

// pickClock advances the circular hand, clearing reference bits on
// inspected frames, until it finds an eligible frame whose reference bit
// is already clear.
func (r *PageReplacer) pickClock(excluded Frame) (Frame, *kernel.Error) {
	n := r.table.NumFrames()
	if n == 0 {
		return InvalidFrame, errPoolExhausted
	}
	for i := 0; i < 2*n; i++ {
		f := Frame(r.clock)
		r.clock = (r.clock + 1) % n
		if !r.eligible(f, excluded) {
			continue
		}
		if r.table.ReferenceBit(f) {
			r.table.SetReferenceBit(f, false)
			continue
		}
		return f, nil
	}
	return InvalidFrame, errPoolExhausted
}
