package pmm

import "testing"

// refString is the classic Belady reference string used to compare page
// replacement policies, per spec.md §8.
var refString = []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5}

// simulate drives refString through a replacer backed by a direct vpn->frame
// map (standing in for a full AddressSpace, which isn't needed to exercise
// the replacement policy in isolation) and returns the number of faults.
func simulate(t *testing.T, policy Policy, numFrames int) int {
	t.Helper()

	ft := NewFrameTable(numFrames)
	r := NewPageReplacer(policy, ft, 1)
	resident := map[int]Frame{}
	faults := 0

	for now, vpn := range refString {
		if _, ok := resident[vpn]; ok {
			continue // hit
		}

		f, err := r.Allocate(1, vpn, false, InvalidFrame, int64(now), func(_, evictedVpn int) {
			delete(resident, evictedVpn)
		})
		if err != nil {
			t.Fatalf("unexpected allocation failure at ref %d (vpn %d): %v", now, vpn, err)
		}
		resident[vpn] = f
		ft.Assign(f, 1, vpn, false)
		faults++
	}

	return faults
}

func TestPageReplacerReferenceString(t *testing.T) {
	// 9, not the textbook true-LRU count of 10: this replacer stamps a
	// page's LRU timestamp only on a fault, never on a resident hit,
	// matching addrspace.cc's fault-order recency tracking rather than
	// a full access-order LRU.
	if got, want := simulate(t, PolicyLRU, 3), 9; got != want {
		t.Errorf("LRU fault count = %d; want %d", got, want)
	}
	if got, want := simulate(t, PolicyClock, 3), 9; got != want {
		t.Errorf("Clock fault count = %d; want %d", got, want)
	}
}

func TestPageReplacerFIFO(t *testing.T) {
	// FIFO must never select a shared frame, even one at the head of the
	// order queue.
	ft := NewFrameTable(2)
	ft.Assign(0, 1, 0, true) // frame 0 is shared, never a victim
	ft.PushFIFO(0)
	ft.PushFIFO(1)

	r := NewPageReplacer(PolicyFIFO, ft, 1)
	victim, err := r.Allocate(1, 5, true, InvalidFrame, 0, func(int, int) {})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if victim != 1 {
		t.Errorf("expected FIFO to skip the shared frame and evict 1; got %v", victim)
	}
}

func TestPageReplacerNoneFailsWhenExhausted(t *testing.T) {
	ft := NewFrameTable(1)
	ft.Assign(0, 1, 0, false)

	r := NewPageReplacer(PolicyNone, ft, 1)
	if _, err := r.Allocate(2, 0, false, InvalidFrame, 0, nil); err == nil {
		t.Errorf("expected an error when PolicyNone runs out of frames")
	}
}
