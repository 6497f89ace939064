package vmm

import "nachos/kernel/mem/pmm"

// PageTableEntry is one entry of a per-process page table, per spec.md §3.
//
// Invariants (spec.md §3):
//   - Valid implies Frame is a valid pmm.Frame.
//   - Shared implies the frame is flagged shared in the FrameTable and is
//     never selected as a page-replacement victim.
//   - On eviction, if Dirty, the backup store is refreshed, Dirty is
//     cleared, Valid is cleared, Frame is cleared and BackedUp is set.
type PageTableEntry struct {
	VPN      int
	Frame    pmm.Frame
	Valid    bool
	Shared   bool
	ReadOnly bool
	Dirty    bool
	Used     bool
	BackedUp bool
}

func newPageTableEntry(vpn int) PageTableEntry {
	return PageTableEntry{VPN: vpn, Frame: pmm.InvalidFrame}
}
