package pmm

import "nachos/kernel/mem"

// frameState holds the per-frame bookkeeping described by the Frame data
// model: the occupying (pid, vpn) pair, whether the frame is shared,
// the clock reference bit and the LRU timestamp. FIFO insertion order
// is kept separately, in FrameTable.fifoOrder.
//
// The original NachOS source never releases a shared frame when its last
// owning process exits, which leaks physical memory for the lifetime of
// the simulation. This table refcounts shared frames instead and frees
// them once the last owner calls ReleaseShared, closing that leak rather
// than silently reproducing it.
type frameState struct {
	occupied    bool
	occupantPid int
	occupantVpn int
	shared      bool
	sharedRefs  int
	refBit      bool
	timestamp   int64
}

// FrameTable owns the fixed pool of physical frames shared by every
// AddressSpace in the simulation, including the host bytes that back
// them (spec.md §3: "the host memory holds NumPhysFrames * PageSize
// bytes").
type FrameTable struct {
	frames    []frameState
	fifoOrder []Frame
	bytes     []byte
}

// NewFrameTable allocates a table for numFrames physical frames, all
// initially free, backed by numFrames*PageSize bytes of host memory.
func NewFrameTable(numFrames int) *FrameTable {
	return &FrameTable{
		frames: make([]frameState, numFrames),
		bytes:  make([]byte, numFrames*int(mem.PageSize)),
	}
}

// FrameBytes returns the PageSize-length byte slice backing frame f.
// Mutating the returned slice mutates the frame's contents in place.
func (t *FrameTable) FrameBytes(f Frame) []byte {
	off := int(f) * int(mem.PageSize)
	return t.bytes[off : off+int(mem.PageSize)]
}

// CopyFrame copies the contents of src into dst.
func (t *FrameTable) CopyFrame(dst, src Frame) {
	copy(t.FrameBytes(dst), t.FrameBytes(src))
}

// NumFrames returns the size of the physical frame pool.
func (t *FrameTable) NumFrames() int {
	return len(t.frames)
}

// Occupant returns the (pid, vpn) pair currently mapped to f, or ok=false
// if f is free.
func (t *FrameTable) Occupant(f Frame) (pid, vpn int, ok bool) {
	s := &t.frames[f]
	return s.occupantPid, s.occupantVpn, s.occupied
}

// IsShared reports whether f is flagged shared, i.e. never a victim.
func (t *FrameTable) IsShared(f Frame) bool {
	return t.frames[f].shared
}

// Assign records that frame f now holds page vpn of process pid. shared
// marks the frame as never-evictable; for a shared frame this also bumps
// the owner refcount so the frame outlives any single address space.
func (t *FrameTable) Assign(f Frame, pid, vpn int, shared bool) {
	s := &t.frames[f]
	s.occupied = true
	s.occupantPid = pid
	s.occupantVpn = vpn
	if shared {
		s.shared = true
		s.sharedRefs++
	}
}

// Free clears the occupant of a non-shared frame, returning it to the
// free pool.
func (t *FrameTable) Free(f Frame) {
	t.frames[f] = frameState{}
}

// ReleaseShared decrements a shared frame's owner refcount and frees the
// frame once the last owner has released it.
func (t *FrameTable) ReleaseShared(f Frame) {
	s := &t.frames[f]
	if !s.shared {
		return
	}
	s.sharedRefs--
	if s.sharedRefs <= 0 {
		t.frames[f] = frameState{}
	}
}

// SetReferenceBit sets or clears the clock reference bit of f.
func (t *FrameTable) SetReferenceBit(f Frame, v bool) {
	t.frames[f].refBit = v
}

// ReferenceBit returns the clock reference bit of f.
func (t *FrameTable) ReferenceBit(f Frame) bool {
	return t.frames[f].refBit
}

// Stamp records now as the LRU timestamp of f.
func (t *FrameTable) Stamp(f Frame, now int64) {
	t.frames[f].timestamp = now
}

// Timestamp returns the last LRU timestamp recorded for f.
func (t *FrameTable) Timestamp(f Frame) int64 {
	return t.frames[f].timestamp
}

// PushFIFO appends f to the tail of the FIFO order queue.
func (t *FrameTable) PushFIFO(f Frame) {
	t.fifoOrder = append(t.fifoOrder, f)
}

// PopFIFO removes and returns the head of the FIFO order queue.
func (t *FrameTable) PopFIFO() (Frame, bool) {
	if len(t.fifoOrder) == 0 {
		return InvalidFrame, false
	}
	f := t.fifoOrder[0]
	t.fifoOrder = t.fifoOrder[1:]
	return f, true
}

// firstFree scans for the first frame with no occupant.
func (t *FrameTable) firstFree() (Frame, bool) {
	for i := range t.frames {
		if !t.frames[i].occupied {
			return Frame(i), true
		}
	}
	return InvalidFrame, false
}

// AllocatedCount returns the number of frames whose occupant is
// non-empty and non-shared, the quantity spec.md's invariants call
// numPagesAllocated.
func (t *FrameTable) AllocatedCount() int {
	n := 0
	for i := range t.frames {
		if t.frames[i].occupied && !t.frames[i].shared {
			n++
		}
	}
	return n
}
