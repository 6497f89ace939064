// Package vmm implements the per-process virtual memory subsystem:
// NOFF-backed address spaces, demand paging and fork duplication, per
// spec.md §4.2.
package vmm

import (
	"io"

	"nachos/kernel"
	"nachos/kernel/mem"
	"nachos/kernel/mem/pmm"
)

const (
	// UserStackSize is the number of bytes reserved at the top of every
	// address space for the user stack.
	UserStackSize = mem.Size(1024)

	// FaultServiceTicks is the simulated latency charged to a thread
	// that blocks to service a page fault, per spec.md §4.2.
	FaultServiceTicks = 1000
)

// AddressSpace is a process's page table together with the state needed
// to service demand faults: its backup store, its NOFF header and the
// executable it was built from, per spec.md §3.
type AddressSpace struct {
	pid             int
	numVirtualPages int
	pageTable       []PageTableEntry
	backup          []byte
	noff            NoffHeader
	fileName        string
	exec            io.ReaderAt

	frames   *pmm.FrameTable
	replacer *pmm.PageReplacer
}

// New constructs an AddressSpace for pid from the NOFF executable exec.
// No physical frames are taken eagerly; every page starts invalid and
// will be demand-faulted in by FixFault.
func New(pid int, fileName string, exec io.ReaderAt, frames *pmm.FrameTable, replacer *pmm.PageReplacer) (*AddressSpace, *kernel.Error) {
	header, err := ReadNoffHeader(io.NewSectionReader(exec, 0, 40))
	if err != nil {
		return nil, err
	}

	size := mem.Size(header.Code.Size) + mem.Size(header.InitData.Size) + mem.Size(header.UninitData.Size) + UserStackSize
	numPages := int(size.Pages())

	pageTable := make([]PageTableEntry, numPages)
	for i := range pageTable {
		pageTable[i] = newPageTableEntry(i)
	}

	return &AddressSpace{
		pid:             pid,
		numVirtualPages: numPages,
		pageTable:       pageTable,
		backup:          make([]byte, numPages*int(mem.PageSize)),
		noff:            header,
		fileName:        fileName,
		exec:            exec,
		frames:          frames,
		replacer:        replacer,
	}, nil
}

// PID returns the owning process id.
func (as *AddressSpace) PID() int { return as.pid }

// NumVirtualPages returns the size of the page table.
func (as *AddressSpace) NumVirtualPages() int { return as.numVirtualPages }

// Entry returns a copy of the page table entry for vpn.
func (as *AddressSpace) Entry(vpn int) PageTableEntry { return as.pageTable[vpn] }

// Fork duplicates the parent address space for a freshly forked child,
// per spec.md §4.2. Shared entries are copied verbatim (same physical
// frame, refcounted). Valid non-shared entries are given a fresh frame,
// excluding the parent's own frame from victim selection so both copies
// coexist while the bytes are copied. Invalid entries stay invalid; the
// whole backup buffer is copied so the child can still demand-fault
// them later.
func (parent *AddressSpace) Fork(childPid int, now int64, onEvict pmm.EvictFn) (*AddressSpace, *kernel.Error) {
	child := &AddressSpace{
		pid:             childPid,
		numVirtualPages: parent.numVirtualPages,
		pageTable:       make([]PageTableEntry, parent.numVirtualPages),
		backup:          make([]byte, len(parent.backup)),
		noff:            parent.noff,
		fileName:        parent.fileName,
		exec:            parent.exec,
		frames:          parent.frames,
		replacer:        parent.replacer,
	}
	copy(child.backup, parent.backup)

	for i, pe := range parent.pageTable {
		entry := pe
		entry.VPN = i

		switch {
		case pe.Shared:
			child.frames.Assign(pe.Frame, childPid, i, true)
		case pe.Valid:
			frame, err := parent.replacer.Allocate(childPid, i, false, pe.Frame, now, onEvict)
			if err != nil {
				return nil, err
			}
			child.frames.Assign(frame, childPid, i, false)
			child.frames.CopyFrame(frame, pe.Frame)
			entry.Frame = frame
		default:
			entry.Frame = pmm.InvalidFrame
		}

		child.pageTable[i] = entry
	}

	return child, nil
}

// GrowShared extends the page table by enough pages to hold bytes,
// marking every new entry shared and zeroing its frame, per spec.md
// §4.2. It returns the virtual address of the first new page.
func (as *AddressSpace) GrowShared(bytes mem.Size, now int64, onEvict pmm.EvictFn) (uint64, *kernel.Error) {
	numNewPages := int(bytes.Pages())
	baseVirtAddr := uint64(as.numVirtualPages) * uint64(mem.PageSize)

	for i := 0; i < numNewPages; i++ {
		vpn := as.numVirtualPages + i
		frame, err := as.replacer.Allocate(as.pid, vpn, false, pmm.InvalidFrame, now, onEvict)
		if err != nil {
			return 0, err
		}
		as.frames.Assign(frame, as.pid, vpn, true)
		clear(as.frames.FrameBytes(frame))

		as.pageTable = append(as.pageTable, PageTableEntry{
			VPN:      vpn,
			Frame:    frame,
			Valid:    true,
			Shared:   true,
			BackedUp: true,
		})
	}

	as.numVirtualPages += numNewPages
	return baseVirtAddr, nil
}

// FixFault services a demand page fault at virtAddr, per spec.md §4.2:
// it obtains a frame from the replacer, fills it from the backup store
// or the executable image, and marks the entry valid. It returns the
// number of ticks the faulting thread should sleep to model paging
// latency.
func (as *AddressSpace) FixFault(virtAddr uint64, now int64, onEvict pmm.EvictFn) (int, *kernel.Error) {
	vpn := int(virtAddr / uint64(mem.PageSize))
	if vpn < 0 || vpn >= as.numVirtualPages {
		return 0, kernel.New("vmm", "fault address outside of address space")
	}

	frame, err := as.replacer.Allocate(as.pid, vpn, false, pmm.InvalidFrame, now, onEvict)
	if err != nil {
		return 0, err
	}
	as.frames.Assign(frame, as.pid, vpn, false)

	entry := &as.pageTable[vpn]
	data := as.frames.FrameBytes(frame)
	clear(data)

	if entry.BackedUp {
		copy(data, as.backup[vpn*int(mem.PageSize):(vpn+1)*int(mem.PageSize)])
	} else {
		if _, err := as.exec.ReadAt(data, int64(as.noff.Code.InFileAddr)+int64(vpn)*int64(mem.PageSize)); err != nil && err != io.EOF {
			return 0, kernel.New("vmm", "reading executable image: "+err.Error())
		}
		entry.Dirty = true
	}

	entry.Frame = frame
	entry.Valid = true
	entry.BackedUp = true

	return FaultServiceTicks, nil
}

// TakeBackup preserves a dirty page's bytes into the backup store before
// its frame is reused by the replacer, per spec.md §4.2. It is invoked
// by the replacer's EvictFn callback, looked up by the caller via a
// pid -> AddressSpace table (spec.md §9's handle-based indirection,
// since this package never holds that table itself).
func (as *AddressSpace) TakeBackup(vpn int) {
	entry := &as.pageTable[vpn]
	if entry.Dirty {
		copy(as.backup[vpn*int(mem.PageSize):(vpn+1)*int(mem.PageSize)], as.frames.FrameBytes(entry.Frame))
		entry.Dirty = false
	}
	entry.Valid = false
	entry.Frame = pmm.InvalidFrame
}

// Destroy releases every valid, non-shared frame owned by this address
// space back to the frame pool and releases this process's ownership of
// any shared frames it mapped. Shared frames persist until their last
// owner calls Destroy (spec.md §9's shared-memory leak fix).
func (as *AddressSpace) Destroy() {
	for _, pe := range as.pageTable {
		if !pe.Valid {
			continue
		}
		if pe.Shared {
			as.frames.ReleaseShared(pe.Frame)
		} else {
			as.frames.Free(pe.Frame)
		}
	}
}
