// Package syscall decodes and dispatches the simulated CPU's syscall
// exceptions, driving the thread, scheduler, address-space and console
// subsystems per spec.md §4.4.
package syscall

import (
	"strings"

	"nachos/kernel"
	"nachos/kernel/console"
	"nachos/kernel/machine"
	"nachos/kernel/mem"
	"nachos/kernel/mem/pmm"
	"nachos/kernel/mem/vmm"
	"nachos/kernel/sched"
	"nachos/kernel/stats"
	"nachos/kernel/thread"
)

// Call numbers. The original exception.cc dispatches on constants from
// a syscall.h that isn't part of this retrieval (only the .cc survived
// distillation), so this numbering is this port's own and need not
// match the original header byte-for-byte — the calling convention
// (number in r2, args in r4..r7) is what spec.md §6 actually pins down.
const (
	Halt = iota
	Exit
	Exec
	Join
	Fork
	Yield
	Sleep
	PrintInt
	PrintChar
	PrintString
	PrintIntHex
	GetReg
	GetPA
	GetPID
	GetPPID
	Time
	NumInstr
)

// maxCStringLen bounds how many bytes PrintString/Exec will walk from
// user memory looking for a NUL terminator, so a corrupt or malicious
// pointer can't spin the dispatcher forever.
const maxCStringLen = 1 << 16

// Loader opens a named executable for Exec and the batch loader,
// decoupling this package from any concrete filesystem. vmm.New parses
// the NOFF header itself, so Loader need only hand back a readable
// view of the file.
type Loader interface {
	Open(path string) (ReaderAt, *kernel.Error)
}

// ReaderAt is the subset of io.ReaderAt an opened executable must
// support; vmm.AddressSpace reads code pages from it on demand.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

// Dispatcher wires together every subsystem a syscall can touch.
type Dispatcher struct {
	Machine   *machine.Machine
	Console   *console.Console
	Scheduler *sched.Scheduler
	Table     *thread.Table
	Frames    *pmm.FrameTable
	Replacer  *pmm.PageReplacer
	Stats     *stats.Statistics
	Loader    Loader

	// Report renders the final statistics on Halt, if set.
	Report func(*stats.Statistics)
}

// evictFn builds the pmm.EvictFn closure for this dispatcher: it looks
// up the victim's owning thread through the PID table and, if that
// thread still owns an address space, asks it to preserve the page.
// This is the handle-based indirection spec.md §9 calls for — pmm and
// vmm never hold this lookup themselves.
func (d *Dispatcher) evictFn() pmm.EvictFn {
	return func(pid, vpn int) {
		if t, ok := d.Table.Lookup(pid); ok && t.Space != nil {
			t.Space.TakeBackup(vpn)
		}
	}
}

// readByte reads one byte of t's virtual address space at vaddr,
// demand-faulting the containing page in if necessary.
func (d *Dispatcher) readByte(t *thread.Thread, now int64, vaddr uint64) (byte, *kernel.Error) {
	as := t.Space
	if as == nil {
		return 0, kernel.New("syscall", "thread has no address space")
	}
	vpn := int(vaddr / uint64(mem.PageSize))
	if vpn < 0 || vpn >= as.NumVirtualPages() {
		return 0, kernel.New("syscall", "address out of range")
	}

	entry := as.Entry(vpn)
	if !entry.Valid {
		ticks, err := as.FixFault(vaddr, now, d.evictFn())
		if err != nil {
			return 0, err
		}
		d.Stats.NumPageFaults++
		d.Machine.Ticks += int64(ticks)
		entry = as.Entry(vpn)
	}

	data := d.Frames.FrameBytes(entry.Frame)
	return data[int(vaddr%uint64(mem.PageSize))], nil
}

// readCString reads a NUL-terminated string out of user memory.
func (d *Dispatcher) readCString(t *thread.Thread, now int64, vaddr uint64) (string, *kernel.Error) {
	var b strings.Builder
	for i := 0; i < maxCStringLen; i++ {
		c, err := d.readByte(t, now, vaddr+uint64(i))
		if err != nil {
			return "", err
		}
		if c == 0 {
			return b.String(), nil
		}
		b.WriteByte(c)
	}
	return "", kernel.New("syscall", "string in user memory has no terminating NUL")
}

// translate answers GetPA's virtual-to-physical lookup without
// demand-faulting: an invalid page is reported as a translation
// failure, per spec.md §4.4.
func (d *Dispatcher) translate(as *vmm.AddressSpace, vaddr uint64) (int64, bool) {
	if as == nil {
		return 0, false
	}
	vpn := int(vaddr / uint64(mem.PageSize))
	if vpn < 0 || vpn >= as.NumVirtualPages() {
		return 0, false
	}
	entry := as.Entry(vpn)
	if !entry.Valid {
		return 0, false
	}
	offset := int64(vaddr % uint64(mem.PageSize))
	return int64(entry.Frame)*int64(mem.PageSize) + offset, true
}

// Dispatch services the syscall exception raised by current, per
// spec.md §4.4: read the call number and arguments, perform the
// call's effect, and (except where noted below) advance PC/NextPC/
// PrevPC before returning.
func (d *Dispatcher) Dispatch(current *thread.Thread, now int64) {
	call := int(d.Machine.ReadRegister(machine.RegResult))
	arg1 := d.Machine.ReadRegister(machine.RegArg1)

	switch call {
	case Halt:
		d.Machine.Halt()
		if d.Report != nil {
			d.Report(d.Stats)
		}
		return

	case PrintInt:
		d.Console.PrintInt(int(arg1))
		d.Machine.AdvancePC()

	case PrintChar:
		d.Console.PrintChar(byte(arg1))
		d.Machine.AdvancePC()

	case PrintString:
		if s, err := d.readCString(current, now, uint64(uint32(arg1))); err == nil {
			d.Console.PrintString(s)
		}
		d.Machine.AdvancePC()

	case PrintIntHex:
		d.Console.PrintIntHex(uint32(arg1))
		d.Machine.AdvancePC()

	case GetReg:
		d.Machine.WriteRegister(machine.RegResult, d.Machine.ReadRegister(int(arg1)))
		d.Machine.AdvancePC()

	case GetPA:
		if pa, ok := d.translate(current.Space, uint64(uint32(arg1))); ok {
			d.Machine.WriteRegister(machine.RegResult, int32(pa))
		} else {
			d.Machine.WriteRegister(machine.RegResult, -1)
		}
		d.Machine.AdvancePC()

	case GetPID:
		d.Machine.WriteRegister(machine.RegResult, int32(current.PID))
		d.Machine.AdvancePC()

	case GetPPID:
		d.Machine.WriteRegister(machine.RegResult, int32(current.PPID))
		d.Machine.AdvancePC()

	case Time:
		d.Machine.WriteRegister(machine.RegResult, int32(d.Machine.Ticks))
		d.Machine.AdvancePC()

	case NumInstr:
		d.Machine.WriteRegister(machine.RegResult, int32(current.NumInstr))
		d.Machine.AdvancePC()

	case Sleep:
		d.Machine.AdvancePC()
		if t := int64(arg1); t > 0 {
			d.Machine.Sleep(current.PID, now+t)
			current.State = thread.Blocked
		} else {
			d.Scheduler.MoveToReady(current, now)
		}

	case Yield:
		d.Machine.AdvancePC()
		d.Scheduler.MoveToReady(current, now)

	case Fork:
		d.doFork(current, now)

	case Exec:
		d.doExec(current, now, arg1)

	case Join:
		d.doJoin(current, arg1)
		d.Machine.AdvancePC()

	case Exit:
		d.doExit(current, now, arg1)

	default:
		d.Machine.WriteRegister(machine.RegResult, -1)
		d.Machine.AdvancePC()
	}
}

// doFork implements spec.md §4.4's Fork: the PC is advanced first (both
// parent and child resume at the instruction after the fork call), then
// a child thread and a duplicated address space are created. The
// parent sees r2=child_pid; the child's saved register snapshot has
// r2=0, so it observes that value the first time it is scheduled.
func (d *Dispatcher) doFork(parent *thread.Thread, now int64) {
	d.Machine.AdvancePC()

	child := d.Table.New(parent.PID, "Forked Thread", parent.BasePriority)
	parent.AddChild(child.PID)

	childSpace, err := parent.Space.Fork(child.PID, now, d.evictFn())
	if err != nil {
		d.Table.Remove(child.PID)
		d.Machine.WriteRegister(machine.RegResult, -1)
		return
	}
	child.Space = childSpace

	childRegs := d.Machine.Registers
	childRegs[machine.RegResult] = 0
	child.UserRegisters = childRegs

	d.Machine.WriteRegister(machine.RegResult, int32(child.PID))
	d.Scheduler.MoveToReady(child, now)
}

// doExec implements spec.md §4.4's Exec: resolve the NUL-terminated
// path from user memory, open and map the new executable in place of
// current's address space, and reset user registers to start at entry
// 0. On failure to open the executable, the original prints a
// diagnostic and returns without touching the PC at all — since
// control in that implementation never reaches this point again except
// by re-raising the very same instruction, that is a real infinite-loop
// hazard in the source, not a design choice to emulate; this port
// preserves only the documented half of that behavior (no PC advance on
// success either, since a successful Exec discards the old PC/NextPC/
// PrevPC entirely in favor of the new program's entry point) and
// reports failure instead of silently re-looping.
func (d *Dispatcher) doExec(current *thread.Thread, now int64, pathVaddr int32) {
	path, err := d.readCString(current, now, uint64(uint32(pathVaddr)))
	if err != nil {
		d.Machine.WriteRegister(machine.RegResult, -1)
		d.Machine.AdvancePC()
		return
	}

	exec, lerr := d.Loader.Open(path)
	if lerr != nil {
		d.Machine.WriteRegister(machine.RegResult, -1)
		d.Machine.AdvancePC()
		return
	}

	if current.Space != nil {
		current.Space.Destroy()
	}

	newSpace, verr := vmm.New(current.PID, path, exec, d.Frames, d.Replacer)
	if verr != nil {
		d.Machine.WriteRegister(machine.RegResult, -1)
		d.Machine.AdvancePC()
		return
	}
	current.Space = newSpace

	current.UserRegisters = [thread.NumUserRegisters]int32{}
	d.Machine.Registers = [machine.NumRegisters]int32{}
	d.Machine.SetEntryPoint(0)
}

// doJoin implements spec.md §4.4's Join. Blocking is modeled by
// advancing the PC immediately (as Sleep does) rather than literally
// suspending mid-dispatch: when the child's Exit later wakes this
// thread, doExit writes the result directly into the parent's saved
// register snapshot, since the parent is not the machine's current
// thread at that moment.
func (d *Dispatcher) doJoin(current *thread.Thread, childPID int32) {
	link, ok := current.Child(int(childPID))
	if !ok {
		d.Machine.WriteRegister(machine.RegResult, -1)
		return
	}
	if !link.Alive {
		d.Machine.WriteRegister(machine.RegResult, int32(link.ExitStatus))
		return
	}
	link.ParentIsWaiting = true
	current.State = thread.Blocked
}

// doExit implements spec.md §4.4's Exit: record the status in the
// parent's ChildLink (waking it if it was waiting), orphan every live
// child, halt if this was the last live thread, then transition to
// finished and defer destruction until the next context switch.
func (d *Dispatcher) doExit(current *thread.Thread, now int64, status int32) {
	if d.Table.Len() == 1 {
		d.Machine.Halt()
		if d.Report != nil {
			d.Report(d.Stats)
		}
	}

	if parent, ok := d.Table.Lookup(current.PPID); ok {
		if link, ok := parent.Child(current.PID); ok {
			link.ExitStatus = int(status)
			link.Alive = false
			if link.ParentIsWaiting {
				parent.UserRegisters[machine.RegResult] = status
				link.ParentIsWaiting = false
				d.Scheduler.MoveToReady(parent, now)
			}
		}
	}

	current.OrphanChildren(d.Table)

	current.State = thread.Finished
	d.Scheduler.MarkForDestruction(current)
	if current.Space != nil {
		current.Space.Destroy()
	}
}
