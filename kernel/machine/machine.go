// Package machine models the minimal host-side state of the simulated
// CPU that spec.md §1 places out of scope as an external collaborator:
// the register file, the tick counter and the sleep queue the timer
// interrupt drains. Everything here is a plain data model; the
// instruction-level emulator itself is not part of the kernel core.
package machine

import "sort"

// Register indices for the subset of the simulated register file the
// kernel core touches directly, per spec.md §6's calling convention
// (call number in r2, arguments in r4..r7) plus the PC triple advanced
// after every syscall.
const (
	RegResult = 2
	RegArg1   = 4
	RegArg2   = 5
	RegArg3   = 6
	RegArg4   = 7

	RegPrevPC = 34
	RegPC     = 35
	RegNextPC = 36

	NumRegisters = 40
)

// Machine holds the register file and tick counter shared by the
// currently running thread and the kernel core, plus the sleep queue
// the timer drains on every tick advance.
type Machine struct {
	Registers [NumRegisters]int32

	Ticks  int64
	Halted bool
	sleep  []sleeper
}

type sleeper struct {
	wakeTick int64
	pid      int
}

// New constructs a Machine with a zeroed register file.
func New() *Machine {
	return &Machine{}
}

// ReadRegister returns the value of register i.
func (m *Machine) ReadRegister(i int) int32 { return m.Registers[i] }

// WriteRegister sets register i to v.
func (m *Machine) WriteRegister(i int, v int32) { m.Registers[i] = v }

// AdvancePC implements the branch-delay-slot PC sequencing every
// syscall performs on return, per spec.md §4.4: PrevPC := PC; PC :=
// NextPC; NextPC += 4.
func (m *Machine) AdvancePC() {
	m.Registers[RegPrevPC] = m.Registers[RegPC]
	m.Registers[RegPC] = m.Registers[RegNextPC]
	m.Registers[RegNextPC] += 4
}

// SetEntryPoint resets PC/NextPC/PrevPC to start execution at entry,
// used by Exec's in-place replacement.
func (m *Machine) SetEntryPoint(entry int32) {
	m.Registers[RegPC] = entry
	m.Registers[RegNextPC] = entry + 4
	m.Registers[RegPrevPC] = 0
}

// Halt marks the machine stopped. Further ticks are not advanced.
func (m *Machine) Halt() { m.Halted = true }

// Sleep enqueues pid to wake at wakeTick, per spec.md §4.4's Sleep
// syscall.
func (m *Machine) Sleep(pid int, wakeTick int64) {
	m.sleep = append(m.sleep, sleeper{wakeTick: wakeTick, pid: pid})
}

// AdvanceTo moves the tick counter to now and returns, in wake order,
// every pid whose sleep has expired; pids sharing a wake tick come back
// in the order they were put to sleep. A halted machine is left as it
// is and wakes nobody.
func (m *Machine) AdvanceTo(now int64) []int {
	if m.Halted {
		return nil
	}
	m.Ticks = now

	sort.SliceStable(m.sleep, func(i, j int) bool { return m.sleep[i].wakeTick < m.sleep[j].wakeTick })

	var woken []int
	i := 0
	for ; i < len(m.sleep); i++ {
		if m.sleep[i].wakeTick > now {
			break
		}
		woken = append(woken, m.sleep[i].pid)
	}
	m.sleep = m.sleep[i:]
	return woken
}

// NextWake returns the earliest pending wake tick and ok=true, or
// ok=false if nothing is sleeping — the idle loop's "advance time to
// the next event" per spec.md §4.1.
func (m *Machine) NextWake() (int64, bool) {
	if len(m.sleep) == 0 {
		return 0, false
	}
	min := m.sleep[0].wakeTick
	for _, s := range m.sleep[1:] {
		if s.wakeTick < min {
			min = s.wakeTick
		}
	}
	return min, true
}
