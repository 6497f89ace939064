package machine

import "testing"

func TestAdvancePCSequencing(t *testing.T) {
	m := New()
	m.WriteRegister(RegPC, 100)
	m.WriteRegister(RegNextPC, 104)

	m.AdvancePC()

	if got := m.ReadRegister(RegPrevPC); got != 100 {
		t.Errorf("PrevPC = %d; want 100", got)
	}
	if got := m.ReadRegister(RegPC); got != 104 {
		t.Errorf("PC = %d; want 104", got)
	}
	if got := m.ReadRegister(RegNextPC); got != 108 {
		t.Errorf("NextPC = %d; want 108", got)
	}
}

func TestSleepQueueWakesInOrder(t *testing.T) {
	m := New()
	m.Sleep(3, 100)
	m.Sleep(1, 50)
	m.Sleep(2, 50)

	woken := m.AdvanceTo(50)
	if len(woken) != 2 || woken[0] != 1 || woken[1] != 2 {
		t.Errorf("AdvanceTo(50) = %v; want [1 2]", woken)
	}

	woken = m.AdvanceTo(100)
	if len(woken) != 1 || woken[0] != 3 {
		t.Errorf("AdvanceTo(100) = %v; want [3]", woken)
	}
}

func TestNextWake(t *testing.T) {
	m := New()
	if _, ok := m.NextWake(); ok {
		t.Fatalf("expected no pending wake on an empty queue")
	}
	m.Sleep(1, 200)
	m.Sleep(2, 50)
	wake, ok := m.NextWake()
	if !ok || wake != 50 {
		t.Errorf("NextWake() = (%d, %v); want (50, true)", wake, ok)
	}
}
