package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestRecordBurstTracksExtrema(t *testing.T) {
	s := New(1, 0)
	s.RecordBurst(50)
	s.RecordBurst(10)
	s.RecordBurst(200)

	if s.NumCPUBursts != 3 {
		t.Errorf("NumCPUBursts = %d; want 3", s.NumCPUBursts)
	}
	if s.MaxCPUBurst != 200 {
		t.Errorf("MaxCPUBurst = %d; want 200", s.MaxCPUBurst)
	}
	if s.MinCPUBurst != 10 {
		t.Errorf("MinCPUBurst = %d; want 10", s.MinCPUBurst)
	}
	if got := s.averageCPUBurst(); got != (50.0+10.0+200.0)/3.0 {
		t.Errorf("averageCPUBurst() = %f", got)
	}
}

func TestCompletionStats(t *testing.T) {
	s := New(1, 0)
	s.RecordCompletion(10)
	s.RecordCompletion(20)
	s.RecordCompletion(30)

	max, min, mean, variance := s.completionStats()
	if max != 30 || min != 10 {
		t.Errorf("max=%d min=%d; want 30/10", max, min)
	}
	if mean != 20 {
		t.Errorf("mean = %f; want 20", mean)
	}
	if variance != (100.0+0.0+100.0)/3.0 {
		t.Errorf("variance = %f", variance)
	}
}

func TestReportOnlyMainThread(t *testing.T) {
	s := New(1, 0)
	s.TotalTicks = 100
	s.ThreadIndex = 1

	var buf bytes.Buffer
	s.Report(&buf)

	if !strings.Contains(buf.String(), "Only main thread was running") {
		t.Errorf("report missing single-thread footer: %s", buf.String())
	}
}

func TestReportIncludesQuantaForPreemptivePolicies(t *testing.T) {
	s := New(3, 50)
	s.TotalTicks = 100

	var buf bytes.Buffer
	s.Report(&buf)

	if !strings.Contains(buf.String(), "Quanta:") {
		t.Errorf("RR report should include quanta: %s", buf.String())
	}
}
