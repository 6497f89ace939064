package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintfGatedByMask(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf, "s")

	tr.Printf(Thread, "should not appear")
	if buf.Len() != 0 {
		t.Fatalf("Thread channel disabled; got output %q", buf.String())
	}

	tr.Printf(Sched, "dispatching %d", 7)
	if !strings.Contains(buf.String(), "dispatching 7") {
		t.Errorf("output = %q; want it to contain %q", buf.String(), "dispatching 7")
	}
}

func TestNilTracerIsSilent(t *testing.T) {
	var tr *Tracer
	tr.Printf(Thread, "no panic please")
}
