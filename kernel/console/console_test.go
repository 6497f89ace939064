package console

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintStringEmitsBytesInOrder(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, strings.NewReader(""))
	c.PrintString("hi\n")
	if buf.String() != "hi\n" {
		t.Errorf("output = %q; want %q", buf.String(), "hi\n")
	}
}

func TestPrintIntRoundTripLaw(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{42, "42"},
		{-42, "-42"},
		{7, "7"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		c := New(&buf, strings.NewReader(""))
		c.PrintInt(tc.n)
		if buf.String() != tc.want {
			t.Errorf("PrintInt(%d) = %q; want %q", tc.n, buf.String(), tc.want)
		}
	}
}

func TestPrintIntHexRoundTripLaw(t *testing.T) {
	cases := []struct {
		u    uint32
		want string
	}{
		{0, "0x0"},
		{255, "0xff"},
		{1, "0x1"},
		{0xdeadbeef, "0xdeadbeef"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		c := New(&buf, strings.NewReader(""))
		c.PrintIntHex(tc.u)
		if buf.String() != tc.want {
			t.Errorf("PrintIntHex(%d) = %q; want %q", tc.u, buf.String(), tc.want)
		}
	}
}

func TestGetCharDrainsInputThenReportsExhausted(t *testing.T) {
	c := New(&bytes.Buffer{}, strings.NewReader("ab"))

	b, ok := c.GetChar()
	if !ok || b != 'a' {
		t.Fatalf("GetChar() = (%q, %v); want ('a', true)", b, ok)
	}
	b, ok = c.GetChar()
	if !ok || b != 'b' {
		t.Fatalf("GetChar() = (%q, %v); want ('b', true)", b, ok)
	}
	if _, ok := c.GetChar(); ok {
		t.Errorf("expected exhausted input stream")
	}
}
