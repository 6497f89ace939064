// Package trace implements the "-d flags" debug-channel mask described
// by spec.md §6: a small set of named channels, each independently
// enabled by a one-letter flag, gating otherwise-silent diagnostic
// output.
package trace

import (
	"fmt"
	"io"
	"log/slog"
)

// Channel identifies one of the simulator's debug streams.
type Channel byte

const (
	Thread  Channel = 't'
	Sched   Channel = 's'
	VMM     Channel = 'v'
	Console Channel = 'c'
	Machine Channel = 'm'
)

// Tracer gates slog.Debug calls behind an enabled-channel set, the way
// ja7ad-consumption's cmd/consumption/main.go uses log/slog for its own
// operational logging.
type Tracer struct {
	log     *slog.Logger
	enabled map[Channel]bool
}

// New builds a Tracer from a debug mask string such as "ts" (enabling
// Thread and Sched). An empty mask enables nothing.
func New(w io.Writer, mask string) *Tracer {
	enabled := make(map[Channel]bool, len(mask))
	for _, r := range mask {
		enabled[Channel(r)] = true
	}
	return &Tracer{
		log:     slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})),
		enabled: enabled,
	}
}

// Printf logs a formatted message on ch if that channel's flag was set
// in the mask passed to New.
func (t *Tracer) Printf(ch Channel, format string, args ...any) {
	if t == nil || !t.enabled[ch] {
		return
	}
	t.log.Debug(fmt.Sprintf(format, args...), "channel", string(ch))
}
