// Package batch parses the scenario file format described in spec.md
// §6: a scheduling-algorithm digit followed by one executable-path
// (and optional priority) per line.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"nachos/kernel"
	"nachos/kernel/sched"
)

// DefaultPriority is assigned to a process line that omits an explicit
// priority, per spec.md §6.
const DefaultPriority = 100

// ProcessSpec names one initial process to launch: its executable path
// and scheduling priority.
type ProcessSpec struct {
	Path     string
	Priority int
}

// Scenario is a fully parsed batch file: the scheduling policy and the
// initial process set, per spec.md §6.
type Scenario struct {
	Policy    sched.Policy
	Processes []ProcessSpec
}

// Load parses a scenario file from r.
//
// The original ReadInputFile builds each process name by appending
// bytes until a space or newline, then writes
// `processList[processNum][i] == '\0'` — a comparison, not the
// assignment it plainly intends — so the name is never actually
// NUL-terminated and can run on into whatever garbage followed it in
// the buffer (spec.md §9's REDESIGN flag). Building the name with
// strings.Fields sidesteps that class of bug entirely: there's no
// fixed-size buffer to terminate.
func Load(r io.Reader) (*Scenario, *kernel.Error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, kernel.New("batch", "empty scenario file")
	}
	algoLine := strings.TrimSpace(scanner.Text())
	if len(algoLine) != 1 || algoLine[0] < '1' || algoLine[0] > '4' {
		return nil, kernel.New("batch", fmt.Sprintf("first line must be a single scheduling-algorithm digit 1-4, got %q", algoLine))
	}
	policy := sched.Policy(algoLine[0] - '0')

	var specs []ProcessSpec
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue // blank trailing lines are allowed, per spec.md §6
		}

		fields := strings.Fields(line)
		priority := DefaultPriority
		if len(fields) > 1 {
			p, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, kernel.New("batch", "invalid priority on line: "+line)
			}
			priority = p
		}
		specs = append(specs, ProcessSpec{Path: fields[0], Priority: priority})
	}
	if err := scanner.Err(); err != nil {
		return nil, kernel.New("batch", "reading scenario file: "+err.Error())
	}
	if len(specs) == 0 {
		return nil, kernel.New("batch", "scenario file names no processes")
	}

	return &Scenario{Policy: policy, Processes: specs}, nil
}
