// Command nachos boots the kernel core described by spec.md: it wires
// together the scheduler, the virtual-memory subsystem and the syscall
// dispatcher, then loads either a single executable or a batch
// scenario file as the initial process set.
//
// The instruction-level CPU emulator, timer and interrupt dispatcher
// are explicitly out of scope (spec.md §1): nothing here steps
// simulated instructions. This binary's job ends at booting the
// initial process set and handing control to the (external) machine
// loop; with no emulator attached, it prints the statistics report and
// returns once the initial process set is on the ready queue.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"nachos/kernel"
	"nachos/kernel/batch"
	"nachos/kernel/console"
	"nachos/kernel/machine"
	"nachos/kernel/mem/pmm"
	"nachos/kernel/mem/vmm"
	"nachos/kernel/sched"
	"nachos/kernel/stats"
	"nachos/kernel/syscall"
	"nachos/kernel/thread"
	"nachos/kernel/trace"
)

type options struct {
	exec       string
	batchFile  string
	seed       int64
	schedAlgo  int
	quantum    int64
	replaceNum int
	numFrames  int
	debugMask  string
}

func main() {
	var o options

	root := &cobra.Command{
		Use:   "nachos",
		Short: "A pedagogical kernel simulator: threads, scheduling and demand-paged virtual memory",
		Long: `nachos boots a simulated kernel that multiplexes simulated user processes
over a single simulated CPU, with a pluggable scheduler and a demand-paged
virtual memory subsystem backed by a configurable page-replacement policy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o)
		},
	}

	root.Flags().StringVarP(&o.exec, "exec", "x", "", "run a single executable")
	root.Flags().StringVarP(&o.batchFile, "batch", "F", "", "run a scenario file")
	root.Flags().Int64Var(&o.seed, "rs", 1, "RNG seed for the Random page-replacement policy")
	root.Flags().IntVar(&o.schedAlgo, "sched", int(sched.FCFS), "scheduling algorithm: 1=FCFS 2=SJF 3=RR 4=priority")
	root.Flags().Int64Var(&o.quantum, "quantum", 100, "time quantum in ticks, for RR/priority")
	root.Flags().IntVar(&o.replaceNum, "replace", int(pmm.PolicyNone), "page-replacement policy: 0=none 1=random 2=FIFO 3=LRU 4=clock")
	root.Flags().IntVar(&o.numFrames, "frames", 32, "number of physical frames")
	root.Flags().StringVarP(&o.debugMask, "debug", "d", "", "debug channel mask, e.g. \"ts\" for thread+sched tracing")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// osLoader resolves executable paths against the host filesystem for
// Exec and the initial batch process set. *os.File already satisfies
// syscall.ReaderAt, so Open needs only to translate the error type.
type osLoader struct{}

func (osLoader) Open(path string) (syscall.ReaderAt, *kernel.Error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kernel.New("loader", err.Error())
	}
	return f, nil
}

func run(o options) error {
	tracer := trace.New(os.Stderr, o.debugMask)

	statistics := stats.New(o.schedAlgo, int(o.quantum))
	m := machine.New()
	con := console.New(os.Stdout, os.Stdin)
	table := thread.NewTable()
	frames := pmm.NewFrameTable(o.numFrames)
	replacer := pmm.NewPageReplacer(pmm.Policy(o.replaceNum), frames, o.seed)
	scheduler := sched.New(sched.Policy(o.schedAlgo), o.quantum, table, statistics)
	loader := osLoader{}

	dispatcher := &syscall.Dispatcher{
		Machine:   m,
		Console:   con,
		Scheduler: scheduler,
		Table:     table,
		Frames:    frames,
		Replacer:  replacer,
		Stats:     statistics,
		Loader:    loader,
		Report: func(s *stats.Statistics) {
			s.Report(os.Stdout)
		},
	}
	// dispatcher is wired for the (external) instruction-level machine
	// loop to drive via Dispatch on every syscall exception; this binary
	// only boots the initial process set, per the package doc comment.
	_ = dispatcher

	switch {
	case o.exec != "":
		tracer.Printf(trace.Thread, "booting single executable %s", o.exec)
		if err := bootProcess(table, scheduler, frames, replacer, loader, o.exec, 100, 0); err != nil {
			return err
		}

	case o.batchFile != "":
		f, err := os.Open(o.batchFile)
		if err != nil {
			return fmt.Errorf("opening scenario file: %w", err)
		}
		defer f.Close()

		scenario, berr := batch.Load(f)
		if berr != nil {
			return fmt.Errorf("loading scenario: %w", berr)
		}
		scheduler = sched.New(scenario.Policy, o.quantum, table, statistics)
		dispatcher.Scheduler = scheduler
		tracer.Printf(trace.Sched, "loaded scenario: policy=%v processes=%d", scenario.Policy, len(scenario.Processes))

		for _, p := range scenario.Processes {
			if err := bootProcess(table, scheduler, frames, replacer, loader, p.Path, p.Priority, 0); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("nachos: one of -x or -F is required")
	}

	statistics.ThreadIndex = int64(table.Len())

	// With no instruction emulator to drive Dispatch, the ready queue
	// never drains through real execution. The idle loop's rule is
	// checked once here: the machine is marked halted only if no thread
	// is ready and nothing is sleeping. After a successful boot at least
	// one thread is ready (and is taken off the queue by this check), so
	// the machine is not marked halted; the report is printed either way.
	if _, ok := scheduler.SelectNextReady(); !ok {
		if _, ok := m.NextWake(); !ok {
			m.Halt()
		}
	}

	statistics.Report(os.Stdout)
	return nil
}

// bootProcess loads path as a fresh thread's address space and places
// it on the ready queue, per spec.md §4.2's construction-from-executable
// rule: no physical frames are taken eagerly.
func bootProcess(table *thread.Table, scheduler *sched.Scheduler, frames *pmm.FrameTable, replacer *pmm.PageReplacer, loader osLoader, path string, priority int, now int64) error {
	exec, lerr := loader.Open(path)
	if lerr != nil {
		return fmt.Errorf("opening %s: %w", path, lerr)
	}

	th := table.New(0, path, priority)

	space, verr := vmm.New(th.PID, path, exec, frames, replacer)
	if verr != nil {
		return fmt.Errorf("mapping %s: %w", path, verr)
	}
	th.Space = space

	scheduler.MoveToReady(th, now)
	return nil
}
