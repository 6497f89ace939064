// Package stats aggregates the tick, burst, wait, fault and completion
// counters the kernel accumulates over a run and renders the shutdown
// report described in spec.md §6.
package stats

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// Statistics holds every counter contributing to the Halt-time report,
// grounded field-for-field on the original machine statistics record.
type Statistics struct {
	TotalTicks  int64
	IdleTicks   int64
	SystemTicks int64
	UserTicks   int64

	NumDiskReads  int
	NumDiskWrites int

	NumConsoleCharsRead    int
	NumConsoleCharsWritten int

	NumPageFaults int

	NumPacketsSent int
	NumPacketsRecv int

	AlgoNum      int
	Quantum      int
	CPUBusyTime  int64
	MaxCPUBurst  int64
	MinCPUBurst  int64
	NumCPUBursts int64

	TotalWaitTime int64

	BurstEstimateError int64

	ThreadIndex int64

	completions []int64
}

// New returns a Statistics with the burst-extrema sentinels the
// original initializes to a large constant rather than zero, so the
// first real burst always replaces them.
func New(algoNum, quantum int) *Statistics {
	return &Statistics{
		AlgoNum:     algoNum,
		Quantum:     quantum,
		MinCPUBurst: math.MaxInt64,
	}
}

// RecordBurst folds a closed, nonzero CPU burst into the running
// extrema and count, per spec.md §4.1's moveToReady accounting.
func (s *Statistics) RecordBurst(runTime int64) {
	s.CPUBusyTime += runTime
	s.NumCPUBursts++
	if runTime > s.MaxCPUBurst {
		s.MaxCPUBurst = runTime
	}
	if runTime < s.MinCPUBurst {
		s.MinCPUBurst = runTime
	}
}

// RecordWait folds a ready-queue wait interval into the running total.
func (s *Statistics) RecordWait(waited int64) {
	s.TotalWaitTime += waited
}

// RecordCompletion folds a thread's total lifetime (creation to Exit)
// into the completion-time sample used for the max/min/mean/variance
// report.
func (s *Statistics) RecordCompletion(lifetime int64) {
	s.completions = append(s.completions, lifetime)
}

// averageCPUBurst returns CPUBusyTime / NumCPUBursts, or 0 if no burst
// has been recorded yet.
func (s *Statistics) averageCPUBurst() float64 {
	if s.NumCPUBursts == 0 {
		return 0
	}
	return float64(s.CPUBusyTime) / float64(s.NumCPUBursts)
}

// cpuUtilization returns 100*CPUBusyTime/TotalTicks, or 0 if no ticks
// have elapsed.
func (s *Statistics) cpuUtilization() float64 {
	if s.TotalTicks == 0 {
		return 0
	}
	return 100 * float64(s.CPUBusyTime) / float64(s.TotalTicks)
}

// burstEstimateErrorNormalized returns BurstEstimateError/CPUBusyTime,
// the SJF-only figure spec.md §6 calls for.
func (s *Statistics) burstEstimateErrorNormalized() float64 {
	if s.CPUBusyTime == 0 {
		return 0
	}
	return float64(s.BurstEstimateError) / float64(s.CPUBusyTime)
}

// completionStats returns the max, min, mean and variance of every
// recorded thread lifetime.
func (s *Statistics) completionStats() (max, min int64, mean, variance float64) {
	if len(s.completions) == 0 {
		return 0, 0, 0, 0
	}
	min = s.completions[0]
	max = s.completions[0]
	var sum int64
	for _, c := range s.completions {
		if c > max {
			max = c
		}
		if c < min {
			min = c
		}
		sum += c
	}
	mean = float64(sum) / float64(len(s.completions))

	var sqDiff float64
	for _, c := range s.completions {
		d := float64(c) - mean
		sqDiff += d * d
	}
	variance = sqDiff / float64(len(s.completions))
	return max, min, mean, variance
}

// Report renders the shutdown statistics report to w in the same order
// as the original Print routine, per spec.md §6.
func (s *Statistics) Report(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "Ticks:\ttotal %d\tidle %d\tsystem %d\tuser %d\n",
		s.TotalTicks, s.IdleTicks, s.SystemTicks, s.UserTicks)
	fmt.Fprintf(tw, "Disk I/O:\treads %d\twrites %d\n", s.NumDiskReads, s.NumDiskWrites)
	fmt.Fprintf(tw, "Console I/O:\treads %d\twrites %d\n", s.NumConsoleCharsRead, s.NumConsoleCharsWritten)
	fmt.Fprintf(tw, "Paging:\tfaults %d\n", s.NumPageFaults)
	fmt.Fprintf(tw, "Network I/O:\tpackets received %d\tsent %d\n", s.NumPacketsRecv, s.NumPacketsSent)

	fmt.Fprintf(tw, "\nUsing scheduling algorithm:\t%d\n", s.AlgoNum)
	if s.AlgoNum == 3 || s.AlgoNum == 4 { // RR, Priority
		fmt.Fprintf(tw, "Quanta:\t%d\n", s.Quantum)
	}
	fmt.Fprintf(tw, "Total CPU Busy Time:\t%d\n", s.CPUBusyTime)
	fmt.Fprintf(tw, "Total Execution Time:\t%d\n", s.TotalTicks)
	fmt.Fprintf(tw, "CPU Utilization:\t%f\n", s.cpuUtilization())
	fmt.Fprintf(tw, "Number of non zero CPU bursts:\t%d\n", s.NumCPUBursts)
	fmt.Fprintf(tw, "CPU burst maximum:\t%d\n", s.MaxCPUBurst)
	fmt.Fprintf(tw, "CPU burst minimum:\t%d\n", s.MinCPUBurst)
	fmt.Fprintf(tw, "CPU burst average:\t%f\n", s.averageCPUBurst())

	if s.AlgoNum == 2 { // SJF
		fmt.Fprintf(tw, "Burst Estimate Error:\t%f\n", s.burstEstimateErrorNormalized())
	}

	if s.ThreadIndex > 1 {
		fmt.Fprintf(tw, "Average waiting time in ready queue:\t%f\n", float64(s.TotalWaitTime)/float64(s.ThreadIndex))
		max, min, mean, variance := s.completionStats()
		fmt.Fprintf(tw, "Thread completion maximum:\t%d\n", max)
		fmt.Fprintf(tw, "Thread completion minimum:\t%d\n", min)
		fmt.Fprintf(tw, "Thread completion mean:\t%f\n", mean)
		fmt.Fprintf(tw, "Thread completion variance:\t%f\n", variance)
	} else {
		fmt.Fprintln(tw, "Only main thread was running")
	}
}
