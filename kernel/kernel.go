// Package kernel holds types shared across the kernel core: the
// subsystems under kernel/mem, kernel/thread, kernel/sched,
// kernel/syscall, kernel/console, kernel/batch and kernel/stats.
package kernel

// Error is a lightweight, tagged error used throughout the kernel core
// instead of ad-hoc fmt.Errorf calls, so that callers can distinguish
// the failing subsystem programmatically.
type Error struct {
	// Module identifies the subsystem that raised the error.
	Module string

	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "[" + e.Module + "] " + e.Message
}

// New constructs an *Error for the given module.
func New(module, message string) *Error {
	return &Error{Module: module, Message: message}
}
