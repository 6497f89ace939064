// Package pmm manages the pool of physical memory frames shared by all
// simulated address spaces.
package pmm

import "math"

// Frame describes a physical memory frame index.
type Frame int64

// InvalidFrame is returned by the frame table and page replacer when no
// frame could be produced.
const InvalidFrame = Frame(math.MaxInt64)

// Valid reports whether f refers to a real frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}
