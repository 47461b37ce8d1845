// Package brk provides the OS break-extension collaborator the
// allocator engine consumes — the OS collaborator contract:
// something that can advance a monotonic break pointer and read it back.
//
// Two implementations are provided: Linux, which issues the real
// brk(2) syscall against the process data segment, and Simulated, a
// growable in-process arena used by tests and non-Linux builds so the
// engine's correctness can be verified without touching the real process
// break.
package brk

import (
	"fmt"
	"unsafe"
)

// Simulated is a BreakSource backed by a single pre-reserved byte slice,
// bump-allocated from a fixed buffer. It never touches the real process
// break, so it is safe to run concurrently with the Go runtime's own heap
// and under the race detector.
type Simulated struct {
	buf   []byte
	base  uintptr
	brk   uintptr
	limit uintptr
}

// NewSimulated reserves a capacity-byte arena and returns a Simulated
// break source whose initial break sits at the start of that arena.
func NewSimulated(capacity int) *Simulated {
	buf := make([]byte, capacity)
	base := uintptr(unsafe.Pointer(&buf[0])) //nolint:govet

	return &Simulated{
		buf:   buf,
		base:  base,
		brk:   base,
		limit: base + uintptr(capacity),
	}
}

// Extend advances the simulated break by delta bytes and returns the
// pre-change break. It fails if delta is negative (a shrink, which this
// allocator never requests) or would push the break past the reserved
// arena — the simulated analogue of RLIMIT_DATA exhaustion.
func (s *Simulated) Extend(delta int64) (uintptr, bool) {
	if delta < 0 {
		return 0, false
	}

	prev := s.brk
	next := prev + uintptr(delta)

	if next > s.limit {
		return 0, false
	}

	s.brk = next

	return prev, true
}

// Query returns the current simulated break.
func (s *Simulated) Query() (uintptr, bool) {
	return s.brk, true
}

// Cap returns the capacity of the reserved arena, for tests that want to
// size an RLIMIT_DATA-equivalent.
func (s *Simulated) Cap() int {
	return len(s.buf)
}

// String renders the simulated break source's usage for diagnostics.
func (s *Simulated) String() string {
	return fmt.Sprintf("simulated break: used %d of %d bytes", s.brk-s.base, s.limit-s.base)
}
