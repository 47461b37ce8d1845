package allocator

import (
	"unsafe"

	"github.com/adel-qod/malloc/internal/brk"
)

// Default is the process-wide Engine used by the package-level Allocate
// and Free functions, mirroring how a libc exposes one malloc/free pair
// per process. It grows against the real process break on Linux
// (internal/brk.Linux) and against a simulated in-process break
// everywhere else (internal/brk.Simulated), via brk.NewDefault.
var Default = NewEngine(brk.NewDefault())

// Allocate allocates size bytes using the default Engine.
func Allocate(size uintptr) (unsafe.Pointer, error) {
	return Default.Allocate(size)
}

// Free releases a block previously returned by Allocate using the
// default Engine.
func Free(ptr unsafe.Pointer) {
	Default.Free(ptr)
}
