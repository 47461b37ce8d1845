package allocator

import (
	"unsafe"
)

// testArena returns a zeroed byte buffer and its base address, for tests
// that poke at raw tag words without going through a BreakSource. The
// caller must keep buf referenced for as long as addr is used: converting
// to uintptr does not by itself keep the backing array alive.
func testArena(n int) (buf []byte, addr uintptr) {
	buf = make([]byte, n)
	addr = uintptr(unsafe.Pointer(&buf[0])) //nolint:govet

	return buf, addr
}
