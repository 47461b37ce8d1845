//go:build linux

package brk

import "golang.org/x/sys/unix"

// Linux is a BreakSource backed by the real brk(2) syscall against the
// process data segment, issued directly via golang.org/x/sys/unix rather
// than the Go runtime's own (mmap-based) allocator — the same primitive
// the original C allocator this engine is modeled on layers sbrk(3) over.
//
// The break is a shared process-wide resource: nothing else in this
// process may move it concurrently with a Linux-backed Engine.
type Linux struct{}

// NewLinux returns a Linux break source.
func NewLinux() *Linux {
	return &Linux{}
}

// Query reads the current break without moving it. Passing a zero target
// to brk(2) is the Linux kernel's documented way to read back the break:
// the call neither advances nor fails, it just reports the current value.
func (Linux) Query() (uintptr, bool) {
	raw, _, errno := unix.Syscall(unix.SYS_BRK, 0, 0, 0)
	if errno != 0 {
		return 0, false
	}

	return uintptr(raw), true
}

// Extend advances the break by delta bytes and returns the pre-change
// break. It fails (the brk(2) failure sentinel is indistinguishable from
// "request not satisfied", so this checks the returned break directly)
// when the kernel could not place the break at the requested target,
// which is how RLIMIT_DATA exhaustion surfaces.
func (l Linux) Extend(delta int64) (uintptr, bool) {
	if delta < 0 {
		return 0, false
	}

	prev, ok := l.Query()
	if !ok {
		return 0, false
	}

	target := prev + uintptr(delta)

	raw, _, errno := unix.Syscall(unix.SYS_BRK, target, 0, 0)
	if errno != 0 {
		return 0, false
	}

	if uintptr(raw) < target {
		return 0, false
	}

	return prev, true
}
