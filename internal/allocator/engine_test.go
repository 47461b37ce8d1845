package allocator

import (
	"testing"
	"unsafe"

	"github.com/adel-qod/malloc/internal/brk"
)

func newTestEngine(t *testing.T, capacity int) *Engine {
	t.Helper()

	return NewEngine(brk.NewSimulated(capacity))
}

// Scenario 1: a fresh allocation is non-null, 8-aligned, and
// writable.
func TestScenario1FreshAllocation(t *testing.T) {
	e := newTestEngine(t, 1<<20)

	p1, err := e.Allocate(8)
	if err != nil || p1 == nil {
		t.Fatalf("Allocate(8) = (%v, %v), want a non-nil pointer", p1, err)
	}

	if uintptr(p1)%8 != 0 { //nolint:govet
		t.Errorf("pointer %#x is not 8-aligned", uintptr(p1)) //nolint:govet
	}

	*(*uint64)(p1) = 0xDEADBEEF
	if got := *(*uint64)(p1); got != 0xDEADBEEF {
		t.Errorf("read back %#x, want 0xDEADBEEF", got)
	}
}

// Scenario 2: a second allocation differs from the first and the two
// blocks don't overlap.
func TestScenario2SecondAllocationDiffers(t *testing.T) {
	e := newTestEngine(t, 1<<20)

	p1, _ := e.Allocate(8)
	p2, err := e.Allocate(8)

	if err != nil || p2 == nil {
		t.Fatalf("second Allocate(8) failed: %v", err)
	}

	if p1 == p2 {
		t.Fatal("two live allocations returned the same pointer")
	}

	if uintptr(p2)%8 != 0 { //nolint:govet
		t.Error("second pointer is not 8-aligned")
	}

	diff := uintptr(p2) - uintptr(p1) //nolint:govet
	if diff < MinBlockSize {
		t.Errorf("blocks are only %d bytes apart, want >= %d", diff, MinBlockSize)
	}
}

// Scenario 3: a 1MiB request succeeds against a generous arena and fails
// with ErrOutOfMemory against a tiny one.
func TestScenario3LargeAllocationVersusTinyArena(t *testing.T) {
	big := newTestEngine(t, 16<<20)
	if p, err := big.Allocate(1 << 20); err != nil || p == nil {
		t.Fatalf("1MiB allocation should succeed against a 16MiB arena: %v", err)
	}

	tiny := newTestEngine(t, 64<<10)
	p, err := tiny.Allocate(1 << 20)
	if p != nil || err != ErrOutOfMemory {
		t.Fatalf("1MiB allocation against a 64KiB arena = (%v, %v), want (nil, ErrOutOfMemory)", p, err)
	}
}

// Scenario 4: freeing an exact-fit block and re-requesting the same size
// returns the same block (LIFO head of its class).
func TestScenario4ExactFitReuse(t *testing.T) {
	e := newTestEngine(t, 1<<20)

	p, _ := e.Allocate(16)
	e.Free(p)

	q, err := e.Allocate(16)
	if err != nil || q != p {
		t.Errorf("Allocate(16) after Free = %v, want %v (reused block)", q, p)
	}
}

// Scenario 5: freeing a 16-byte allocation (a 32-byte block) and
// requesting 8 bytes (a 24-byte need) reuses the same block without
// splitting, because the 8-byte remainder is below MinBlockSize.
func TestScenario5NoSplitBelowMinimum(t *testing.T) {
	e := newTestEngine(t, 1<<20)

	p, _ := e.Allocate(16)
	e.Free(p)

	cls := classOf(alignUp8(16 + 16))
	if e.table.head(cls) == 0 {
		t.Fatal("freed block should be the head of its class before reallocation")
	}

	q, err := e.Allocate(8)
	if err != nil || q != p {
		t.Errorf("Allocate(8) after Free(16-byte alloc) = %v, want %v", q, p)
	}

	if e.table.head(cls) != 0 {
		t.Error("class head should be empty: the whole 32-byte block was reused, not split")
	}
}

// Scenario 6: allocate 100 64-byte blocks, free the even-indexed ones,
// reallocate 50 more — all succeed and the heap does not grow between
// the frees and the reallocations.
func TestScenario6FreeListRecycling(t *testing.T) {
	e := newTestEngine(t, 16<<20)

	ptrs := make([]unsafe.Pointer, 100)

	for i := range ptrs {
		p, err := e.Allocate(64)
		if err != nil || p == nil {
			t.Fatalf("allocation %d failed: %v", i, err)
		}

		ptrs[i] = p
	}

	for i := 0; i < 100; i += 2 {
		e.Free(ptrs[i])
	}

	brkBefore, _ := e.grower.src.Query()

	for i := 0; i < 50; i++ {
		p, err := e.Allocate(64)
		if err != nil || p == nil {
			t.Fatalf("reallocation %d failed: %v", i, err)
		}
	}

	brkAfter, _ := e.grower.src.Query()
	if brkAfter != brkBefore {
		t.Errorf("heap grew during recycling: break moved from %#x to %#x", brkBefore, brkAfter)
	}
}

func TestAllocateZeroReturnsNilWithoutError(t *testing.T) {
	e := newTestEngine(t, 1<<20)

	p, err := e.Allocate(0)
	if p != nil || err != nil {
		t.Errorf("Allocate(0) = (%v, %v), want (nil, nil)", p, err)
	}
}

func TestAllocateSatisfiesRequestedSize(t *testing.T) {
	e := newTestEngine(t, 1<<20)

	for _, n := range []uintptr{1, 7, 8, 100, 4000, 20000} {
		p, err := e.Allocate(n)
		if err != nil || p == nil {
			t.Fatalf("Allocate(%d) failed: %v", n, err)
		}

		block := blockOf(uintptr(p)) //nolint:govet

		payloadBytes := sizeOf(readTag(block)) - 16
		if payloadBytes < n {
			t.Errorf("Allocate(%d): payload only %d bytes", n, payloadBytes)
		}
	}
}

func TestStatsCountsAllocatesFreesAndOOM(t *testing.T) {
	e := newTestEngine(t, 64<<10)

	p1, _ := e.Allocate(16)
	if _, err := e.Allocate(16); err != nil {
		t.Fatalf("second Allocate failed: %v", err)
	}

	e.Free(p1)

	if _, err := e.Allocate(1 << 20); err != ErrOutOfMemory {
		t.Fatalf("expected an out-of-memory failure, got %v", err)
	}

	s := e.Stats()
	if s.AllocCount != 2 {
		t.Errorf("AllocCount = %d, want 2", s.AllocCount)
	}

	if s.FreeCount != 1 {
		t.Errorf("FreeCount = %d, want 1", s.FreeCount)
	}

	if s.OutOfMemoryCount != 1 {
		t.Errorf("OutOfMemoryCount = %d, want 1", s.OutOfMemoryCount)
	}
}

// TestAllocateReusesEscalatedBlockWithoutPanicking is a regression test:
// a block freed back into its own class can later be handed out to a
// smaller request that only finds it via cross-class escalation, and
// removing it must target the class it was actually found in, not the
// class the smaller request would have grown into.
func TestAllocateReusesEscalatedBlockWithoutPanicking(t *testing.T) {
	e := newTestEngine(t, 1<<20)

	p, err := e.Allocate(32) // need=48, class 1; consumes the whole class-1 list once freed.
	if err != nil || p == nil {
		t.Fatalf("Allocate(32) failed: %v", err)
	}

	e.Free(p) // classOf(48) == 1: the 48-byte block lands back in class 1.

	// need=24, class 0: class 0 is empty, so findFit escalates to class 1
	// and returns the 48-byte block. remove must use class 1, not 0.
	q, err := e.Allocate(8)
	if err != nil || q == nil {
		t.Fatalf("Allocate(8) after Free(32) failed: %v", err)
	}

	if q != p {
		t.Errorf("Allocate(8) = %v, want the reused 48-byte block %v", q, p)
	}
}

func TestPackageLevelDefaultEngine(t *testing.T) {
	p, err := Allocate(16)
	if err != nil || p == nil {
		t.Fatalf("package-level Allocate failed: %v", err)
	}

	Free(p)
}
