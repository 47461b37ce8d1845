package allocator

import (
	"unsafe"

	"github.com/adel-qod/malloc/internal/engineconfig"
)

// Engine is a single allocator instance: the segregated free-list table,
// the heap grower, and the break source it grows against. It is not
// safe for concurrent use — serialization is left to the caller.
type Engine struct {
	table   freeListTable
	grower  heapGrower
	lastErr error

	allocCount uint64
	freeCount  uint64
	oomCount   uint64
}

// NewEngine returns an Engine that grows its heap against src. The heap
// is empty until the first Allocate call; no break is touched at
// construction time.
func NewEngine(src BreakSource) *Engine {
	return &Engine{grower: heapGrower{src: src, policy: engineconfig.Default()}}
}

// NewEngineWithConfig returns an Engine whose growth policy (base
// extension sizes and back-off attempt count) comes from cfg instead of
// engineconfig.Default(). A running process can replace cfg later by
// calling ReloadConfig, e.g. in response to a file watch event.
func NewEngineWithConfig(src BreakSource, cfg engineconfig.Config) *Engine {
	return &Engine{grower: heapGrower{src: src, policy: cfg}}
}

// ReloadConfig swaps the engine's growth policy in place. It is safe to
// call between Allocate/Free calls but, like the rest of Engine, is not
// safe to call concurrently with them.
func (e *Engine) ReloadConfig(cfg engineconfig.Config) {
	e.grower.policy = cfg
}

// Allocate returns (nil, nil) for a zero-size request (not an error), and
// (nil, ErrOutOfMemory) when the heap cannot be grown far enough to
// satisfy the request.
func (e *Engine) Allocate(size uintptr) (unsafe.Pointer, error) {
	e.lastErr = nil

	if size == 0 {
		return nil, nil
	}

	need := alignUp8(size + 16)
	cls := classOf(need)

	block, foundCls := findFit(&e.table, cls, need)
	if block == 0 {
		grown, ok := e.grower.grow(cls, need)
		if !ok {
			e.lastErr = ErrOutOfMemory
			e.oomCount++

			return nil, ErrOutOfMemory
		}

		// Insert at the requesting class, not the class the block's own
		// size would classify to: the immediate retry below must find it
		// without cross-class escalation.
		e.table.push(cls, grown)

		block, foundCls = findFit(&e.table, cls, need)
		if block == 0 {
			panic("allocator: post-growth fit retry failed")
		}
	}

	e.table.remove(foundCls, block)

	if tail := trySplit(block, need); tail != 0 {
		e.table.push(classOf(sizeOf(readTag(tail))), tail)
	}

	setHeaderFooter(block, sizeOf(readTag(block)), true)
	e.allocCount++

	return unsafe.Pointer(payloadOf(block)), nil //nolint:govet
}

// Free releases a block returned by Allocate. ptr must not already be
// free; passing nil is undefined and this implementation does not guard
// against it, matching the original C allocator it's modeled on.
func (e *Engine) Free(ptr unsafe.Pointer) {
	block := blockOf(uintptr(ptr)) //nolint:govet

	size := sizeOf(readTag(block))
	setHeaderFooter(block, size, false)
	e.table.push(classOf(size), block)
	e.freeCount++
}

// LastError returns the error set by the most recent Allocate call, or
// nil. It exists so callers that only want the POSIX-style null-return
// contract can still inspect why allocation failed.
func (e *Engine) LastError() error {
	return e.lastErr
}

// ClassStats reports the free list occupancy of a single size class.
type ClassStats struct {
	Class      int    `json:"class"`
	UpperBound uint64 `json:"upper_bound,omitempty"` // 0 for the unbounded top class
	FreeBlocks int    `json:"free_blocks"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// Stats is a point-in-time summary of an Engine's heap, suitable for
// rendering in a diagnostics snapshot.
type Stats struct {
	BreakAddr        uint64       `json:"break_addr"`
	Classes          []ClassStats `json:"classes"`
	Initialized      bool         `json:"initialized"`
	AllocCount       uint64       `json:"alloc_count"`
	FreeCount        uint64       `json:"free_count"`
	OutOfMemoryCount uint64       `json:"out_of_memory_count"`
}

// Stats walks every free list and queries the break source. It never
// touches allocated memory, so it's safe to call at any point between
// Allocate/Free calls.
func (e *Engine) Stats() Stats {
	s := Stats{
		Initialized:      e.grower.initialized,
		AllocCount:       e.allocCount,
		FreeCount:        e.freeCount,
		OutOfMemoryCount: e.oomCount,
	}

	if brkAddr, ok := e.grower.src.Query(); ok {
		s.BreakAddr = uint64(brkAddr)
	}

	for cls := 0; cls < classCount; cls++ {
		cs := ClassStats{Class: cls}

		if bound, ok := upperBound(cls); ok {
			cs.UpperBound = uint64(bound)
		}

		for cur := e.table.head(cls); cur != 0; cur = readPtr(payloadOf(cur)) {
			cs.FreeBlocks++
			cs.FreeBytes += uint64(sizeOf(readTag(cur)))
		}

		s.Classes = append(s.Classes, cs)
	}

	return s
}
