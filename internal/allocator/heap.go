package allocator

import "github.com/adel-qod/malloc/internal/engineconfig"

// BreakSource is the OS collaborator the heap grower consumes: a way to
// move the process break and read it back, without the allocator needing
// to know whether that break is real (a Linux brk(2) wrapper) or
// simulated (an in-process arena used by tests). See internal/brk for
// the implementations; this package only depends on the interface.
type BreakSource interface {
	// Extend advances the break by delta bytes and returns the
	// pre-change break. ok is false on failure (the OS collaborator's
	// failure sentinel).
	Extend(delta int64) (prevBreak uintptr, ok bool)

	// Query returns the current break without changing it.
	Query() (curBreak uintptr, ok bool)
}

// heapGrower plants the boundary sentinels on first use and extends the
// break thereafter with geometric back-off. policy carries the
// base extension sizes and back-off attempt count; a zero-value
// heapGrower (as built by test helpers that construct it as a struct
// literal) falls back to engineconfig.Default() lazily in grow, via
// effectivePolicy.
type heapGrower struct {
	src         BreakSource
	policy      engineconfig.Config
	initialized bool
}

// effectivePolicy returns g.policy, substituting engineconfig.Default()
// when g was built without one (BackoffAttempts is the zero value only
// for a struct literal that never set policy).
func (g *heapGrower) effectivePolicy() engineconfig.Config {
	if g.policy.BackoffAttempts == 0 {
		return engineconfig.Default()
	}

	return g.policy
}

// growthBase returns the base extension size for the size class range
// requesting growth. For the unbounded top class the base is a multiple
// of need.
func growthBase(policy engineconfig.Config, cls int, need uintptr) uintptr {
	switch {
	case cls <= 4:
		return uintptr(policy.SmallClassBase)
	case cls <= 9:
		return uintptr(policy.MidClassBase)
	default:
		return uintptr(policy.LargeClassMultiplier) * need
	}
}

// ensureSentinels plants the low and high boundary sentinels the first
// time the heap is grown. It aligns the break to 8 bytes first if
// necessary.
func (g *heapGrower) ensureSentinels() bool {
	if g.initialized {
		return true
	}

	cur, ok := g.src.Query()
	if !ok {
		return false
	}

	if cur%8 != 0 {
		pad := 8 - (cur % 8)
		if _, ok := g.src.Extend(int64(pad)); !ok {
			return false
		}
	}

	start, ok := g.src.Extend(16)
	if !ok {
		return false
	}

	writeTag(start, sentinelTag)
	writeTag(start+8, sentinelTag)

	g.initialized = true

	return true
}

// grow extends the break to make room for a block of at least need bytes,
// requested on behalf of size class cls, using the geometric back-off
// schedule. On success it returns the new block's header address; the
// block has not yet been inserted into any free list.
func (g *heapGrower) grow(cls int, need uintptr) (uintptr, bool) {
	if !g.ensureSentinels() {
		return 0, false
	}

	policy := g.effectivePolicy()
	base := growthBase(policy, cls, need)

	oldBrk, ok := uintptr(0), false

	divisor := uintptr(1)
	for attempt := 0; attempt < policy.BackoffAttempts; attempt++ {
		if p, extended := g.src.Extend(int64(base / divisor)); extended {
			oldBrk, ok = p, true

			break
		}

		divisor *= 2
	}

	if !ok {
		if p, extended := g.src.Extend(int64(2 * need)); extended {
			oldBrk, ok = p, true
		} else if p, extended := g.src.Extend(int64(need)); extended {
			oldBrk, ok = p, true
		}
	}

	if !ok {
		return 0, false
	}

	newBrk, queried := g.src.Query()
	if !queried {
		return 0, false
	}

	// old_brk - 8 reclaims the old end sentinel's slot as the new
	// block's header.
	header := oldBrk - 8
	blockSize := newBrk - header - 8

	setHeaderFooter(header, blockSize, false)
	writeTag(newBrk-8, sentinelTag)

	return header, true
}
