package main

import (
	"fmt"

	"github.com/adel-qod/malloc/internal/allocator"
)

// runScenarios exercises the engine with a first 1MiB allocation to
// prove the heap can grow at all, followed by one 80-byte allocation
// whose ten words are written and read back, then frees both. The 1MiB
// allocation fails, and the run reports it, under an RLIMIT_DATA
// ceiling too tight to hold it.
func runScenarios(e *allocator.Engine) error {
	big, err := e.Allocate(1024 * 1024)
	if err != nil {
		return fmt.Errorf("scenario 1 (1MiB allocation): %w", err)
	}

	if big == nil {
		return fmt.Errorf("scenario 1 (1MiB allocation): got a nil pointer without an error")
	}

	small, err := e.Allocate(uintptr(8 * 10))
	if err != nil {
		return fmt.Errorf("scenario 2 (10 x uint64): %w", err)
	}

	if small == nil {
		return fmt.Errorf("scenario 2 (10 x uint64): got a nil pointer without an error")
	}

	words := (*[10]uint64)(small)
	for i := range words {
		words[i] = uint64(i) * 10
	}

	for i, got := range words {
		want := uint64(i) * 10
		if got != want {
			return fmt.Errorf("scenario 2: words[%d] = %d, want %d", i, got, want)
		}
	}

	e.Free(small)
	e.Free(big)

	return nil
}
