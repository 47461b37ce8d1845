package allocator

import "errors"

// ErrOutOfMemory is the process-global error signal Allocate returns:
// Engine.Allocate sets it only when the OS break-extension sequence of
// heapGrower.grow is fully exhausted. A zero or negative request size
// returns (nil, nil) without touching it.
var ErrOutOfMemory = errors.New("allocator: out of memory")
