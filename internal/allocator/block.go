package allocator

import "unsafe"

// MinBlockSize is the smallest legal block: an 8-byte header, an 8-byte
// footer, and 8 bytes of payload.
const MinBlockSize = 24

// allocBit marks a tag word allocated when set, free when clear. Bits 0
// and 2 are reserved and must stay zero; the remaining bits hold the
// byte length of the block.
const allocBit = uint64(1) << 1

// sizeMask recovers the byte count from a tag word.
const sizeMask = ^uint64(0x7)

// sentinelTag brackets the managed region. A valid block's size field can
// never equal this value: bit 63 would require a block larger than the
// address space.
const sentinelTag = ^uint64(0)

// This file is the only place that dereferences raw heap addresses. Every
// other component in this package operates on uintptr block addresses and
// goes through these accessors, so a future port to a safer memory model
// only has to replace this file.

func readTag(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr)) //nolint:govet
}

func writeTag(addr uintptr, tag uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = tag //nolint:govet
}

func readPtr(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr)) //nolint:govet
}

func writePtr(addr uintptr, val uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = val //nolint:govet
}

// isSentinel reports whether tag is a boundary sentinel rather than a
// block header/footer.
func isSentinel(tag uint64) bool {
	return tag == sentinelTag
}

// sizeOf recovers the byte length encoded in a tag word.
func sizeOf(tag uint64) uintptr {
	return uintptr(tag & sizeMask)
}

// isAllocated reports the allocation bit of a tag word.
func isAllocated(tag uint64) bool {
	return tag&allocBit != 0
}

// makeTag builds a tag word for a block of the given size and allocation
// state. size must already be 8-byte aligned.
func makeTag(size uintptr, allocated bool) uint64 {
	tag := uint64(size) &^ 0x7

	if allocated {
		tag |= allocBit
	}

	return tag
}

// headerAt is the identity: a block's address is its header's address.
func headerAt(block uintptr) uintptr {
	return block
}

// footerFor returns the address of a block's footer given its header
// address; the header's size field must already be valid.
func footerFor(header uintptr) uintptr {
	size := sizeOf(readTag(header))

	return header + size - 8
}

// payloadOf returns the address of the payload given a block's header
// address.
func payloadOf(header uintptr) uintptr {
	return header + 8
}

// blockOf recovers a block's header address from a payload pointer
// previously handed to a caller.
func blockOf(payload uintptr) uintptr {
	return payload - 8
}

// setHeaderFooter writes matching header and footer tags for a block of
// the given size and allocation state.
func setHeaderFooter(header uintptr, size uintptr, allocated bool) {
	tag := makeTag(size, allocated)
	writeTag(header, tag)
	writeTag(header+size-8, tag)
}

// alignUp8 rounds n up to the next multiple of 8.
func alignUp8(n uintptr) uintptr {
	return (n + 7) &^ 7
}
