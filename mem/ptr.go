// Package mem is the bridge between host code and the guest's linear address
// space.
//
// Guest pointers are fixed 32-bit values. They are never host pointers and are
// never dereferenced as such: every access goes through a Space, and every
// multi-byte value is encoded little-endian regardless of the host.
package mem

import "fmt"

// Ptr is a guest address.
type Ptr uint32

// Null is the guest null pointer.
const Null Ptr = 0

// NullPageSize is the size of the unmapped region at address zero. Any access
// touching it faults.
const NullPageSize = 0x1000

// IsNull reports whether p is the null pointer.
func (p Ptr) IsNull() bool {
	return p == Null
}

// Add returns p advanced by n bytes. Wrapping past the top of the 32-bit
// address space faults.
func (p Ptr) Add(n uint32) Ptr {
	sum := uint64(p) + uint64(n)
	if sum > maxAddr {
		fault(FaultOutOfRange, p, n, "pointer arithmetic overflows the guest address space")
	}
	return Ptr(sum)
}

// Index returns the address of element i in an array of elemSize-byte
// elements starting at p.
func (p Ptr) Index(i, elemSize uint32) Ptr {
	off := uint64(i) * uint64(elemSize)
	if off > maxAddr {
		fault(FaultOutOfRange, p, elemSize, "array index %d overflows the guest address space", i)
	}
	return p.Add(uint32(off))
}

// Sub returns the byte distance from q to p. q must not be above p.
func (p Ptr) Sub(q Ptr) uint32 {
	if q > p {
		fault(FaultOutOfRange, p, 0, "pointer difference is negative (base %s)", q)
	}
	return uint32(p - q)
}

// AlignedTo reports whether p is a multiple of align. align must be a power
// of two.
func (p Ptr) AlignedTo(align uint32) bool {
	return uint32(p)&(align-1) == 0
}

func (p Ptr) String() string {
	return fmt.Sprintf("0x%08x", uint32(p))
}

const maxAddr = 1<<32 - 1
