package mem

// Arena hands out blocks of guest address space from a bump region and
// recycles freed blocks first-in first-out per size class, so a freed
// address is reused as late as possible.
type Arena struct {
	base  Ptr
	limit uint64
	next  uint64

	live map[Ptr]uint32   // block -> size class
	free map[uint32][]Ptr // size class -> FIFO of freed blocks
}

// minBlock is the allocation granule.
const minBlock = 8

// NewArena manages guest addresses [base, limit).
func NewArena(base Ptr, limit uint64) *Arena {
	if limit > maxAddr+1 {
		limit = maxAddr + 1
	}
	return &Arena{
		base:  base,
		limit: limit,
		next:  uint64(base),
		live:  make(map[Ptr]uint32),
		free:  make(map[uint32][]Ptr),
	}
}

// Alloc reserves size bytes aligned to align, which must be a power of two.
// Running out of address space faults.
func (a *Arena) Alloc(size, align uint32) Ptr {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		fault(FaultBadType, Null, size, "alignment %d is not a power of two", align)
	}
	class := roundUp(uint64(max(size, 1)), minBlock)

	if queue := a.free[uint32(class)]; len(queue) > 0 {
		for i, p := range queue {
			if p.AlignedTo(align) {
				a.free[uint32(class)] = append(queue[:i:i], queue[i+1:]...)
				a.live[p] = uint32(class)
				return p
			}
		}
	}

	start := roundUp(a.next, uint64(align))
	if start+class > a.limit {
		fault(FaultExhausted, Ptr(a.next), size, "heap limit %#x reached", a.limit)
	}
	a.next = start + class
	p := Ptr(start)
	a.live[p] = uint32(class)
	return p
}

// Free releases a block. Freeing an address that is not a live block start
// faults.
func (a *Arena) Free(p Ptr) {
	class, ok := a.live[p]
	if !ok {
		fault(FaultBadFree, p, 0, "not a live heap block")
	}
	delete(a.live, p)
	a.free[class] = append(a.free[class], p)
}

// SizeOf returns the size class of a live block.
func (a *Arena) SizeOf(p Ptr) (uint32, bool) {
	class, ok := a.live[p]
	return class, ok
}

// Live returns the number of live blocks.
func (a *Arena) Live() int {
	return len(a.live)
}

// Contains reports whether p lies inside the arena's range.
func (a *Arena) Contains(p Ptr) bool {
	return p >= a.base && uint64(p) < a.limit
}

func roundUp(v, to uint64) uint64 {
	return (v + to - 1) &^ (to - 1)
}
