package objc

import (
	"github.com/Doodledash6/touchHLE/mem"
)

// FastEnumerationState is the guest-resident record driven by
// countByEnumeratingWithState:objects:count:. It is 32 bytes in guest
// memory.
type FastEnumerationState struct {
	State        uint32 // cursor; 0 before the first round
	ItemsPtr     mem.Ptr
	MutationsPtr mem.Ptr
	Extra        [5]uint32
}

// EnumerationPhase is where an enumeration stands.
type EnumerationPhase uint8

const (
	EnumerationNotStarted EnumerationPhase = iota
	EnumerationInProgress
	EnumerationExhausted
)

func (p EnumerationPhase) String() string {
	switch p {
	case EnumerationNotStarted:
		return "not started"
	case EnumerationInProgress:
		return "in progress"
	case EnumerationExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Phase classifies the record against a collection of total elements.
func (s FastEnumerationState) Phase(total int) EnumerationPhase {
	switch {
	case s.State == 0 && total > 0:
		return EnumerationNotStarted
	case int(s.State) >= total:
		return EnumerationExhausted
	}
	return EnumerationInProgress
}

// FastEnumerate runs one round of the protocol for the collection this,
// whose elements are items. Up to capacity identities are copied to
// stackbuf and the count is returned; 0 means the enumeration is over.
//
// The record is not written when there is nothing to copy, so enumerating
// an empty collection leaves it untouched. The mutation guard is the
// collection's own header address, which is stable and readable for the
// collection's lifetime.
func FastEnumerate(rt *Runtime, this ID, items []ID, statePtr, stackbuf mem.Ptr, capacity uint32) uint32 {
	if len(items) == 0 || capacity == 0 {
		return 0
	}
	st := mem.Read[FastEnumerationState](rt.Mem, statePtr)

	switch st.Phase(len(items)) {
	case EnumerationExhausted:
		return 0
	case EnumerationNotStarted:
		st.MutationsPtr = this.Ptr()
	}

	start := st.State
	n := min(uint32(len(items))-start, capacity)
	mem.WriteSlice(rt.Mem, stackbuf, items[start:start+n])
	st.ItemsPtr = stackbuf
	st.State = start + n
	mem.Write(rt.Mem, statePtr, st)
	return n
}
