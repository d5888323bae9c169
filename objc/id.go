package objc

import (
	"fmt"

	"github.com/Doodledash6/touchHLE/mem"
)

// Word is one guest register-sized value: the unit in which arguments and
// return values cross the dispatch boundary.
type Word = uint32

// ID is an object identity. Every identity is the guest address of the
// object's header, so guest code can dereference it.
type ID uint32

// Nil is the "no object" sentinel.
const Nil ID = 0

// Ptr returns the header address.
func (id ID) Ptr() mem.Ptr {
	return mem.Ptr(id)
}

// Word returns the identity as an argument or return value.
func (id ID) Word() Word {
	return Word(id)
}

func (id ID) String() string {
	if id == Nil {
		return "nil"
	}
	return fmt.Sprintf("<id 0x%08x>", uint32(id))
}

// Bool converts a host bool to the guest BOOL encoding.
func Bool(b bool) Word {
	if b {
		return 1
	}
	return 0
}

// headerSize is the guest footprint of every object. The class identity
// ("isa") lives at offset 0.
const headerSize = 16
