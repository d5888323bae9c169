package mem

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mem")

// FaultKind classifies a guest memory fault.
type FaultKind uint8

const (
	FaultOutOfRange FaultKind = iota + 1
	FaultMisaligned
	FaultNullPage
	FaultBadType
	FaultBadFree
	FaultExhausted
)

func (k FaultKind) String() string {
	switch k {
	case FaultOutOfRange:
		return "out of range"
	case FaultMisaligned:
		return "misaligned"
	case FaultNullPage:
		return "null page"
	case FaultBadType:
		return "bad type"
	case FaultBadFree:
		return "bad free"
	case FaultExhausted:
		return "heap exhausted"
	}
	return fmt.Sprintf("fault(%d)", uint8(k))
}

// Fault is the panic value raised for any invalid guest memory access. It is
// not recoverable at this layer: it means the emulator or the guest binary
// broke its own ABI.
type Fault struct {
	Kind   FaultKind
	Addr   Ptr
	Size   uint32
	Detail string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("mem: %s at %s (%d bytes): %s", f.Kind, f.Addr, f.Size, f.Detail)
}

func fault(kind FaultKind, addr Ptr, size uint32, format string, args ...any) {
	f := &Fault{Kind: kind, Addr: addr, Size: size, Detail: fmt.Sprintf(format, args...)}
	log.Critical(f.Error())
	panic(f)
}
