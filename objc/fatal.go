package objc

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("objc")

// FatalKind classifies a runtime invariant violation.
type FatalKind uint8

const (
	FatalWrongType FatalKind = iota + 1
	FatalBorrowConflict
	FatalDeadObject
	FatalDoubleFree
	FatalOverRelease
	FatalUnimplemented
	FatalBadClass
	FatalPoolMismatch
	FatalOutOfBounds
	FatalBadCall
)

var fatalKindNames = map[FatalKind]string{
	FatalWrongType:      "wrong host object type",
	FatalBorrowConflict: "borrow conflict",
	FatalDeadObject:     "dead object",
	FatalDoubleFree:     "double free",
	FatalOverRelease:    "over-release",
	FatalUnimplemented:  "unimplemented",
	FatalBadClass:       "bad class",
	FatalPoolMismatch:   "autorelease pool mismatch",
	FatalOutOfBounds:    "out of bounds",
	FatalBadCall:        "bad call",
}

func (k FatalKind) String() string {
	if s, ok := fatalKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("fatal(%d)", uint8(k))
}

// FatalError is the panic value for runtime invariant violations. These are
// bugs in the runtime or in a collaborator, never guest-recoverable
// conditions, and nothing inside this module recovers them.
type FatalError struct {
	Kind    FatalKind
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("objc: %s: %s", e.Kind, e.Message)
}

// Fatalf logs and panics with a *FatalError.
func Fatalf(kind FatalKind, format string, args ...any) {
	err := &FatalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	log.Critical(err.Error())
	panic(err)
}
