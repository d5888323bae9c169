package objc

import (
	"github.com/Doodledash6/touchHLE/mem"
)

// ArgSource yields raw argument words in calling-convention order.
type ArgSource interface {
	Next() Word
}

// StackArgs reads consecutive 4-byte words from guest memory, starting at
// the address where the caller spilled its variadic arguments.
type StackArgs struct {
	m      *mem.Mem
	cursor mem.Ptr
}

// NewStackArgs starts reading at sp.
func NewStackArgs(m *mem.Mem, sp mem.Ptr) *StackArgs {
	return &StackArgs{m: m, cursor: sp}
}

func (s *StackArgs) Next() Word {
	w := mem.Read[uint32](s.m, s.cursor)
	s.cursor = s.cursor.Add(4)
	return w
}

// Cursor returns the address of the next word.
func (s *StackArgs) Cursor() mem.Ptr {
	return s.cursor
}

// RegisterArgs yields the words left in argument registers, then continues
// from the stack, matching a call whose variadic part starts in registers.
type RegisterArgs struct {
	regs  []Word
	stack ArgSource
}

// NewRegisterArgs chains regs with stack.
func NewRegisterArgs(regs []Word, stack ArgSource) *RegisterArgs {
	return &RegisterArgs{regs: regs, stack: stack}
}

func (r *RegisterArgs) Next() Word {
	if len(r.regs) > 0 {
		w := r.regs[0]
		r.regs = r.regs[1:]
		return w
	}
	if r.stack == nil {
		return 0
	}
	return r.stack.Next()
}

// SliceArgs yields host-supplied words, then zeros.
type SliceArgs struct {
	words []Word
}

func (s *SliceArgs) Next() Word {
	if len(s.words) == 0 {
		return 0
	}
	w := s.words[0]
	s.words = s.words[1:]
	return w
}

// ObjectList builds a nil-terminated argument list from host identities.
func ObjectList(ids ...ID) ArgSource {
	words := make([]Word, 0, len(ids)+1)
	for _, id := range ids {
		words = append(words, id.Word())
	}
	return &SliceArgs{words: append(words, Nil.Word())}
}

// ---------------------------------------------------------------------------
// VarArgs
// ---------------------------------------------------------------------------

// VarArgs iterates a nil-terminated list of identities. It never yields the
// terminating nil and performs no retains: a handler storing a yielded
// identity must retain it itself.
type VarArgs struct {
	src  ArgSource
	done bool
}

func newVarArgs(src ArgSource) *VarArgs {
	return &VarArgs{src: src, done: src == nil}
}

// Next returns the next identity, or false once the terminator is reached.
func (v *VarArgs) Next() (ID, bool) {
	if v.done {
		return Nil, false
	}
	w := v.src.Next()
	if w == Nil.Word() {
		v.done = true
		return Nil, false
	}
	return ID(w), true
}

// NextWord returns the next raw word without terminator handling, for
// variadic lists of scalars.
func (v *VarArgs) NextWord() Word {
	if v.src == nil {
		return 0
	}
	return v.src.Next()
}

// Collect drains the list.
func (v *VarArgs) Collect() []ID {
	var out []ID
	for {
		id, ok := v.Next()
		if !ok {
			return out
		}
		out = append(out, id)
	}
}
