package mem

import (
	"bytes"
	"encoding/binary"
	"reflect"
)

// Mem is the typed view of a guest Space plus the guest heap. It performs no
// locking: one logical thread drives guest execution and dispatch.
type Mem struct {
	space Space
	heap  *Arena
}

// New wraps space. The guest heap starts at heapBase and runs to the end of
// the space.
func New(space Space, heapBase Ptr) *Mem {
	if heapBase < NullPageSize {
		heapBase = NullPageSize
	}
	return &Mem{
		space: space,
		heap:  NewArena(heapBase, space.Size()),
	}
}

// Space returns the underlying address space.
func (m *Mem) Space() Space {
	return m.space
}

// Heap returns the guest heap allocator.
func (m *Mem) Heap() *Arena {
	return m.heap
}

// view checks the range and returns the backing bytes.
func (m *Mem) view(addr Ptr, n uint32, align uint32) []byte {
	if uint64(addr) < NullPageSize && n > 0 {
		fault(FaultNullPage, addr, n, "access inside the null page")
	}
	if align > 1 && !addr.AlignedTo(align) {
		fault(FaultMisaligned, addr, n, "address is not %d-byte aligned", align)
	}
	b, ok := m.space.Read(addr, n)
	if !ok {
		fault(FaultOutOfRange, addr, n, "space is %d bytes", m.space.Size())
	}
	return b
}

// Bytes copies n bytes starting at addr.
func (m *Mem) Bytes(addr Ptr, n uint32) []byte {
	return bytes.Clone(m.view(addr, n, 1))
}

// WriteBytes stores data at addr.
func (m *Mem) WriteBytes(addr Ptr, data []byte) {
	m.view(addr, uint32(len(data)), 1)
	if !m.space.Write(addr, data) {
		fault(FaultOutOfRange, addr, uint32(len(data)), "write rejected by space")
	}
}

// Zero clears n bytes starting at addr.
func (m *Mem) Zero(addr Ptr, n uint32) {
	m.WriteBytes(addr, make([]byte, n))
}

// CString reads a NUL-terminated string starting at addr.
func (m *Mem) CString(addr Ptr) string {
	var out []byte
	for p := addr; ; p = p.Add(1) {
		c := m.view(p, 1, 1)[0]
		if c == 0 {
			return string(out)
		}
		out = append(out, c)
	}
}

// Alloc allocates size zeroed bytes on the guest heap.
func (m *Mem) Alloc(size, align uint32) Ptr {
	p := m.heap.Alloc(size, align)
	m.Zero(p, size)
	return p
}

// Free returns a block obtained from Alloc.
func (m *Mem) Free(p Ptr) {
	m.heap.Free(p)
}

// ---------------------------------------------------------------------------
// Typed access
// ---------------------------------------------------------------------------

// SizeOf returns the guest size of T. T must be made only of fixed-width
// fields; host-width types such as int or uintptr fault.
func SizeOf[T any]() uint32 {
	var zero T
	n := binary.Size(zero)
	if n < 0 {
		fault(FaultBadType, Null, 0, "%T has no fixed guest layout", zero)
	}
	return uint32(n)
}

// alignOf returns the guest alignment of T. Guest code is 32-bit ARM, so
// scalars align to their size up to a word; aggregates take the largest
// alignment of their parts.
func alignOf[T any]() uint32 {
	return guestAlign(reflect.TypeFor[T]())
}

func guestAlign(t reflect.Type) uint32 {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8,
		reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Float32,
		reflect.Int64, reflect.Uint64, reflect.Float64:
		return min(uint32(t.Size()), 4)
	case reflect.Complex64, reflect.Complex128:
		return min(uint32(t.Size())/2, 4)
	case reflect.Array:
		return guestAlign(t.Elem())
	case reflect.Struct:
		align := uint32(1)
		for i := range t.NumField() {
			align = max(align, guestAlign(t.Field(i).Type))
		}
		return align
	}
	return 1
}

// Read decodes a T stored at addr.
func Read[T any](m *Mem, addr Ptr) T {
	var v T
	n := SizeOf[T]()
	b := m.view(addr, n, alignOf[T]())
	if _, err := binary.Decode(b, binary.LittleEndian, &v); err != nil {
		fault(FaultBadType, addr, n, "decode %T: %v", v, err)
	}
	return v
}

// Write encodes v at addr.
func Write[T any](m *Mem, addr Ptr, v T) {
	n := SizeOf[T]()
	m.view(addr, n, alignOf[T]())
	buf := make([]byte, n)
	if _, err := binary.Encode(buf, binary.LittleEndian, v); err != nil {
		fault(FaultBadType, addr, n, "encode %T: %v", v, err)
	}
	if !m.space.Write(addr, buf) {
		fault(FaultOutOfRange, addr, n, "write rejected by space")
	}
}

// ReadSlice decodes count consecutive T values starting at addr.
func ReadSlice[T any](m *Mem, addr Ptr, count uint32) []T {
	size := SizeOf[T]()
	out := make([]T, count)
	for i := range out {
		out[i] = Read[T](m, addr.Index(uint32(i), size))
	}
	return out
}

// WriteSlice encodes values consecutively starting at addr.
func WriteSlice[T any](m *Mem, addr Ptr, values []T) {
	size := SizeOf[T]()
	for i, v := range values {
		Write(m, addr.Index(uint32(i), size), v)
	}
}
