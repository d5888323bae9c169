package mem

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Space is a guest linear address space.
//
// Read returns a view of the underlying bytes that is only valid until the
// next Write. Both report false when the range is not mapped.
type Space interface {
	Size() uint64
	Read(addr Ptr, n uint32) ([]byte, bool)
	Write(addr Ptr, data []byte) bool
}

// ---------------------------------------------------------------------------
// FlatSpace: a plain byte slice
// ---------------------------------------------------------------------------

// FlatSpace maps guest addresses [0, size) onto a host byte slice.
type FlatSpace struct {
	buf []byte
}

// NewFlatSpace creates a zero-filled space of size bytes.
func NewFlatSpace(size uint32) *FlatSpace {
	return &FlatSpace{buf: make([]byte, size)}
}

func (s *FlatSpace) Size() uint64 {
	return uint64(len(s.buf))
}

func (s *FlatSpace) Read(addr Ptr, n uint32) ([]byte, bool) {
	end := uint64(addr) + uint64(n)
	if end > uint64(len(s.buf)) {
		return nil, false
	}
	return s.buf[addr:end:end], true
}

func (s *FlatSpace) Write(addr Ptr, data []byte) bool {
	end := uint64(addr) + uint64(len(data))
	if end > uint64(len(s.buf)) {
		return false
	}
	copy(s.buf[addr:end], data)
	return true
}

// ---------------------------------------------------------------------------
// WazeroSpace: linear memory owned by a wazero runtime
// ---------------------------------------------------------------------------

const wasmPageSize = 65536

// WazeroSpace backs the guest address space with the exported memory of a
// minimal wasm module. The wazero memory gives a 32-bit, little-endian,
// bounds-checked space covering all but the last page of the 4 GiB range.
type WazeroSpace struct {
	runtime wazero.Runtime
	module  api.Module
	memory  api.Memory
}

// NewWazeroSpace instantiates a memory of at least size bytes, rounded up to
// whole wasm pages.
func NewWazeroSpace(ctx context.Context, size uint64) (*WazeroSpace, error) {
	if size == 0 {
		return nil, fmt.Errorf("wazero space: size must be positive")
	}
	pages := (size + wasmPageSize - 1) / wasmPageSize
	// api.Memory reports its size as a uint32, so the last page stays unmapped.
	if pages >= 65536 {
		return nil, fmt.Errorf("wazero space: %d bytes exceeds the 32-bit address space", size)
	}

	cfg := wazero.NewRuntimeConfigInterpreter().WithMemoryLimitPages(uint32(pages))
	r := wazero.NewRuntimeWithConfig(ctx, cfg)
	mod, err := r.Instantiate(ctx, memoryModule(uint32(pages)))
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wazero space: instantiate memory module: %w", err)
	}
	m := mod.ExportedMemory("memory")
	if m == nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wazero space: module exports no memory")
	}
	log.Debugf("wazero space: %d pages", pages)
	return &WazeroSpace{runtime: r, module: mod, memory: m}, nil
}

func (s *WazeroSpace) Size() uint64 {
	return uint64(s.memory.Size())
}

func (s *WazeroSpace) Read(addr Ptr, n uint32) ([]byte, bool) {
	return s.memory.Read(uint32(addr), n)
}

func (s *WazeroSpace) Write(addr Ptr, data []byte) bool {
	return s.memory.Write(uint32(addr), data)
}

// Close releases the wazero runtime.
func (s *WazeroSpace) Close(ctx context.Context) error {
	return s.runtime.Close(ctx)
}

// memoryModule encodes a wasm binary whose only content is one memory of
// pages pages, exported as "memory".
func memoryModule(pages uint32) []byte {
	limits := append([]byte{0x00}, uleb128(pages)...)
	memSection := append([]byte{0x01}, limits...)

	b := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	b = append(b, 0x05)
	b = append(b, uleb128(uint32(len(memSection)))...)
	b = append(b, memSection...)

	export := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}
	b = append(b, 0x07)
	b = append(b, uleb128(uint32(len(export)))...)
	b = append(b, export...)
	return b
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		out = append(out, c)
		if v == 0 {
			return out
		}
	}
}
