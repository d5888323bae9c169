package objc

import (
	"bytes"
	"testing"

	"github.com/Doodledash6/touchHLE/mem"
)

func makeIDs(n int) []ID {
	ids := make([]ID, n)
	for i := range ids {
		ids[i] = ID(0x1000 + 0x10*i)
	}
	return ids
}

func TestFastEnumerationStateSize(t *testing.T) {
	if n := mem.SizeOf[FastEnumerationState](); n != 32 {
		t.Errorf("state record is %d bytes, want 32", n)
	}
}

func TestFastEnumerateRounds(t *testing.T) {
	for n := 0; n <= 9; n++ {
		for k := uint32(1); k <= 4; k++ {
			rt := newTestRuntime(t)
			this := ID(rt.Mem.Alloc(16, 16))
			statePtr := rt.Mem.Alloc(32, 4)
			buf := rt.Mem.Alloc(4*k, 4)
			items := makeIDs(n)

			var got []ID
			rounds := 0
			for {
				c := FastEnumerate(rt, this, items, statePtr, buf, k)
				if c == 0 {
					break
				}
				rounds++
				if c > k {
					t.Fatalf("n=%d k=%d: round returned %d > capacity", n, k, c)
				}
				if rounds*int(k) <= n && c != k {
					t.Errorf("n=%d k=%d: non-final round returned %d, want %d", n, k, c, k)
				}
				st := mem.Read[FastEnumerationState](rt.Mem, statePtr)
				if st.MutationsPtr != this.Ptr() {
					t.Errorf("n=%d k=%d: mutation guard moved to %s", n, k, st.MutationsPtr)
				}
				got = append(got, mem.ReadSlice[ID](rt.Mem, st.ItemsPtr, c)...)
				if rounds > n+1 {
					t.Fatalf("n=%d k=%d: enumeration does not terminate", n, k)
				}
			}

			want := (n + int(k) - 1) / int(k)
			if rounds != want {
				t.Errorf("n=%d k=%d: %d rounds, want %d", n, k, rounds, want)
			}
			if len(got) != n {
				t.Fatalf("n=%d k=%d: enumerated %d items", n, k, len(got))
			}
			for i := range got {
				if got[i] != items[i] {
					t.Errorf("n=%d k=%d: item %d = %s, want %s", n, k, i, got[i], items[i])
				}
			}

			// Further calls stay exhausted.
			if c := FastEnumerate(rt, this, items, statePtr, buf, k); c != 0 {
				t.Errorf("n=%d k=%d: call after exhaustion returned %d", n, k, c)
			}
		}
	}
}

func TestFastEnumerateEmptyLeavesStateUntouched(t *testing.T) {
	rt := newTestRuntime(t)
	statePtr := rt.Mem.Alloc(32, 4)
	pattern := bytes.Repeat([]byte{0xab}, 32)
	rt.Mem.WriteBytes(statePtr, pattern)
	buf := rt.Mem.Alloc(16, 4)

	// The record is garbage; an empty collection must not even read it.
	if c := FastEnumerate(rt, ID(0x2000), nil, statePtr, buf, 4); c != 0 {
		t.Errorf("empty enumeration returned %d", c)
	}
	if !bytes.Equal(rt.Mem.Bytes(statePtr, 32), pattern) {
		t.Error("state record was written")
	}
	if c := FastEnumerate(rt, ID(0x2000), makeIDs(3), statePtr, buf, 0); c != 0 {
		t.Errorf("zero-capacity enumeration returned %d", c)
	}
}

func TestFastEnumerationPhase(t *testing.T) {
	tests := []struct {
		state FastEnumerationState
		total int
		want  EnumerationPhase
	}{
		{FastEnumerationState{}, 3, EnumerationNotStarted},
		{FastEnumerationState{State: 2}, 3, EnumerationInProgress},
		{FastEnumerationState{State: 3}, 3, EnumerationExhausted},
		{FastEnumerationState{}, 0, EnumerationExhausted},
	}
	for _, tt := range tests {
		if got := tt.state.Phase(tt.total); got != tt.want {
			t.Errorf("Phase(%d) with state %d = %s, want %s", tt.total, tt.state.State, got, tt.want)
		}
	}
}
