package diag

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Doodledash6/touchHLE/foundation"
	"github.com/Doodledash6/touchHLE/mem"
	"github.com/Doodledash6/touchHLE/objc"
)

func newTestRuntime(t *testing.T) *objc.Runtime {
	t.Helper()
	return foundation.NewRuntime(mem.New(mem.NewFlatSpace(1<<20), 0x10000))
}

func countOf(counts []Count, k Key) uint64 {
	for _, c := range counts {
		if c.Key == k {
			return c.N
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// Recorder
// ---------------------------------------------------------------------------

func TestRecorderCountsSends(t *testing.T) {
	rt := newTestRuntime(t)
	r := NewRecorder()
	r.Attach(rt, false)

	obj := objc.ID(rt.SendClass("NSObject", "new"))
	rt.Send(obj, "hash")
	rt.Send(obj, "hash")
	rt.Send(obj, "release")

	sends := r.Sends()
	if n := countOf(sends, Key{"NSObject", "hash", false}); n != 2 {
		t.Errorf("-[NSObject hash] count = %d, want 2", n)
	}
	if n := countOf(sends, Key{"NSObject", "new", true}); n != 1 {
		t.Errorf("+[NSObject new] count = %d, want 1", n)
	}
	if sends[0].N < sends[len(sends)-1].N {
		t.Error("Sends should be ordered most frequent first")
	}

	stats := r.Classes()["NSObject"]
	if stats.Allocated != 1 || stats.Deallocated != 1 || stats.Live() != 0 {
		t.Errorf("NSObject stats = %+v", stats)
	}
}

func TestRecorderWithoutStubStaysFatal(t *testing.T) {
	rt := newTestRuntime(t)
	NewRecorder().Attach(rt, false)
	obj := objc.ID(rt.SendClass("NSObject", "new"))

	defer func() {
		e, ok := recover().(*objc.FatalError)
		if !ok || e.Kind != objc.FatalUnimplemented {
			t.Errorf("expected an Unimplemented fatal error, got %v", e)
		}
	}()
	rt.Send(obj, "frobnicate")
}

func TestRecorderStubPolicy(t *testing.T) {
	rt := newTestRuntime(t)
	r := NewRecorder()
	r.Attach(rt, true)

	obj := objc.ID(rt.SendClass("NSObject", "new"))
	if got := rt.Send(obj, "frobnicate:", 5); got != 0 {
		t.Errorf("stub returned %d, want 0", got)
	}
	rt.Send(obj, "frobnicate:", 6)
	rt.SendClass("NSArray", "sharedThing")

	hits := r.UnimplementedHits()
	if len(hits) != 2 {
		t.Fatalf("hits = %v, want 2 entries", hits)
	}
	if hits[0].Key != (Key{"NSObject", "frobnicate:", false}) || hits[0].N != 2 {
		t.Errorf("top hit = %v", hits[0])
	}
	if n := countOf(hits, Key{"NSArray", "sharedThing", true}); n != 1 {
		t.Errorf("+[NSArray sharedThing] hits = %d, want 1", n)
	}

	r.Reset()
	if len(r.Sends()) != 0 || len(r.UnimplementedHits()) != 0 || len(r.Classes()) != 0 {
		t.Error("Reset left counters behind")
	}
}

func TestKeyString(t *testing.T) {
	if s := (Key{"NSArray", "count", false}).String(); s != "-[NSArray count]" {
		t.Errorf("instance key = %q", s)
	}
	if s := (Key{"NSArray", "array", true}).String(); s != "+[NSArray array]" {
		t.Errorf("class key = %q", s)
	}
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

func TestStoreFlush(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "diag.db")

	rt := newTestRuntime(t)
	r := NewRecorder()
	r.Attach(rt, true)
	obj := objc.ID(rt.SendClass("NSObject", "new"))
	rt.Send(obj, "missing")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Session() == "" {
		t.Error("session id empty")
	}
	if err := s.Flush(ctx, r); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	// A second flush replaces rather than adds.
	rt.Send(obj, "missing")
	if err := s.Flush(ctx, r); err != nil {
		t.Fatalf("second Flush: %v", err)
	}

	got, err := s.Unimplemented(ctx)
	if err != nil {
		t.Fatalf("Unimplemented: %v", err)
	}
	if len(got) != 1 || got[0].Key != (Key{"NSObject", "missing", false}) || got[0].N != 2 {
		t.Errorf("Unimplemented = %v", got)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(ctx, r); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush after Close = %v, want ErrClosed", err)
	}

	// A later session sums with the first.
	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if s2.Session() == s.Session() {
		t.Error("sessions should differ")
	}
	if err := s2.Flush(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, err = s2.Unimplemented(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].N != 4 {
		t.Errorf("summed Unimplemented = %v, want one entry with 4", got)
	}
	if n, err := s2.Sessions(ctx); err != nil || n != 2 {
		t.Errorf("Sessions = %d, %v; want 2", n, err)
	}
}
