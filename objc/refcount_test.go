package objc

import (
	"math/rand/v2"
	"testing"
)

func TestRetainRelease(t *testing.T) {
	rt := newTestRuntime(t)
	deallocs := 0
	root := registerRoot(rt, &deallocs)
	id := rt.Allocate(root, nil)

	if got := rt.Retain(id); got != id {
		t.Errorf("Retain returned %s, want %s", got, id)
	}
	if rt.RetainCount(id) != 2 {
		t.Errorf("RetainCount = %d, want 2", rt.RetainCount(id))
	}
	rt.Release(id)
	if deallocs != 0 {
		t.Fatal("released too early")
	}
	rt.Release(id)
	if deallocs != 1 {
		t.Fatalf("deallocs = %d, want 1", deallocs)
	}
	if rt.IsLive(id) {
		t.Error("object should be gone")
	}
	expectFatal(t, FatalDeadObject, func() { rt.Release(id) })
	expectFatal(t, FatalDeadObject, func() { rt.Retain(id) })
}

func TestRetainReleaseNilAndClasses(t *testing.T) {
	rt := newTestRuntime(t)
	root := registerRoot(rt, nil)

	if rt.Retain(Nil) != Nil {
		t.Error("Retain(nil) should return nil")
	}
	rt.Release(Nil)
	if rt.Autorelease(Nil) != Nil {
		t.Error("Autorelease(nil) should return nil")
	}
	if rt.Retain(root.ID) != root.ID {
		t.Error("retaining a class should return it")
	}
	rt.Release(root.ID)
	rt.Release(root.ID)
	if !rt.IsLive(root.ID) {
		t.Error("classes are never released")
	}
}

// The number of deallocations is exactly one, and happens when the
// releases catch up with the retains plus the allocation's own count.
func TestExactlyOneDeallocation(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		rt := newTestRuntime(t)
		deallocs := 0
		root := registerRoot(rt, &deallocs)
		id := rt.Allocate(root, nil)

		r := rand.New(rand.NewPCG(seed, 0))
		outstanding := 1
		for step := 0; outstanding > 0; step++ {
			if step < 50 && r.IntN(2) == 0 {
				rt.Retain(id)
				outstanding++
			} else {
				rt.Release(id)
				outstanding--
			}
			want := 0
			if outstanding == 0 {
				want = 1
			}
			if deallocs != want {
				t.Fatalf("seed %d step %d: deallocs = %d with %d outstanding", seed, step, deallocs, outstanding)
			}
		}
	}
}

func TestReleaseInsideDeallocIsFatal(t *testing.T) {
	rt := newTestRuntime(t)
	rt.RegisterClass(ClassSpec{
		Name: "Suicidal",
		InstanceMethods: Methods(
			NewMethod0("dealloc", func(rt *Runtime, this ID) Word {
				rt.Release(this)
				return 0
			}),
		),
	})
	id := rt.Allocate(rt.MustClass("Suicidal"), nil)
	expectFatal(t, FatalOverRelease, func() { rt.Release(id) })
}

func TestRetainDuringDeallocIsFatal(t *testing.T) {
	rt := newTestRuntime(t)
	rt.RegisterClass(ClassSpec{
		Name: "Resurrecting",
		InstanceMethods: Methods(
			NewMethod0("dealloc", func(rt *Runtime, this ID) Word {
				rt.Retain(this)
				return 0
			}),
		),
	})
	id := rt.Allocate(rt.MustClass("Resurrecting"), nil)
	expectFatal(t, FatalDeadObject, func() { rt.Release(id) })
}

func TestReleaseWithoutDeallocMethod(t *testing.T) {
	rt := newTestRuntime(t)
	bare := rt.RegisterClass(ClassSpec{Name: "Bare"})
	id := rt.Allocate(bare, nil)
	rt.Release(id)
	if rt.IsLive(id) || rt.LiveObjects() != 0 {
		t.Error("object without -dealloc should still be deallocated")
	}
}

// allocate A (count 1), retain (2), autorelease in pool P, release (1),
// pop P (0, deallocated).
func TestAutoreleaseScenario(t *testing.T) {
	rt := newTestRuntime(t)
	deallocs := 0
	registerRoot(rt, &deallocs)
	x := rt.RegisterClass(ClassSpec{Name: "X", Superclass: "Root"})

	a := rt.Allocate(x, &box{})
	rt.Retain(a)
	pool := rt.PushPool()
	if rt.Autorelease(a) != a {
		t.Error("Autorelease should return its argument")
	}
	rt.Release(a)
	if rt.RetainCount(a) != 1 {
		t.Errorf("RetainCount = %d, want 1", rt.RetainCount(a))
	}
	rt.PopPool(pool)

	if deallocs != 1 {
		t.Errorf("deallocs = %d, want 1", deallocs)
	}
	if rt.IsLive(a) {
		t.Error("A should be invalid")
	}
	expectFatal(t, FatalDeadObject, func() { Borrow[*box](rt, a) })
}
