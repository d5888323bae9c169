package foundation

import (
	"testing"

	"github.com/Doodledash6/touchHLE/mem"
	"github.com/Doodledash6/touchHLE/objc"
)

func newTestRuntime(t *testing.T) *objc.Runtime {
	t.Helper()
	return NewRuntime(mem.New(mem.NewFlatSpace(1<<20), 0x10000))
}

func expectFatal(t *testing.T, kind objc.FatalKind, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected %s fatal error, got none", kind)
		}
		e, ok := r.(*objc.FatalError)
		if !ok {
			panic(r)
		}
		if e.Kind != kind {
			t.Fatalf("fatal kind = %s, want %s (%v)", e.Kind, kind, e)
		}
	}()
	fn()
}

func number(rt *objc.Runtime, v int32) objc.ID {
	n := rt.SendID(rt.MustClass("NSNumber").ID, "alloc")
	return rt.SendID(n, "initWithInt:", objc.Word(v))
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	rt := newTestRuntime(t)
	for _, name := range []string{
		"NSObject", "NSAutoreleasePool", "NSNumber", "NSEnumerator",
		"NSArray", "NSMutableArray", concreteArrayClass, concreteMutableClass,
		nonRetainingArrayClass, objectEnumeratorClass,
		"NSCoder", "NSKeyedArchiver", "NSKeyedUnarchiver",
	} {
		if rt.LookupClass(name) == nil {
			t.Errorf("class %s not registered", name)
		}
	}
	if !rt.MustClass("NSArray").Abstract || !rt.MustClass("NSMutableArray").Abstract {
		t.Error("NSArray and NSMutableArray should be abstract")
	}

	// Registering again is a no-op.
	n := rt.Classes.Len()
	Register(rt)
	if rt.Classes.Len() != n {
		t.Errorf("re-registration changed class count %d -> %d", n, rt.Classes.Len())
	}
}

// ---------------------------------------------------------------------------
// NSObject
// ---------------------------------------------------------------------------

func TestNSObjectLifecycle(t *testing.T) {
	rt := newTestRuntime(t)
	nsobject := rt.MustClass("NSObject")

	obj := objc.ID(rt.SendClass("NSObject", "new"))
	if rt.ClassOf(obj) != nsobject {
		t.Fatalf("+new made a %s", rt.ClassOf(obj).Name)
	}
	if got := rt.SendID(obj, "retain"); got != obj {
		t.Errorf("-retain returned %s", got)
	}
	if n := rt.Send(obj, "retainCount"); n != 2 {
		t.Errorf("retainCount = %d, want 2", n)
	}
	rt.Send(obj, "release")
	rt.Send(obj, "release")
	if rt.IsLive(obj) {
		t.Error("object should be deallocated")
	}
}

func TestNSObjectIntrospection(t *testing.T) {
	rt := newTestRuntime(t)
	nsobject := rt.MustClass("NSObject")
	obj := rt.SendID(rt.SendID(nsobject.ID, "alloc"), "init")

	if rt.SendID(obj, "class") != nsobject.ID {
		t.Error("-class wrong")
	}
	if rt.SendID(nsobject.ID, "class") != nsobject.ID {
		t.Error("+class wrong")
	}
	if rt.SendID(obj, "self") != obj {
		t.Error("-self wrong")
	}
	if rt.Send(obj, "isKindOfClass:", nsobject.ID.Word()) != 1 {
		t.Error("object should be kind of NSObject")
	}
	if rt.Send(obj, "isKindOfClass:", rt.MustClass("NSArray").ID.Word()) != 0 {
		t.Error("object is not an NSArray")
	}
	sel := rt.Selectors.Intern("hash")
	if rt.Send(obj, "respondsToSelector:", objc.Word(sel)) != 1 {
		t.Error("object should respond to -hash")
	}
	missing := rt.Selectors.Intern("frobnicate")
	if rt.Send(obj, "respondsToSelector:", objc.Word(missing)) != 0 {
		t.Error("object should not respond to -frobnicate")
	}
	if rt.Send(obj, "isEqual:", obj.Word()) != 1 || rt.Send(obj, "hash") != obj.Word() {
		t.Error("identity equality wrong")
	}

	// Classes answer the root instance protocol.
	if rt.Send(nsobject.ID, "retainCount") != ^uint32(0) {
		t.Error("classes should report the maximum retain count")
	}
}

// ---------------------------------------------------------------------------
// NSAutoreleasePool
// ---------------------------------------------------------------------------

func TestAutoreleasePoolObject(t *testing.T) {
	rt := newTestRuntime(t)
	pool := objc.ID(rt.SendClass("NSAutoreleasePool", "new"))
	if rt.PoolDepth() != 1 {
		t.Fatalf("PoolDepth = %d, want 1", rt.PoolDepth())
	}

	n := objc.ID(rt.SendClass("NSNumber", "numberWithInt:", 7))
	if rt.RetainCount(n) != 1 {
		t.Errorf("autoreleased number has count %d", rt.RetainCount(n))
	}
	rt.Send(pool, "drain")

	if rt.IsLive(n) || rt.IsLive(pool) {
		t.Error("drain should free the pool and its contents")
	}
	if rt.PoolDepth() != 0 {
		t.Errorf("PoolDepth = %d, want 0", rt.PoolDepth())
	}
}

func TestAutoreleasePoolNesting(t *testing.T) {
	rt := newTestRuntime(t)
	outer := objc.ID(rt.SendClass("NSAutoreleasePool", "new"))
	inner := objc.ID(rt.SendClass("NSAutoreleasePool", "new"))

	expectFatal(t, objc.FatalPoolMismatch, func() { rt.Send(outer, "drain") })

	rt.Send(inner, "release")
	rt.Send(outer, "release")
	if rt.PoolDepth() != 0 || rt.LiveObjects() != 0 {
		t.Error("pools not closed")
	}
}

func TestAutoreleasePoolCannotBeRetained(t *testing.T) {
	rt := newTestRuntime(t)
	pool := objc.ID(rt.SendClass("NSAutoreleasePool", "new"))
	expectFatal(t, objc.FatalBadCall, func() { rt.Send(pool, "retain") })
	expectFatal(t, objc.FatalBadCall, func() { rt.Send(pool, "autorelease") })
}

// ---------------------------------------------------------------------------
// NSNumber
// ---------------------------------------------------------------------------

func TestNSNumber(t *testing.T) {
	rt := newTestRuntime(t)
	a := number(rt, -5)
	b := number(rt, -5)
	c := number(rt, 6)

	if v := int32(rt.Send(a, "intValue")); v != -5 {
		t.Errorf("intValue = %d, want -5", v)
	}
	if rt.Send(a, "isEqual:", b.Word()) != 1 {
		t.Error("equal numbers should be isEqual:")
	}
	if rt.Send(a, "isEqual:", c.Word()) != 0 {
		t.Error("different numbers compared equal")
	}
	obj := objc.ID(rt.SendClass("NSObject", "new"))
	if rt.Send(a, "isEqual:", obj.Word()) != 0 {
		t.Error("number equal to a plain object")
	}
	if rt.Send(a, "hash") != rt.Send(b, "hash") {
		t.Error("equal numbers should hash alike")
	}
	if cp := rt.SendID(a, "copy"); cp != a || rt.RetainCount(a) != 2 {
		t.Error("copying a number should retain it")
	}
}
