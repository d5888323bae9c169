package objc

import (
	"github.com/Doodledash6/touchHLE/mem"
)

// TrivialHostObject is the host state of objects that need none.
type TrivialHostObject struct{}

// objectEntry is the store's record for one live instance.
type objectEntry struct {
	class        *Class
	host         any
	refCount     uint32
	shared       int  // outstanding shared borrows
	exclusive    bool // an exclusive borrow is outstanding
	deallocating bool // refCount reached zero, teardown running
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

// Allocate mints an identity for a new instance of class with host as its
// backing state, and sets its retain count to 1. A nil host stores a
// TrivialHostObject.
func (rt *Runtime) Allocate(class *Class, host any) ID {
	if class == nil {
		Fatalf(FatalBadClass, "allocate with nil class")
	}
	if class.Abstract {
		Fatalf(FatalBadClass, "cannot allocate abstract class %s", class.Name)
	}
	if host == nil {
		host = &TrivialHostObject{}
	}

	p := rt.Mem.Alloc(headerSize, headerSize)
	mem.Write(rt.Mem, p, class.ID)
	id := ID(p)
	delete(rt.dead, id)
	rt.objects[id] = &objectEntry{class: class, host: host, refCount: 1}

	rt.notifyAllocated(id, class)
	return id
}

// Deallocate destroys an instance: weak references to it are zeroed, its
// host state is dropped and its identity becomes invalid. Any teardown of
// the host state (releasing inner objects) must already have happened.
func (rt *Runtime) Deallocate(id ID) {
	e, ok := rt.objects[id]
	if !ok {
		if _, wasFreed := rt.dead[id]; wasFreed {
			Fatalf(FatalDoubleFree, "%s deallocated twice", id)
		}
		Fatalf(FatalDeadObject, "deallocate of unknown identity %s", id)
	}
	if e.exclusive || e.shared > 0 {
		Fatalf(FatalBorrowConflict, "%s (%s) deallocated while borrowed", id, e.class.Name)
	}

	rt.clearWeak(id)
	delete(rt.objects, id)
	rt.dead[id] = struct{}{}
	rt.Mem.Free(id.Ptr())

	log.Debugf("deallocated %s (%s)", id, e.class.Name)
	rt.notifyDeallocated(id, e.class)
}

// IsLive reports whether id names a live instance or a class.
func (rt *Runtime) IsLive(id ID) bool {
	if _, ok := rt.objects[id]; ok {
		return true
	}
	return rt.Classes.ByID(id) != nil
}

// IsClass reports whether id names a class.
func (rt *Runtime) IsClass(id ID) bool {
	return rt.Classes.ByID(id) != nil
}

// ClassOf returns the dynamic class of an instance, or the class itself for a
// class identity. A dead identity is fatal.
func (rt *Runtime) ClassOf(id ID) *Class {
	c, _ := rt.classFor(id)
	return c
}

// classFor resolves the dispatch class for a receiver and whether the send
// is class-side.
func (rt *Runtime) classFor(id ID) (*Class, bool) {
	if e, ok := rt.objects[id]; ok {
		return e.class, false
	}
	if c := rt.Classes.ByID(id); c != nil {
		return c, true
	}
	if _, wasFreed := rt.dead[id]; wasFreed {
		Fatalf(FatalDeadObject, "message to deallocated object %s", id)
	}
	Fatalf(FatalDeadObject, "message to unknown identity %s", id)
	return nil, false
}

func (rt *Runtime) entry(id ID) *objectEntry {
	e, ok := rt.objects[id]
	if !ok {
		if rt.IsClass(id) {
			Fatalf(FatalWrongType, "%s is a class and has no host object", id)
		}
		Fatalf(FatalDeadObject, "%s is not a live object", id)
	}
	return e
}

// ---------------------------------------------------------------------------
// Borrowing
// ---------------------------------------------------------------------------

func hostAs[T any](id ID, e *objectEntry) T {
	h, ok := e.host.(T)
	if !ok {
		var want T
		Fatalf(FatalWrongType, "%s (%s) has host object %T, borrowed as %T", id, e.class.Name, e.host, want)
	}
	return h
}

// Borrow takes a shared borrow of id's host object as T. The borrow lasts
// until the returned release function is called. Borrowing while an
// exclusive borrow is outstanding, or as the wrong type, is fatal.
func Borrow[T any](rt *Runtime, id ID) (T, func()) {
	e := rt.entry(id)
	if e.exclusive {
		Fatalf(FatalBorrowConflict, "%s (%s) borrowed while exclusively borrowed", id, e.class.Name)
	}
	h := hostAs[T](id, e)
	e.shared++
	released := false
	return h, func() {
		if !released {
			released = true
			e.shared--
		}
	}
}

// BorrowMut takes an exclusive borrow of id's host object as T. Any other
// borrow of the same object before release is fatal, which is how a
// reentrant send into an object that is mid-mutation fails fast.
func BorrowMut[T any](rt *Runtime, id ID) (T, func()) {
	e := rt.entry(id)
	if e.exclusive || e.shared > 0 {
		Fatalf(FatalBorrowConflict, "%s (%s) exclusively borrowed while already borrowed", id, e.class.Name)
	}
	h := hostAs[T](id, e)
	e.exclusive = true
	released := false
	return h, func() {
		if !released {
			released = true
			e.exclusive = false
		}
	}
}

// WithHost runs fn under a shared borrow.
func WithHost[T any](rt *Runtime, id ID, fn func(T)) {
	h, release := Borrow[T](rt, id)
	defer release()
	fn(h)
}

// WithHostMut runs fn under an exclusive borrow. fn must not send messages
// that could reach id.
func WithHostMut[T any](rt *Runtime, id ID, fn func(T)) {
	h, release := BorrowMut[T](rt, id)
	defer release()
	fn(h)
}

// HostIs reports whether id is a live instance whose host object is a T.
func HostIs[T any](rt *Runtime, id ID) bool {
	e, ok := rt.objects[id]
	if !ok {
		return false
	}
	_, ok = e.host.(T)
	return ok
}
