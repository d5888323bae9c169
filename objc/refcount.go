package objc

// Retain increments id's retain count and returns id. Nil and class
// identities are returned unchanged.
func (rt *Runtime) Retain(id ID) ID {
	if id == Nil || rt.IsClass(id) {
		return id
	}
	e := rt.entry(id)
	if e.deallocating {
		Fatalf(FatalDeadObject, "retain of %s (%s) during deallocation", id, e.class.Name)
	}
	e.refCount++
	return id
}

// Release decrements id's retain count. At zero the object's -dealloc runs
// and the object is deallocated. Releasing an object whose count is already
// zero is fatal.
func (rt *Runtime) Release(id ID) {
	if id == Nil || rt.IsClass(id) {
		return
	}
	e := rt.entry(id)
	if e.refCount == 0 {
		Fatalf(FatalOverRelease, "release of %s (%s) with retain count 0", id, e.class.Name)
	}
	e.refCount--
	if e.refCount == 0 {
		rt.destroy(id, e)
	}
}

// RetainCount returns id's current retain count. Classes report the maximum
// count, as they are never deallocated.
func (rt *Runtime) RetainCount(id ID) uint32 {
	if rt.IsClass(id) {
		return ^uint32(0)
	}
	return rt.entry(id).refCount
}

// destroy runs teardown for an object whose count reached zero. The
// class's -dealloc releases what the host state owns; when it chains up to
// a root that already deallocates, nothing is left to do here.
func (rt *Runtime) destroy(id ID, e *objectEntry) {
	e.deallocating = true
	if m, _ := rt.Resolve(e.class, rt.selDealloc, false); m != nil {
		rt.Dispatch(Message{Receiver: id, Selector: rt.selDealloc})
	}
	if cur, ok := rt.objects[id]; ok && cur == e {
		rt.Deallocate(id)
	}
}
