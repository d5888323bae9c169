package objc

import (
	"github.com/Doodledash6/touchHLE/mem"
)

// weakTable tracks guest memory slots holding zeroing weak references.
type weakTable struct {
	slots    map[mem.Ptr]ID
	byTarget map[ID]map[mem.Ptr]struct{}
}

func newWeakTable() weakTable {
	return weakTable{
		slots:    make(map[mem.Ptr]ID),
		byTarget: make(map[ID]map[mem.Ptr]struct{}),
	}
}

func (w *weakTable) unlink(slot mem.Ptr) {
	old, ok := w.slots[slot]
	if !ok {
		return
	}
	delete(w.slots, slot)
	if set := w.byTarget[old]; set != nil {
		delete(set, slot)
		if len(set) == 0 {
			delete(w.byTarget, old)
		}
	}
}

// StoreWeak writes id into the guest word at slot without retaining it and
// registers the slot to be zeroed when id is deallocated. Storing nil
// unregisters the slot.
func (rt *Runtime) StoreWeak(slot mem.Ptr, id ID) ID {
	rt.weak.unlink(slot)
	if id != Nil && !rt.IsClass(id) {
		rt.entry(id)
		rt.weak.slots[slot] = id
		set := rt.weak.byTarget[id]
		if set == nil {
			set = make(map[mem.Ptr]struct{})
			rt.weak.byTarget[id] = set
		}
		set[slot] = struct{}{}
	}
	mem.Write(rt.Mem, slot, id)
	return id
}

// LoadWeak reads the weak reference at slot. A reference to a deallocated
// object reads as nil.
func (rt *Runtime) LoadWeak(slot mem.Ptr) ID {
	return mem.Read[ID](rt.Mem, slot)
}

// DestroyWeak unregisters slot before its storage goes away.
func (rt *Runtime) DestroyWeak(slot mem.Ptr) {
	rt.weak.unlink(slot)
}

// WeakSlots returns the number of registered weak slots.
func (rt *Runtime) WeakSlots() int {
	return len(rt.weak.slots)
}

func (rt *Runtime) clearWeak(id ID) {
	set := rt.weak.byTarget[id]
	for slot := range set {
		mem.Write(rt.Mem, slot, Nil)
		delete(rt.weak.slots, slot)
	}
	delete(rt.weak.byTarget, id)
}
