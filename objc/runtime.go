// Package objc is the guest object runtime: object identities backed by host
// state, a class and selector registry, manual reference counting with
// autorelease pools, message dispatch, and the fast-enumeration protocol.
//
// A Runtime is driven by one logical thread. Handlers run to completion and
// may send further messages; the borrow checks in the host-object store turn
// reentrancy mistakes into immediate fatal errors instead of silent
// corruption.
package objc

import (
	"github.com/Doodledash6/touchHLE/mem"
)

// Runtime is one guest object world.
type Runtime struct {
	Mem       *mem.Mem
	Selectors *SelectorTable
	Classes   *ClassTable

	// Unimplemented decides what happens when a selector resolves nowhere.
	// Nil means the send is fatal.
	Unimplemented UnimplementedPolicy

	objects   map[ID]*objectEntry
	dead      map[ID]struct{}
	resolved  map[resolveKey]resolveEntry
	pools     []*autoreleasePool
	weak      weakTable
	observers []Observer

	selDealloc SEL
}

// New creates an empty runtime on top of m. No classes are registered.
func New(m *mem.Mem) *Runtime {
	rt := &Runtime{
		Mem:       m,
		Selectors: NewSelectorTable(),
		Classes:   NewClassTable(),
		objects:   make(map[ID]*objectEntry),
		dead:      make(map[ID]struct{}),
		resolved:  make(map[resolveKey]resolveEntry),
		weak:      newWeakTable(),
	}
	rt.selDealloc = rt.Selectors.Intern("dealloc")
	return rt
}

// LiveObjects returns the number of allocated, not yet deallocated objects.
// Classes are not counted.
func (rt *Runtime) LiveObjects() int {
	return len(rt.objects)
}

// Observe registers an observer for allocation, deallocation and send events.
func (rt *Runtime) Observe(o Observer) {
	rt.observers = append(rt.observers, o)
}
