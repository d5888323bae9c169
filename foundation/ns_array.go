package foundation

import (
	"slices"

	"github.com/Doodledash6/touchHLE/archive"
	"github.com/Doodledash6/touchHLE/mem"
	"github.com/Doodledash6/touchHLE/objc"
)

// NSArray and NSMutableArray are abstract; allocation is redirected to these
// private classes, which hold the elements.
const (
	concreteArrayClass     = "_touchHLE_NSArray"
	concreteMutableClass   = "_touchHLE_NSMutableArray"
	nonRetainingArrayClass = "_touchHLE_NSMutableArray_non_retaining"
)

// arrayHost is the backing state of every concrete array. Elements are
// retained by the array unless nonRetaining is set, which serves callers
// storing values that are not necessarily objects.
type arrayHost struct {
	items        []objc.ID
	nonRetaining bool
}

func (h *arrayHost) own(rt *objc.Runtime, id objc.ID) objc.ID {
	if !h.nonRetaining {
		rt.Retain(id)
	}
	return id
}

func disown(rt *objc.Runtime, nonRetaining bool, ids ...objc.ID) {
	if nonRetaining {
		return
	}
	for _, id := range ids {
		rt.Release(id)
	}
}

// replaceAll installs items as the elements of array. Unless owned is set
// each item is retained first. Previous elements are released after the
// borrow ends, since their -dealloc may send further messages.
func replaceAll(rt *objc.Runtime, array objc.ID, items []objc.ID, owned bool) {
	var (
		old []objc.ID
		nr  bool
	)
	objc.WithHostMut(rt, array, func(h *arrayHost) {
		if !owned {
			for _, id := range items {
				h.own(rt, id)
			}
		}
		old, h.items, nr = h.items, items, h.nonRetaining
	})
	disown(rt, nr, old...)
}

// ArrayFromIDs makes a mutable array holding ids, which must already be
// retained on the array's behalf. The caller owns the array (+1).
func ArrayFromIDs(rt *objc.Runtime, ids []objc.ID) objc.ID {
	array := rt.SendID(rt.MustClass("NSMutableArray").ID, "alloc")
	replaceAll(rt, array, slices.Clone(ids), true)
	return array
}

// ArrayToIDs returns a copy of a concrete array's elements. No references
// are transferred.
func ArrayToIDs(rt *objc.Runtime, array objc.ID) []objc.ID {
	var out []objc.ID
	objc.WithHost(rt, array, func(h *arrayHost) { out = slices.Clone(h.items) })
	return out
}

// elements snapshots any array's contents, going through -count and
// -objectAtIndex: for arrays that are not backed by an arrayHost.
func elements(rt *objc.Runtime, array objc.ID) []objc.ID {
	if objc.HostIs[*arrayHost](rt, array) {
		return ArrayToIDs(rt, array)
	}
	n := rt.Send(array, "count")
	out := make([]objc.ID, 0, n)
	for i := objc.Word(0); i < n; i++ {
		out = append(out, rt.SendID(array, "objectAtIndex:", i))
	}
	return out
}

func checkIndex(array objc.ID, index objc.Word, count int) {
	if int(index) >= count {
		objc.Fatalf(objc.FatalOutOfBounds, "%s: index %d beyond bounds (count %d)", array, index, count)
	}
}

func newInstance(rt *objc.Runtime, class objc.ID) objc.ID {
	return rt.SendID(class, "alloc")
}

// ---------------------------------------------------------------------------
// NSArray
// ---------------------------------------------------------------------------

func nsArray() objc.ClassSpec {
	return objc.ClassSpec{
		Name:       "NSArray",
		Superclass: "NSObject",
		Abstract:   true,
		ClassMethods: objc.Methods(
			objc.NewMethod1("allocWithZone:", func(rt *objc.Runtime, _ objc.ID, zone objc.Word) objc.Word {
				return rt.Send(rt.MustClass(concreteArrayClass).ID, "allocWithZone:", zone)
			}),
			objc.NewMethod0("array", func(rt *objc.Runtime, this objc.ID) objc.Word {
				a := rt.SendID(newInstance(rt, this), "init")
				return rt.Autorelease(a).Word()
			}),
			objc.NewMethod1("arrayWithArray:", func(rt *objc.Runtime, this objc.ID, other objc.Word) objc.Word {
				a := rt.SendID(newInstance(rt, this), "initWithArray:", other)
				return rt.Autorelease(a).Word()
			}),
			objc.NewMethod1("arrayWithObject:", func(rt *objc.Runtime, this objc.ID, obj objc.Word) objc.Word {
				a := objc.ID(rt.SendVariadic(newInstance(rt, this), "initWithObjects:", []objc.Word{obj}, objc.ObjectList()))
				return rt.Autorelease(a).Word()
			}),
			objc.NewVariadicMethod("arrayWithObjects:", func(rt *objc.Runtime, this objc.ID, first objc.ID, rest *objc.VarArgs) objc.Word {
				var items []objc.ID
				if first != objc.Nil {
					items = rest.Collect()
				}
				a := objc.ID(rt.SendVariadic(newInstance(rt, this), "initWithObjects:",
					[]objc.Word{first.Word()}, objc.ObjectList(items...)))
				return rt.Autorelease(a).Word()
			}),
		),
		InstanceMethods: objc.Methods(
			objc.NewMethod1("initWithArray:", func(rt *objc.Runtime, this objc.ID, other objc.Word) objc.Word {
				replaceAll(rt, this, elements(rt, objc.ID(other)), false)
				return this.Word()
			}),
			objc.NewVariadicMethod("initWithObjects:", func(rt *objc.Runtime, this objc.ID, first objc.ID, rest *objc.VarArgs) objc.Word {
				var items []objc.ID
				if first != objc.Nil {
					items = append([]objc.ID{first}, rest.Collect()...)
				}
				replaceAll(rt, this, items, false)
				return this.Word()
			}),
			objc.NewMethod1("copyWithZone:", func(rt *objc.Runtime, this objc.ID, _ objc.Word) objc.Word {
				return rt.Retain(this).Word()
			}),
			objc.NewMethod1("mutableCopyWithZone:", func(rt *objc.Runtime, this objc.ID, _ objc.Word) objc.Word {
				a := newInstance(rt, rt.MustClass("NSMutableArray").ID)
				return rt.Send(a, "initWithArray:", this.Word())
			}),
			objc.NewMethod0("lastObject", func(rt *objc.Runtime, this objc.ID) objc.Word {
				n := rt.Send(this, "count")
				if n == 0 {
					return objc.Nil.Word()
				}
				return rt.Send(this, "objectAtIndex:", n-1)
			}),
			objc.NewMethod1("indexOfObject:", func(rt *objc.Runtime, this objc.ID, needle objc.Word) objc.Word {
				return indexOf(rt, this, objc.ID(needle))
			}),
			objc.NewMethod1("containsObject:", func(rt *objc.Runtime, this objc.ID, needle objc.Word) objc.Word {
				return objc.Bool(indexOf(rt, this, objc.ID(needle)) != NSNotFound)
			}),
			objc.NewMethod0("objectEnumerator", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return newObjectEnumerator(rt, this, elements(rt, this)).Word()
			}),
			objc.NewMethod3("countByEnumeratingWithState:objects:count:", countByEnumerating),
			objc.NewMethod1("encodeWithCoder:", func(rt *objc.Runtime, this objc.ID, coder objc.Word) objc.Word {
				archive.EncodeArray(rt, objc.ID(coder), elements(rt, this))
				return 0
			}),
		),
	}
}

func indexOf(rt *objc.Runtime, array, needle objc.ID) objc.Word {
	for i, obj := range elements(rt, array) {
		if obj == needle || rt.Send(needle, "isEqual:", obj.Word()) != 0 {
			return objc.Word(i)
		}
	}
	return NSNotFound
}

func countByEnumerating(rt *objc.Runtime, this objc.ID, state, stackbuf, count objc.Word) objc.Word {
	if !objc.HostIs[*arrayHost](rt, this) {
		return objc.FastEnumerate(rt, this, elements(rt, this), mem.Ptr(state), mem.Ptr(stackbuf), count)
	}
	var n objc.Word
	objc.WithHost(rt, this, func(h *arrayHost) {
		n = objc.FastEnumerate(rt, this, h.items, mem.Ptr(state), mem.Ptr(stackbuf), count)
	})
	return n
}

// ---------------------------------------------------------------------------
// NSMutableArray
// ---------------------------------------------------------------------------

func nsMutableArray() objc.ClassSpec {
	return objc.ClassSpec{
		Name:       "NSMutableArray",
		Superclass: "NSArray",
		Abstract:   true,
		ClassMethods: objc.Methods(
			objc.NewMethod1("allocWithZone:", func(rt *objc.Runtime, _ objc.ID, zone objc.Word) objc.Word {
				return rt.Send(rt.MustClass(concreteMutableClass).ID, "allocWithZone:", zone)
			}),
			objc.NewMethod1("arrayWithCapacity:", func(rt *objc.Runtime, this objc.ID, capacity objc.Word) objc.Word {
				a := rt.SendID(newInstance(rt, this), "initWithCapacity:", capacity)
				return rt.Autorelease(a).Word()
			}),
		),
		InstanceMethods: objc.Methods(
			objc.NewMethod1("copyWithZone:", func(rt *objc.Runtime, this objc.ID, _ objc.Word) objc.Word {
				a := newInstance(rt, rt.MustClass("NSArray").ID)
				return rt.Send(a, "initWithArray:", this.Word())
			}),
			objc.NewMethod1("addObjectsFromArray:", func(rt *objc.Runtime, this objc.ID, other objc.Word) objc.Word {
				for _, obj := range elements(rt, objc.ID(other)) {
					rt.Send(this, "addObject:", obj.Word())
				}
				return 0
			}),
		),
	}
}

// ---------------------------------------------------------------------------
// Concrete classes
// ---------------------------------------------------------------------------

func allocArray(nonRetaining bool) objc.Method {
	return objc.NewMethod1("allocWithZone:", func(rt *objc.Runtime, this objc.ID, _ objc.Word) objc.Word {
		return rt.Allocate(rt.ClassByID(this), &arrayHost{nonRetaining: nonRetaining}).Word()
	})
}

// storageMethods are the primitives shared by both concrete classes.
func storageMethods() []objc.Method {
	return []objc.Method{
		objc.NewMethod1("initWithCoder:", func(rt *objc.Runtime, this objc.ID, coder objc.Word) objc.Word {
			objects := archive.DecodeCurrentArray(rt, objc.ID(coder))
			objc.WithHost(rt, this, func(h *arrayHost) {
				if len(h.items) != 0 {
					objc.Fatalf(objc.FatalBadCall, "%s: initWithCoder: on a non-empty array", this)
				}
			})
			replaceAll(rt, this, objects, true)
			return this.Word()
		}),
		objc.NewMethod("dealloc", func(rt *objc.Runtime, call *objc.Call) objc.Word {
			var (
				items []objc.ID
				nr    bool
			)
			objc.WithHostMut(rt, call.Receiver, func(h *arrayHost) {
				items, h.items, nr = h.items, nil, h.nonRetaining
			})
			disown(rt, nr, items...)
			return call.Super(rt)
		}),
		objc.NewMethod0("count", func(rt *objc.Runtime, this objc.ID) objc.Word {
			var n int
			objc.WithHost(rt, this, func(h *arrayHost) { n = len(h.items) })
			return objc.Word(n)
		}),
		objc.NewMethod1("objectAtIndex:", func(rt *objc.Runtime, this objc.ID, index objc.Word) objc.Word {
			var obj objc.ID
			objc.WithHost(rt, this, func(h *arrayHost) {
				checkIndex(this, index, len(h.items))
				obj = h.items[index]
			})
			return obj.Word()
		}),
	}
}

func concreteArray() objc.ClassSpec {
	return objc.ClassSpec{
		Name:            concreteArrayClass,
		Superclass:      "NSArray",
		ClassMethods:    objc.Methods(allocArray(false)),
		InstanceMethods: objc.Methods(storageMethods()...),
	}
}

func concreteMutableArray() objc.ClassSpec {
	methods := append(storageMethods(),
		objc.NewMethod1("initWithCapacity:", func(rt *objc.Runtime, this objc.ID, capacity objc.Word) objc.Word {
			objc.WithHostMut(rt, this, func(h *arrayHost) {
				h.items = slices.Grow(h.items, int(min(capacity, 1<<16)))
			})
			return this.Word()
		}),
		objc.NewMethod1("addObject:", func(rt *objc.Runtime, this objc.ID, obj objc.Word) objc.Word {
			objc.WithHostMut(rt, this, func(h *arrayHost) {
				h.items = append(h.items, h.own(rt, objc.ID(obj)))
			})
			return 0
		}),
		objc.NewMethod2("insertObject:atIndex:", func(rt *objc.Runtime, this objc.ID, obj, index objc.Word) objc.Word {
			objc.WithHostMut(rt, this, func(h *arrayHost) {
				checkIndex(this, index, len(h.items)+1)
				h.items = slices.Insert(h.items, int(index), h.own(rt, objc.ID(obj)))
			})
			return 0
		}),
		objc.NewMethod1("removeObjectAtIndex:", func(rt *objc.Runtime, this objc.ID, index objc.Word) objc.Word {
			var (
				old objc.ID
				nr  bool
			)
			objc.WithHostMut(rt, this, func(h *arrayHost) {
				checkIndex(this, index, len(h.items))
				old, nr = h.items[index], h.nonRetaining
				h.items = slices.Delete(h.items, int(index), int(index)+1)
			})
			disown(rt, nr, old)
			return 0
		}),
		objc.NewMethod0("removeLastObject", func(rt *objc.Runtime, this objc.ID) objc.Word {
			var (
				old objc.ID
				nr  bool
			)
			objc.WithHostMut(rt, this, func(h *arrayHost) {
				if len(h.items) == 0 {
					objc.Fatalf(objc.FatalOutOfBounds, "%s: removeLastObject on an empty array", this)
				}
				last := len(h.items) - 1
				old, nr = h.items[last], h.nonRetaining
				h.items = h.items[:last]
			})
			disown(rt, nr, old)
			return 0
		}),
		objc.NewMethod1("removeObject:", func(rt *objc.Runtime, this objc.ID, needle objc.Word) objc.Word {
			n := rt.Retain(objc.ID(needle))
			var kept, removed []objc.ID
			for _, obj := range ArrayToIDs(rt, this) {
				if obj == n || rt.Send(n, "isEqual:", obj.Word()) != 0 {
					removed = append(removed, obj)
				} else {
					kept = append(kept, obj)
				}
			}
			var nr bool
			objc.WithHostMut(rt, this, func(h *arrayHost) {
				h.items, nr = kept, h.nonRetaining
			})
			disown(rt, nr, removed...)
			rt.Release(n)
			return 0
		}),
		objc.NewMethod2("replaceObjectAtIndex:withObject:", func(rt *objc.Runtime, this objc.ID, index, obj objc.Word) objc.Word {
			var (
				old objc.ID
				nr  bool
			)
			objc.WithHostMut(rt, this, func(h *arrayHost) {
				checkIndex(this, index, len(h.items))
				old, nr = h.items[index], h.nonRetaining
				h.items[index] = h.own(rt, objc.ID(obj))
			})
			disown(rt, nr, old)
			return 0
		}),
		objc.NewMethod0("removeAllObjects", func(rt *objc.Runtime, this objc.ID) objc.Word {
			replaceAll(rt, this, nil, true)
			return 0
		}),
	)
	return objc.ClassSpec{
		Name:            concreteMutableClass,
		Superclass:      "NSMutableArray",
		ClassMethods:    objc.Methods(allocArray(false)),
		InstanceMethods: objc.Methods(methods...),
	}
}

// nonRetainingArray stores its elements without retaining them. Everything
// but allocation is inherited; the host flag does the rest.
func nonRetainingArray() objc.ClassSpec {
	return objc.ClassSpec{
		Name:         nonRetainingArrayClass,
		Superclass:   concreteMutableClass,
		ClassMethods: objc.Methods(allocArray(true)),
	}
}
