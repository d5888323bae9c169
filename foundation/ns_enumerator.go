package foundation

import (
	"github.com/Doodledash6/touchHLE/objc"
)

const objectEnumeratorClass = "_touchHLE_NSArray_ObjectEnumerator"

// enumeratorHost walks a snapshot of an array's elements. The array is
// retained so the elements stay alive while enumeration runs.
type enumeratorHost struct {
	array objc.ID
	items []objc.ID
	next  int
}

func nsEnumerator() objc.ClassSpec {
	return objc.ClassSpec{
		Name:       "NSEnumerator",
		Superclass: "NSObject",
		Abstract:   true,
		InstanceMethods: objc.Methods(
			objc.NewMethod0("allObjects", func(rt *objc.Runtime, this objc.ID) objc.Word {
				var rest []objc.ID
				for {
					obj := rt.SendID(this, "nextObject")
					if obj == objc.Nil {
						break
					}
					rest = append(rest, rt.Retain(obj))
				}
				return rt.Autorelease(ArrayFromIDs(rt, rest)).Word()
			}),
		),
	}
}

func objectEnumerator() objc.ClassSpec {
	return objc.ClassSpec{
		Name:       objectEnumeratorClass,
		Superclass: "NSEnumerator",
		InstanceMethods: objc.Methods(
			objc.NewMethod0("nextObject", func(rt *objc.Runtime, this objc.ID) objc.Word {
				next := objc.Nil
				objc.WithHostMut(rt, this, func(h *enumeratorHost) {
					if h.next < len(h.items) {
						next = h.items[h.next]
						h.next++
					}
				})
				return next.Word()
			}),
			objc.NewMethod("dealloc", func(rt *objc.Runtime, call *objc.Call) objc.Word {
				var array objc.ID
				objc.WithHostMut(rt, call.Receiver, func(h *enumeratorHost) {
					array, h.array, h.items = h.array, objc.Nil, nil
				})
				rt.Release(array)
				return call.Super(rt)
			}),
		),
	}
}

func newObjectEnumerator(rt *objc.Runtime, array objc.ID, items []objc.ID) objc.ID {
	e := rt.Allocate(rt.MustClass(objectEnumeratorClass), &enumeratorHost{
		array: rt.Retain(array),
		items: items,
	})
	return rt.Autorelease(e)
}
