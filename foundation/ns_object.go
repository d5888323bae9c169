package foundation

import (
	"github.com/Doodledash6/touchHLE/objc"
)

func nsObject() objc.ClassSpec {
	return objc.ClassSpec{
		Name: "NSObject",
		ClassMethods: objc.Methods(
			objc.NewMethod0("alloc", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.Send(this, "allocWithZone:", 0)
			}),
			objc.NewMethod1("allocWithZone:", func(rt *objc.Runtime, this objc.ID, _ objc.Word) objc.Word {
				return rt.Allocate(rt.ClassByID(this), nil).Word()
			}),
			objc.NewMethod0("new", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.Send(rt.SendID(this, "alloc"), "init")
			}),
			objc.NewMethod0("class", func(_ *objc.Runtime, this objc.ID) objc.Word {
				return this.Word()
			}),
		),
		InstanceMethods: objc.Methods(
			objc.NewMethod0("init", func(_ *objc.Runtime, this objc.ID) objc.Word {
				return this.Word()
			}),
			objc.NewMethod0("self", func(_ *objc.Runtime, this objc.ID) objc.Word {
				return this.Word()
			}),
			objc.NewMethod0("class", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.ClassOf(this).ID.Word()
			}),
			objc.NewMethod0("retain", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.Retain(this).Word()
			}),
			objc.NewMethod0("release", func(rt *objc.Runtime, this objc.ID) objc.Word {
				rt.Release(this)
				return 0
			}),
			objc.NewMethod0("autorelease", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.Autorelease(this).Word()
			}),
			objc.NewMethod0("retainCount", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.RetainCount(this)
			}),
			objc.NewMethod0("dealloc", func(rt *objc.Runtime, this objc.ID) objc.Word {
				rt.Deallocate(this)
				return 0
			}),
			objc.NewMethod1("isEqual:", func(_ *objc.Runtime, this objc.ID, other objc.Word) objc.Word {
				return objc.Bool(this.Word() == other)
			}),
			objc.NewMethod0("hash", func(_ *objc.Runtime, this objc.ID) objc.Word {
				return this.Word()
			}),
			// Selectors cross the boundary as interned SEL values.
			objc.NewMethod1("respondsToSelector:", func(rt *objc.Runtime, this objc.ID, sel objc.Word) objc.Word {
				name := rt.Selectors.Name(objc.SEL(sel))
				return objc.Bool(name != "" && rt.RespondsTo(this, name))
			}),
			objc.NewMethod1("isKindOfClass:", func(rt *objc.Runtime, this objc.ID, class objc.Word) objc.Word {
				c := rt.Classes.ByID(objc.ID(class))
				return objc.Bool(c != nil && rt.IsKindOf(this, c))
			}),
			objc.NewMethod0("copy", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.Send(this, "copyWithZone:", 0)
			}),
			objc.NewMethod0("mutableCopy", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.Send(this, "mutableCopyWithZone:", 0)
			}),
		),
	}
}
