package foundation

import (
	"github.com/Doodledash6/touchHLE/objc"
)

type poolHost struct {
	token objc.PoolToken
	open  bool
}

// An NSAutoreleasePool object pushes a runtime pool in -init and pops it
// when released or drained. Pools nest strictly, so only the innermost
// pool object may be drained.
func nsAutoreleasePool() objc.ClassSpec {
	return objc.ClassSpec{
		Name:       "NSAutoreleasePool",
		Superclass: "NSObject",
		ClassMethods: objc.Methods(
			objc.NewMethod1("allocWithZone:", func(rt *objc.Runtime, this objc.ID, _ objc.Word) objc.Word {
				return rt.Allocate(rt.ClassByID(this), &poolHost{}).Word()
			}),
		),
		InstanceMethods: objc.Methods(
			objc.NewMethod0("init", func(rt *objc.Runtime, this objc.ID) objc.Word {
				tok := rt.PushPool()
				objc.WithHostMut(rt, this, func(h *poolHost) {
					h.token, h.open = tok, true
				})
				return this.Word()
			}),
			objc.NewMethod0("drain", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return rt.Send(this, "release")
			}),
			objc.NewMethod("release", func(rt *objc.Runtime, call *objc.Call) objc.Word {
				var (
					tok  objc.PoolToken
					open bool
				)
				objc.WithHost(rt, call.Receiver, func(h *poolHost) {
					tok, open = h.token, h.open
				})
				if open {
					rt.PopPool(tok)
					objc.WithHostMut(rt, call.Receiver, func(h *poolHost) { h.open = false })
				}
				return call.Super(rt)
			}),
			objc.NewMethod0("retain", func(_ *objc.Runtime, this objc.ID) objc.Word {
				objc.Fatalf(objc.FatalBadCall, "cannot retain an autorelease pool %s", this)
				return 0
			}),
			objc.NewMethod0("autorelease", func(_ *objc.Runtime, this objc.ID) objc.Word {
				objc.Fatalf(objc.FatalBadCall, "cannot autorelease an autorelease pool %s", this)
				return 0
			}),
		),
	}
}
