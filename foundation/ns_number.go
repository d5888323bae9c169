package foundation

import (
	"github.com/Doodledash6/touchHLE/archive"
	"github.com/Doodledash6/touchHLE/objc"
)

type numberHost struct {
	value int32
}

func nsNumber() objc.ClassSpec {
	return objc.ClassSpec{
		Name:       "NSNumber",
		Superclass: "NSObject",
		ClassMethods: objc.Methods(
			objc.NewMethod1("allocWithZone:", func(rt *objc.Runtime, this objc.ID, _ objc.Word) objc.Word {
				return rt.Allocate(rt.ClassByID(this), &numberHost{}).Word()
			}),
			objc.NewMethod1("numberWithInt:", func(rt *objc.Runtime, this objc.ID, v objc.Word) objc.Word {
				n := rt.SendID(rt.SendID(this, "alloc"), "initWithInt:", v)
				return rt.Autorelease(n).Word()
			}),
		),
		InstanceMethods: objc.Methods(
			objc.NewMethod1("initWithInt:", func(rt *objc.Runtime, this objc.ID, v objc.Word) objc.Word {
				objc.WithHostMut(rt, this, func(h *numberHost) { h.value = int32(v) })
				return this.Word()
			}),
			objc.NewMethod0("intValue", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return objc.Word(IntValue(rt, this))
			}),
			objc.NewMethod1("isEqual:", func(rt *objc.Runtime, this objc.ID, other objc.Word) objc.Word {
				o := objc.ID(other)
				if o == this {
					return objc.Bool(true)
				}
				if !objc.HostIs[*numberHost](rt, o) {
					return objc.Bool(false)
				}
				return objc.Bool(IntValue(rt, this) == IntValue(rt, o))
			}),
			objc.NewMethod0("hash", func(rt *objc.Runtime, this objc.ID) objc.Word {
				return objc.Word(IntValue(rt, this))
			}),
			objc.NewMethod1("copyWithZone:", func(rt *objc.Runtime, this objc.ID, _ objc.Word) objc.Word {
				return rt.Retain(this).Word()
			}),
			objc.NewMethod1("initWithCoder:", func(rt *objc.Runtime, this objc.ID, coder objc.Word) objc.Word {
				v := archive.DecodeCurrentInt(rt, objc.ID(coder))
				objc.WithHostMut(rt, this, func(h *numberHost) { h.value = v })
				return this.Word()
			}),
			objc.NewMethod1("encodeWithCoder:", func(rt *objc.Runtime, this objc.ID, coder objc.Word) objc.Word {
				archive.EncodeInt(rt, objc.ID(coder), IntValue(rt, this))
				return 0
			}),
		),
	}
}

// IntValue reads an NSNumber's value without a send.
func IntValue(rt *objc.Runtime, number objc.ID) int32 {
	var v int32
	objc.WithHost(rt, number, func(h *numberHost) { v = h.value })
	return v
}
