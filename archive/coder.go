package archive

import (
	"github.com/Doodledash6/touchHLE/objc"
)

// Class names of the coder objects.
const (
	CoderClass      = "NSCoder"
	UnarchiverClass = "NSKeyedUnarchiver"
	ArchiverClass   = "NSKeyedArchiver"
)

// Classes returns the coder class declarations. They descend from NSObject,
// which must be registered in the same batch or earlier.
func Classes() []objc.ClassSpec {
	return []objc.ClassSpec{
		{
			Name:       CoderClass,
			Superclass: "NSObject",
			Abstract:   true,
			InstanceMethods: objc.Methods(
				objc.NewMethod0("allowsKeyedCoding", func(*objc.Runtime, objc.ID) objc.Word {
					return objc.Bool(true)
				}),
			),
		},
		{
			Name:       UnarchiverClass,
			Superclass: CoderClass,
			InstanceMethods: objc.Methods(
				objc.NewMethod0("decodeInt32", func(rt *objc.Runtime, this objc.ID) objc.Word {
					return objc.Word(DecodeCurrentInt(rt, this))
				}),
			),
		},
		{
			Name:       ArchiverClass,
			Superclass: CoderClass,
			InstanceMethods: objc.Methods(
				objc.NewMethod1("encodeInt32:", func(rt *objc.Runtime, this objc.ID, v objc.Word) objc.Word {
					EncodeInt(rt, this, int32(v))
					return 0
				}),
			),
		},
	}
}

// unarchiverHost is the backing state of an NSKeyedUnarchiver.
type unarchiverHost struct {
	doc     *Document
	decoded map[UID]objc.ID
	current []UID // records whose -initWithCoder: is running, innermost last
}

func (h *unarchiverHost) record() *Record {
	if len(h.current) == 0 {
		objc.Fatalf(objc.FatalBadCall, "coder is not decoding an object")
	}
	return &h.doc.Objects[h.current[len(h.current)-1]]
}

// archiverHost is the backing state of an NSKeyedArchiver.
type archiverHost struct {
	doc     Document
	uids    map[objc.ID]UID
	current []UID
	err     error
}

func (h *archiverHost) record() *Record {
	if len(h.current) == 0 {
		objc.Fatalf(objc.FatalBadCall, "coder is not encoding an object")
	}
	return &h.doc.Objects[h.current[len(h.current)-1]]
}
