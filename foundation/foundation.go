// Package foundation implements the Foundation classes guest code talks to
// on top of the object runtime: the NSObject root, autorelease pools,
// numbers, enumerators and the NSArray class cluster.
package foundation

import (
	"github.com/tliron/commonlog"

	"github.com/Doodledash6/touchHLE/archive"
	"github.com/Doodledash6/touchHLE/mem"
	"github.com/Doodledash6/touchHLE/objc"
)

var log = commonlog.GetLogger("foundation")

// NSNotFound is returned by index searches that find nothing.
const NSNotFound objc.Word = 0x7fffffff

// Classes returns every class this package declares.
func Classes() []objc.ClassSpec {
	return []objc.ClassSpec{
		nsObject(),
		nsAutoreleasePool(),
		nsNumber(),
		nsEnumerator(),
		objectEnumerator(),
		nsArray(),
		nsMutableArray(),
		concreteArray(),
		concreteMutableArray(),
		nonRetainingArray(),
	}
}

// Register declares the Foundation classes and the archive coders on rt.
func Register(rt *objc.Runtime) {
	classes := rt.RegisterClasses(append(Classes(), archive.Classes()...))
	log.Infof("registered %d classes", len(classes))
}

// NewRuntime creates a runtime on m with Foundation registered.
func NewRuntime(m *mem.Mem) *objc.Runtime {
	rt := objc.New(m)
	Register(rt)
	return rt
}
