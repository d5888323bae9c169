package objc

import (
	"testing"

	"github.com/Doodledash6/touchHLE/mem"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	return New(mem.New(mem.NewFlatSpace(1<<20), 0x10000))
}

func expectFatal(t *testing.T, kind FatalKind, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected %s fatal error, got none", kind)
		}
		e, ok := r.(*FatalError)
		if !ok {
			panic(r)
		}
		if e.Kind != kind {
			t.Fatalf("fatal kind = %s, want %s (%v)", e.Kind, kind, e)
		}
	}()
	fn()
}

type box struct {
	n int
}

// registerRoot installs a minimal root class whose -dealloc counts calls
// into *deallocs (when non-nil) and then deallocates.
func registerRoot(rt *Runtime, deallocs *int) *Class {
	return rt.RegisterClass(ClassSpec{
		Name: "Root",
		InstanceMethods: Methods(
			NewMethod0("dealloc", func(rt *Runtime, this ID) Word {
				if deallocs != nil {
					*deallocs++
				}
				rt.Deallocate(this)
				return 0
			}),
		),
	})
}
