package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"

	"github.com/Doodledash6/touchHLE/foundation"
	"github.com/Doodledash6/touchHLE/mem"
	"github.com/Doodledash6/touchHLE/objc"
)

type selfCheck struct {
	name string
	run  func(rt *objc.Runtime) error
}

var selfChecks = []selfCheck{
	{"nearest ancestor resolution", checkResolution},
	{"super runs each level once", checkSuperOrder},
	{"exactly one deallocation", checkSingleDealloc},
	{"pools drain in reverse order", checkPoolOrder},
	{"autorelease then direct release", checkAutoreleaseScenario},
	{"fast enumeration rounds", checkFastEnumeration},
	{"variadic arguments stop at nil", checkVarArgs},
}

// runChecks runs every self-check against its own fresh runtime and prints
// one line per check. It returns the number of failures.
func runChecks(w io.Writer, newRuntime func() *objc.Runtime) int {
	failed := 0
	for _, c := range selfChecks {
		err := guard(func() error { return c.run(newRuntime()) })
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %s: %v\n", c.name, err)
			continue
		}
		fmt.Fprintf(w, "ok    %s\n", c.name)
	}
	return failed
}

// guard turns a fatal runtime panic inside fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			var fe *objc.FatalError
			var fault *mem.Fault
			if !errors.As(e, &fe) && !errors.As(e, &fault) {
				panic(r)
			}
			err = e
		}
	}()
	return fn()
}

// expectFatal runs fn and reports whether it raised a fatal error of kind.
func expectFatal(kind objc.FatalKind, fn func()) error {
	err := guard(func() error {
		fn()
		return nil
	})
	var fe *objc.FatalError
	if !errors.As(err, &fe) {
		return fmt.Errorf("expected a %s fatal error, got %v", kind, err)
	}
	if fe.Kind != kind {
		return fmt.Errorf("fatal kind = %s, want %s", fe.Kind, kind)
	}
	return nil
}

// tracingClasses registers Base <- Derived <- MoreDerived, each with a
// -describe that appends its name to trace and, below Base, calls super.
func tracingClasses(rt *objc.Runtime, trace *[]string, dealloced *[]objc.ID) {
	describe := func(name string, super bool) objc.Method {
		return objc.NewMethod("describe", func(rt *objc.Runtime, call *objc.Call) objc.Word {
			*trace = append(*trace, name)
			if super {
				call.Super(rt)
			}
			return 0
		})
	}
	rt.RegisterClasses([]objc.ClassSpec{
		{
			Name:       "Base",
			Superclass: "NSObject",
			InstanceMethods: objc.Methods(
				describe("Base", false),
				objc.NewMethod("dealloc", func(rt *objc.Runtime, call *objc.Call) objc.Word {
					*dealloced = append(*dealloced, call.Receiver)
					return call.Super(rt)
				}),
				objc.NewMethod0("baseOnly", func(*objc.Runtime, objc.ID) objc.Word { return 1 }),
			),
		},
		{Name: "Derived", Superclass: "Base", InstanceMethods: objc.Methods(describe("Derived", true))},
		{Name: "MoreDerived", Superclass: "Derived"},
	})
}

func checkResolution(rt *objc.Runtime) error {
	var trace []string
	var dead []objc.ID
	tracingClasses(rt, &trace, &dead)

	sel := rt.Selectors.Intern("describe")
	more := rt.MustClass("MoreDerived")
	derived := rt.MustClass("Derived")
	if _, owner := rt.Resolve(more, sel, false); owner != derived {
		return fmt.Errorf("-describe on MoreDerived resolved in %v, want Derived", owner)
	}
	if _, owner := rt.ResolveSuper(derived, sel, false); owner != rt.MustClass("Base") {
		return fmt.Errorf("super from Derived resolved in %v, want Base", owner)
	}
	if m, _ := rt.ResolveName(more, "baseOnly", false); m == nil {
		return errors.New("-baseOnly not inherited")
	}
	return nil
}

func checkSuperOrder(rt *objc.Runtime) error {
	var trace []string
	var dead []objc.ID
	tracingClasses(rt, &trace, &dead)

	obj := objc.ID(rt.SendClass("Derived", "new"))
	rt.Send(obj, "describe")
	if !slices.Equal(trace, []string{"Derived", "Base"}) {
		return fmt.Errorf("Derived trace = %v", trace)
	}

	trace = nil
	more := objc.ID(rt.SendClass("MoreDerived", "new"))
	rt.Send(more, "describe")
	if !slices.Equal(trace, []string{"Derived", "Base"}) {
		return fmt.Errorf("MoreDerived trace = %v", trace)
	}
	return nil
}

func checkSingleDealloc(rt *objc.Runtime) error {
	var trace []string
	var dead []objc.ID
	tracingClasses(rt, &trace, &dead)
	rng := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 50; round++ {
		dead = dead[:0]
		obj := objc.ID(rt.SendClass("Base", "new"))
		extra := rng.IntN(8)
		for i := 0; i < extra; i++ {
			rt.Retain(obj)
		}
		for i := 0; i < extra; i++ {
			rt.Release(obj)
			if len(dead) != 0 {
				return fmt.Errorf("round %d: deallocated after %d of %d releases", round, i+1, extra+1)
			}
		}
		rt.Release(obj)
		if len(dead) != 1 || dead[0] != obj {
			return fmt.Errorf("round %d: deallocations = %v", round, dead)
		}
	}
	return nil
}

func checkPoolOrder(rt *objc.Runtime) error {
	var trace []string
	var dead []objc.ID
	tracingClasses(rt, &trace, &dead)

	outer := rt.PushPool()
	a := rt.Autorelease(objc.ID(rt.SendClass("Base", "new")))
	b := rt.Autorelease(objc.ID(rt.SendClass("Base", "new")))
	inner := rt.PushPool()
	c := rt.Autorelease(objc.ID(rt.SendClass("Base", "new")))

	rt.PopPool(inner)
	if !slices.Equal(dead, []objc.ID{c}) {
		return fmt.Errorf("inner pool released %v, want [%s]", dead, c)
	}
	rt.PopPool(outer)
	if !slices.Equal(dead, []objc.ID{c, b, a}) {
		return fmt.Errorf("release order %v, want [%s %s %s]", dead, c, b, a)
	}
	return nil
}

func checkAutoreleaseScenario(rt *objc.Runtime) error {
	var trace []string
	var dead []objc.ID
	tracingClasses(rt, &trace, &dead)

	pool := rt.PushPool()
	a := objc.ID(rt.SendClass("Base", "new"))
	rt.Retain(a)
	rt.Autorelease(a)
	rt.Release(a)
	if n := rt.RetainCount(a); n != 1 {
		return fmt.Errorf("count before pop = %d, want 1", n)
	}
	rt.PopPool(pool)
	if rt.IsLive(a) || len(dead) != 1 {
		return errors.New("object survived its pool")
	}
	return expectFatal(objc.FatalDeadObject, func() { objc.Borrow[any](rt, a) })
}

func checkFastEnumeration(rt *objc.Runtime) error {
	for n := 0; n <= 6; n++ {
		for k := uint32(1); k <= 3; k++ {
			if err := enumerateArray(rt, n, k); err != nil {
				return fmt.Errorf("n=%d k=%d: %w", n, k, err)
			}
		}
	}
	return nil
}

func enumerateArray(rt *objc.Runtime, n int, k uint32) error {
	pool := rt.PushPool()
	defer rt.PopPool(pool)

	ids := make([]objc.ID, n)
	for i := range ids {
		ids[i] = objc.ID(rt.SendClass("NSNumber", "numberWithInt:", objc.Word(i)))
	}
	// The array takes over one reference; the pool keeps the other.
	for _, id := range ids {
		rt.Retain(id)
	}
	array := rt.Autorelease(foundation.ArrayFromIDs(rt, slices.Clone(ids)))

	state := rt.Mem.Alloc(mem.SizeOf[objc.FastEnumerationState](), 4)
	buf := rt.Mem.Alloc(4*k, 4)
	defer rt.Mem.Free(state)
	defer rt.Mem.Free(buf)
	mem.Write(rt.Mem, state, objc.FastEnumerationState{})

	var seen []objc.ID
	rounds := 0
	for {
		c := rt.Send(array, "countByEnumeratingWithState:objects:count:", objc.Word(state), objc.Word(buf), k)
		if c == 0 {
			break
		}
		rounds++
		if rounds > n+1 {
			return errors.New("enumeration does not terminate")
		}
		st := mem.Read[objc.FastEnumerationState](rt.Mem, state)
		seen = append(seen, mem.ReadSlice[objc.ID](rt.Mem, st.ItemsPtr, c)...)
	}
	if want := (n + int(k) - 1) / int(k); rounds != want {
		return fmt.Errorf("%d rounds, want %d", rounds, want)
	}
	if !slices.Equal(seen, ids) {
		return fmt.Errorf("enumerated %v, want %v", seen, ids)
	}
	if n == 0 && mem.Read[objc.FastEnumerationState](rt.Mem, state) != (objc.FastEnumerationState{}) {
		return errors.New("empty enumeration touched the state record")
	}
	return nil
}

func checkVarArgs(rt *objc.Runtime) error {
	pool := rt.PushPool()
	defer rt.PopPool(pool)

	nums := make([]objc.ID, 5)
	for i := range nums {
		nums[i] = objc.ID(rt.SendClass("NSNumber", "numberWithInt:", objc.Word(i*10)))
	}

	// Spill everything after the first object onto the guest stack, nil
	// terminated, followed by a word that must never be read.
	sp := rt.Mem.Alloc(4*uint32(len(nums)+1), 4)
	defer rt.Mem.Free(sp)
	words := make([]uint32, 0, len(nums)+1)
	for _, id := range nums[1:] {
		words = append(words, uint32(id))
	}
	words = append(words, 0, 0xdeadbeef)
	mem.WriteSlice(rt.Mem, sp, words)

	array := objc.ID(rt.SendVariadic(rt.MustClass("NSArray").ID, "arrayWithObjects:",
		[]objc.Word{objc.Word(nums[0])}, objc.NewStackArgs(rt.Mem, sp)))
	got := foundation.ArrayToIDs(rt, array)
	if !slices.Equal(got, nums) {
		return fmt.Errorf("arrayWithObjects: collected %v, want %v", got, nums)
	}
	return nil
}
