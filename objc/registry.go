package objc

import (
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

// RegisterClass declares a class. The superclass must already be registered.
//
// Registering a name again is idempotent: identical content is a no-op and
// selectors the existing class lacks are merged in, but a different
// superclass or abstractness is a fatal configuration error.
func (rt *Runtime) RegisterClass(spec ClassSpec) *Class {
	if spec.Name == "" {
		Fatalf(FatalBadClass, "class with empty name")
	}

	if existing := rt.Classes.Lookup(spec.Name); existing != nil {
		if existing.superName() != spec.Superclass {
			Fatalf(FatalBadClass, "%s re-registered with superclass %q, was %q",
				spec.Name, spec.Superclass, existing.superName())
		}
		if existing.Abstract != spec.Abstract {
			Fatalf(FatalBadClass, "%s re-registered with different abstractness", spec.Name)
		}
		added := rt.mergeMethods(existing, existing.VTable, spec.InstanceMethods)
		added += rt.mergeMethods(existing, existing.ClassVTable, spec.ClassMethods)
		if added > 0 {
			log.Warningf("class %s re-registered with %d new methods", spec.Name, added)
			clear(rt.resolved)
		}
		return existing
	}

	var super *Class
	if spec.Superclass != "" {
		super = rt.Classes.Lookup(spec.Superclass)
		if super == nil {
			Fatalf(FatalBadClass, "%s: unknown superclass %s", spec.Name, spec.Superclass)
		}
	}

	c := &Class{
		Name:       spec.Name,
		Superclass: super,
		ID:         ID(rt.Mem.Alloc(headerSize, headerSize)),
		Abstract:   spec.Abstract,
	}
	var parentVT, parentClassVT *VTable
	if super != nil {
		parentVT = super.VTable
		parentClassVT = super.ClassVTable
	}
	c.VTable = NewVTable(c, parentVT)
	c.ClassVTable = NewVTable(c, parentClassVT)
	rt.installMethods(c, c.VTable, spec.InstanceMethods)
	rt.installMethods(c, c.ClassVTable, spec.ClassMethods)

	rt.Classes.add(c)
	log.Debugf("registered class %s (superclass %q) at %s", c.Name, spec.Superclass, c.ID.Ptr())
	return c
}

// RegisterClasses registers a batch in any order, registering each class
// after its superclass. A superclass cycle or a superclass that is neither
// in the batch nor registered is fatal.
func (rt *Runtime) RegisterClasses(specs []ClassSpec) []*Class {
	pending := append([]ClassSpec(nil), specs...)
	var out []*Class
	for len(pending) > 0 {
		var next []ClassSpec
		for _, s := range pending {
			if s.Superclass == "" || rt.Classes.Lookup(s.Superclass) != nil {
				out = append(out, rt.RegisterClass(s))
				continue
			}
			next = append(next, s)
		}
		if len(next) == len(pending) {
			names := make([]string, len(next))
			for i, s := range next {
				names[i] = s.Name + ":" + s.Superclass
			}
			sort.Strings(names)
			Fatalf(FatalBadClass, "cannot order classes [%s]: superclass cycle or unknown superclass",
				strings.Join(names, " "))
		}
		pending = next
	}
	return out
}

func (rt *Runtime) installMethods(c *Class, vt *VTable, table MethodTable) {
	for name, m := range table {
		if a := m.Arity(); a >= 0 && a != Arity(name) {
			Fatalf(FatalBadClass, "%s %s: implementation takes %d arguments", c.Name, name, a)
		}
		vt.AddMethod(rt.Selectors.Intern(name), m)
	}
}

func (rt *Runtime) mergeMethods(c *Class, vt *VTable, table MethodTable) int {
	added := 0
	for name, m := range table {
		if vt.HasMethod(rt.Selectors.Intern(name)) {
			continue
		}
		rt.installMethods(c, vt, MethodTable{name: m})
		added++
	}
	return added
}

// LookupClass finds a registered class by name.
func (rt *Runtime) LookupClass(name string) *Class {
	return rt.Classes.Lookup(name)
}

// MustClass finds a registered class by name; a missing class is fatal.
func (rt *Runtime) MustClass(name string) *Class {
	c := rt.Classes.Lookup(name)
	if c == nil {
		Fatalf(FatalBadClass, "class %s is not registered", name)
	}
	return c
}

// ClassByID returns the class whose identity is id; any other identity is
// fatal.
func (rt *Runtime) ClassByID(id ID) *Class {
	c := rt.Classes.ByID(id)
	if c == nil {
		Fatalf(FatalBadClass, "%s is not a class", id)
	}
	return c
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

type resolveKey struct {
	class     *Class
	sel       SEL
	classSide bool
}

type resolveEntry struct {
	method Method
	owner  *Class
}

// Resolve walks from class up the superclass chain and returns the first
// implementation of sel on the requested side, plus the class that defines
// it. Class-side lookups that reach the root fall back to the root class's
// instance methods, so every class answers the root's instance protocol.
// Results, including misses, are memoized.
func (rt *Runtime) Resolve(class *Class, sel SEL, classSide bool) (Method, *Class) {
	key := resolveKey{class: class, sel: sel, classSide: classSide}
	if e, ok := rt.resolved[key]; ok {
		return e.method, e.owner
	}

	var owner *Class
	m, vt := class.vtable(classSide).Lookup(sel)
	if m == nil && classSide {
		root := class
		for root.Superclass != nil {
			root = root.Superclass
		}
		if m = root.VTable.LookupLocal(sel); m != nil {
			owner = root
		}
	}
	if vt != nil {
		owner = vt.Class()
	}

	rt.resolved[key] = resolveEntry{method: m, owner: owner}
	return m, owner
}

// ResolveSuper is Resolve starting one level above current, the class whose
// method body is making the super call.
func (rt *Runtime) ResolveSuper(current *Class, sel SEL, classSide bool) (Method, *Class) {
	if current.Superclass == nil {
		return nil, nil
	}
	return rt.Resolve(current.Superclass, sel, classSide)
}

// ResolveName is Resolve by selector name.
func (rt *Runtime) ResolveName(class *Class, selector string, classSide bool) (Method, *Class) {
	sel := rt.Selectors.Lookup(selector)
	if sel == NoSEL {
		return nil, nil
	}
	return rt.Resolve(class, sel, classSide)
}
