package objc

// VTable holds one side (instance or class) of a class's method table.
//
// Methods are stored in a slice indexed by SEL. Inheritance is handled by
// walking the parent chain when a method is not found locally; the runtime
// memoizes the result of that walk per (class, selector, side).
type VTable struct {
	class   *Class
	parent  *VTable
	methods []Method
}

// NewVTable creates a new vtable for a class.
func NewVTable(class *Class, parent *VTable) *VTable {
	return &VTable{
		class:   class,
		parent:  parent,
		methods: make([]Method, 0, 32),
	}
}

// Lookup finds a method by selector, walking the inheritance chain. It also
// returns the vtable that supplied the method. A nil method means the
// selector is not implemented anywhere up to the root.
func (vt *VTable) Lookup(sel SEL) (Method, *VTable) {
	for v := vt; v != nil; v = v.parent {
		if m := v.LookupLocal(sel); m != nil {
			return m, v
		}
	}
	return nil, nil
}

// LookupLocal finds a method in this vtable only.
func (vt *VTable) LookupLocal(sel SEL) Method {
	if sel >= 0 && int(sel) < len(vt.methods) {
		return vt.methods[sel]
	}
	return nil
}

// AddMethod adds or replaces a method at the given selector.
func (vt *VTable) AddMethod(sel SEL, method Method) {
	if int(sel) >= len(vt.methods) {
		grown := make([]Method, sel+1)
		copy(grown, vt.methods)
		vt.methods = grown
	}
	vt.methods[sel] = method
}

// HasMethod returns true if this vtable (not parents) has a method for sel.
func (vt *VTable) HasMethod(sel SEL) bool {
	return vt.LookupLocal(sel) != nil
}

// Class returns the class this vtable belongs to.
func (vt *VTable) Class() *Class {
	return vt.class
}

// LocalSelectors returns the selectors defined in this vtable.
func (vt *VTable) LocalSelectors() []SEL {
	var result []SEL
	for i, m := range vt.methods {
		if m != nil {
			result = append(result, SEL(i))
		}
	}
	return result
}
