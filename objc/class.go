package objc

import "sort"

// Class is an immutable class descriptor. Classes are objects too: ID is the
// guest address of the class header and is the receiver of class-side sends.
type Class struct {
	Name       string
	Superclass *Class
	ID         ID

	// Abstract classes carry no host state of their own and cannot be
	// allocated directly; typically their +allocWithZone: redirects to a
	// private concrete subclass.
	Abstract bool

	VTable      *VTable // instance side
	ClassVTable *VTable // class side
}

// ClassSpec declares a class to the registry.
type ClassSpec struct {
	Name            string
	Superclass      string // empty for a root class
	Abstract        bool
	InstanceMethods MethodTable
	ClassMethods    MethodTable
}

// IsSubclassOf returns true if c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for current := c; current != nil; current = current.Superclass {
		if current == other {
			return true
		}
	}
	return false
}

// Depth returns the inheritance depth (0 for a root class).
func (c *Class) Depth() int {
	depth := 0
	for current := c.Superclass; current != nil; current = current.Superclass {
		depth++
	}
	return depth
}

func (c *Class) superName() string {
	if c.Superclass == nil {
		return ""
	}
	return c.Superclass.Name
}

func (c *Class) vtable(classSide bool) *VTable {
	if classSide {
		return c.ClassVTable
	}
	return c.VTable
}

func (c *Class) String() string {
	return c.Name
}

// ---------------------------------------------------------------------------
// ClassTable: registered classes by name and by identity
// ---------------------------------------------------------------------------

// ClassTable indexes registered classes.
type ClassTable struct {
	byName map[string]*Class
	byID   map[ID]*Class
	order  []*Class
}

// NewClassTable creates a new empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{
		byName: make(map[string]*Class),
		byID:   make(map[ID]*Class),
	}
}

func (ct *ClassTable) add(c *Class) {
	ct.byName[c.Name] = c
	ct.byID[c.ID] = c
	ct.order = append(ct.order, c)
}

// Lookup finds a class by name.
func (ct *ClassTable) Lookup(name string) *Class {
	return ct.byName[name]
}

// ByID finds a class by its identity.
func (ct *ClassTable) ByID(id ID) *Class {
	return ct.byID[id]
}

// Subclasses returns the direct subclasses of c (roots when c is nil),
// sorted by name.
func (ct *ClassTable) Subclasses(c *Class) []*Class {
	var result []*Class
	for _, k := range ct.order {
		if k.Superclass == c {
			result = append(result, k)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Len returns the number of registered classes.
func (ct *ClassTable) Len() int {
	return len(ct.order)
}
