package objc

// Method is a callable implementation in a class's method table.
type Method interface {
	Invoke(rt *Runtime, call *Call) Word
	Name() string
	Arity() int // -1 for variable arity
}

// Call is one resolved message send as seen by its implementation.
type Call struct {
	Receiver  ID
	Selector  SEL
	Name      string
	Class     *Class // class whose method table supplied the implementation
	ClassSide bool
	Args      []Word
	Rest      *VarArgs // variadic tail; empty unless the send carried one
}

// Arg returns argument i. A send with too few arguments is a fatal error.
func (c *Call) Arg(i int) Word {
	if i >= len(c.Args) {
		Fatalf(FatalBadCall, "%s wants argument %d, send carried %d", c.Name, i, len(c.Args))
	}
	return c.Args[i]
}

// ArgID returns argument i as an identity.
func (c *Call) ArgID(i int) ID {
	return ID(c.Arg(i))
}

// Super sends the current selector to the superclass implementation.
func (c *Call) Super(rt *Runtime, args ...Word) Word {
	return rt.Dispatch(Message{
		Receiver: c.Receiver,
		Selector: c.Selector,
		Super:    c.Class,
		Args:     args,
	})
}

// Func is the general implementation signature.
type Func func(rt *Runtime, call *Call) Word

// Method0Func is a primitive taking no arguments.
type Method0Func func(rt *Runtime, this ID) Word

// Method1Func is a primitive taking one argument.
type Method1Func func(rt *Runtime, this ID, a Word) Word

// Method2Func is a primitive taking two arguments.
type Method2Func func(rt *Runtime, this ID, a, b Word) Word

// Method3Func is a primitive taking three arguments.
type Method3Func func(rt *Runtime, this ID, a, b, c Word) Word

// VariadicFunc takes a fixed first object followed by a nil-terminated list.
type VariadicFunc func(rt *Runtime, this ID, first ID, rest *VarArgs) Word

// ---------------------------------------------------------------------------
// Arity-specialized method wrappers
// ---------------------------------------------------------------------------

// FuncMethod wraps a general Func.
type FuncMethod struct {
	name string
	fn   Func
}

func (m *FuncMethod) Invoke(rt *Runtime, call *Call) Word { return m.fn(rt, call) }
func (m *FuncMethod) Name() string                        { return m.name }
func (m *FuncMethod) Arity() int                          { return Arity(m.name) }

// Method0 wraps a zero-argument primitive.
type Method0 struct {
	name string
	fn   Method0Func
}

func (m *Method0) Invoke(rt *Runtime, call *Call) Word { return m.fn(rt, call.Receiver) }
func (m *Method0) Name() string                        { return m.name }
func (m *Method0) Arity() int                          { return 0 }

// Method1 wraps a one-argument primitive.
type Method1 struct {
	name string
	fn   Method1Func
}

func (m *Method1) Invoke(rt *Runtime, call *Call) Word {
	return m.fn(rt, call.Receiver, call.Arg(0))
}
func (m *Method1) Name() string { return m.name }
func (m *Method1) Arity() int   { return 1 }

// Method2 wraps a two-argument primitive.
type Method2 struct {
	name string
	fn   Method2Func
}

func (m *Method2) Invoke(rt *Runtime, call *Call) Word {
	return m.fn(rt, call.Receiver, call.Arg(0), call.Arg(1))
}
func (m *Method2) Name() string { return m.name }
func (m *Method2) Arity() int   { return 2 }

// Method3 wraps a three-argument primitive.
type Method3 struct {
	name string
	fn   Method3Func
}

func (m *Method3) Invoke(rt *Runtime, call *Call) Word {
	return m.fn(rt, call.Receiver, call.Arg(0), call.Arg(1), call.Arg(2))
}
func (m *Method3) Name() string { return m.name }
func (m *Method3) Arity() int   { return 3 }

// VariadicMethod wraps a sentinel-terminated variadic primitive.
type VariadicMethod struct {
	name string
	fn   VariadicFunc
}

func (m *VariadicMethod) Invoke(rt *Runtime, call *Call) Word {
	return m.fn(rt, call.Receiver, call.ArgID(0), call.Rest)
}
func (m *VariadicMethod) Name() string { return m.name }
func (m *VariadicMethod) Arity() int   { return -1 }

// ---------------------------------------------------------------------------
// Factory functions
// ---------------------------------------------------------------------------

// NewMethod creates a method with access to the full Call, which is what
// implementations that send to super need.
func NewMethod(name string, fn Func) Method {
	return &FuncMethod{name: name, fn: fn}
}

// NewMethod0 creates a new zero-argument primitive method.
func NewMethod0(name string, fn Method0Func) Method {
	return &Method0{name: name, fn: fn}
}

// NewMethod1 creates a new one-argument primitive method.
func NewMethod1(name string, fn Method1Func) Method {
	return &Method1{name: name, fn: fn}
}

// NewMethod2 creates a new two-argument primitive method.
func NewMethod2(name string, fn Method2Func) Method {
	return &Method2{name: name, fn: fn}
}

// NewMethod3 creates a new three-argument primitive method.
func NewMethod3(name string, fn Method3Func) Method {
	return &Method3{name: name, fn: fn}
}

// NewVariadicMethod creates a method whose last declared argument opens a
// nil-terminated list.
func NewVariadicMethod(name string, fn VariadicFunc) Method {
	return &VariadicMethod{name: name, fn: fn}
}

// MethodTable maps selector names to implementations.
type MethodTable map[string]Method

// Methods builds a MethodTable keyed by each method's name.
func Methods(ms ...Method) MethodTable {
	t := make(MethodTable, len(ms))
	for _, m := range ms {
		t[m.Name()] = m
	}
	return t
}
