package objc

// Message is one dispatch request as delivered by the instruction
// interpreter or by host code.
type Message struct {
	Receiver ID
	Selector SEL
	// Super, when set, is the class whose method body makes a super send.
	// Resolution then starts at its superclass, whatever the receiver's
	// dynamic class.
	Super *Class
	Args  []Word
	// Rest locates a nil-terminated variadic tail, if the send has one.
	Rest ArgSource
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// Dispatch resolves and invokes the implementation for msg. A send to nil
// does nothing and returns 0. A send to a deallocated object, or of a
// selector nothing implements, is fatal unless the Unimplemented policy
// supplies a method.
func (rt *Runtime) Dispatch(msg Message) Word {
	if msg.Receiver == Nil {
		return 0
	}
	class, classSide := rt.classFor(msg.Receiver)
	name := rt.Selectors.Name(msg.Selector)

	var m Method
	var owner *Class
	if msg.Super != nil {
		m, owner = rt.ResolveSuper(msg.Super, msg.Selector, classSide)
	} else {
		m, owner = rt.Resolve(class, msg.Selector, classSide)
	}
	rt.notifySent(class, name, classSide)

	if m == nil {
		if rt.Unimplemented != nil {
			if stub, ok := rt.Unimplemented.Unimplemented(rt, class, name, classSide); ok {
				m, owner = stub, class
			}
		}
		if m == nil {
			Fatalf(FatalUnimplemented, "%s does not understand %s", class.Name, sideName(classSide, name))
		}
	}

	call := &Call{
		Receiver:  msg.Receiver,
		Selector:  msg.Selector,
		Name:      name,
		Class:     owner,
		ClassSide: classSide,
		Args:      msg.Args,
		Rest:      newVarArgs(msg.Rest),
	}
	return m.Invoke(rt, call)
}

// sideName renders a selector in the usual -/+ notation.
func sideName(classSide bool, selector string) string {
	if classSide {
		return "+" + selector
	}
	return "-" + selector
}

// Send is a direct send by selector name.
func (rt *Runtime) Send(recv ID, selector string, args ...Word) Word {
	return rt.Dispatch(Message{
		Receiver: recv,
		Selector: rt.Selectors.Intern(selector),
		Args:     args,
	})
}

// SendID is Send for methods returning an object.
func (rt *Runtime) SendID(recv ID, selector string, args ...Word) ID {
	return ID(rt.Send(recv, selector, args...))
}

// SendVariadic sends a message whose fixed arguments are followed by the
// nil-terminated list produced by rest.
func (rt *Runtime) SendVariadic(recv ID, selector string, args []Word, rest ArgSource) Word {
	return rt.Dispatch(Message{
		Receiver: recv,
		Selector: rt.Selectors.Intern(selector),
		Args:     args,
		Rest:     rest,
	})
}

// SendSuper sends selector to recv starting resolution above current.
func (rt *Runtime) SendSuper(current *Class, recv ID, selector string, args ...Word) Word {
	return rt.Dispatch(Message{
		Receiver: recv,
		Selector: rt.Selectors.Intern(selector),
		Super:    current,
		Args:     args,
	})
}

// SendClass is a class-side send to the class named name.
func (rt *Runtime) SendClass(name, selector string, args ...Word) Word {
	return rt.Send(rt.MustClass(name).ID, selector, args...)
}

// RespondsTo reports whether a send of selector to id would resolve without
// the Unimplemented policy.
func (rt *Runtime) RespondsTo(id ID, selector string) bool {
	if id == Nil {
		return false
	}
	class, classSide := rt.classFor(id)
	m, _ := rt.ResolveName(class, selector, classSide)
	return m != nil
}

// IsKindOf reports whether id is an instance of class or of a subclass.
func (rt *Runtime) IsKindOf(id ID, class *Class) bool {
	if id == Nil || rt.IsClass(id) {
		return false
	}
	return rt.entry(id).class.IsSubclassOf(class)
}
