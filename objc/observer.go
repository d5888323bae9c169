package objc

// Observer receives runtime lifecycle events. Observers must not send
// messages or touch host objects from these callbacks.
type Observer interface {
	ObjectAllocated(id ID, class *Class)
	ObjectDeallocated(id ID, class *Class)
	MessageSent(class *Class, selector string, classSide bool)
}

// UnimplementedPolicy supplies a replacement for a selector that resolved
// nowhere in the hierarchy. Returning false leaves the send fatal.
type UnimplementedPolicy interface {
	Unimplemented(rt *Runtime, class *Class, selector string, classSide bool) (Method, bool)
}

func (rt *Runtime) notifyAllocated(id ID, class *Class) {
	for _, o := range rt.observers {
		o.ObjectAllocated(id, class)
	}
}

func (rt *Runtime) notifyDeallocated(id ID, class *Class) {
	for _, o := range rt.observers {
		o.ObjectDeallocated(id, class)
	}
}

func (rt *Runtime) notifySent(class *Class, selector string, classSide bool) {
	for _, o := range rt.observers {
		o.MessageSent(class, selector, classSide)
	}
}
