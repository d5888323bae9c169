package objc

// SEL is an interned selector.
type SEL int

// NoSEL is returned by Lookup for names that were never interned.
const NoSEL SEL = -1

// SelectorTable interns selector names to numeric IDs for fast lookup.
//
// Selectors are method names like "count", "objectAtIndex:",
// "countByEnumeratingWithState:objects:count:". Interning them once lets
// method tables index by SEL instead of comparing strings on every send.
//
// The table is append-only. Like the rest of the runtime it is driven by a
// single logical thread and does no locking.
type SelectorTable struct {
	byName map[string]SEL
	byID   []string
}

// NewSelectorTable creates a new empty selector table.
func NewSelectorTable() *SelectorTable {
	return &SelectorTable{
		byName: make(map[string]SEL),
		byID:   make([]string, 0, 256),
	}
}

// Intern returns the SEL for a name, creating a new one if needed.
func (st *SelectorTable) Intern(name string) SEL {
	if id, ok := st.byName[name]; ok {
		return id
	}
	id := SEL(len(st.byID))
	st.byName[name] = id
	st.byID = append(st.byID, name)
	return id
}

// Lookup returns the SEL for a name, or NoSEL if it was never interned.
func (st *SelectorTable) Lookup(name string) SEL {
	if id, ok := st.byName[name]; ok {
		return id
	}
	return NoSEL
}

// Name returns the selector name for an ID, or "" if invalid.
func (st *SelectorTable) Name(id SEL) string {
	if id < 0 || int(id) >= len(st.byID) {
		return ""
	}
	return st.byID[id]
}

// Len returns the number of interned selectors.
func (st *SelectorTable) Len() int {
	return len(st.byID)
}

// Arity returns the number of arguments a selector name takes: one per colon.
func Arity(name string) int {
	n := 0
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			n++
		}
	}
	return n
}
