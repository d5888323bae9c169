package objc

import (
	"testing"
)

// ---------------------------------------------------------------------------
// SelectorTable tests
// ---------------------------------------------------------------------------

func TestSelectorTableIntern(t *testing.T) {
	st := NewSelectorTable()

	id1 := st.Intern("count")
	if id1 != 0 {
		t.Errorf("first Intern got ID %d, want 0", id1)
	}

	if id2 := st.Intern("count"); id2 != id1 {
		t.Errorf("re-Intern got ID %d, want %d", id2, id1)
	}

	id3 := st.Intern("objectAtIndex:")
	if id3 == id1 {
		t.Error("different name should get different ID")
	}
	if id3 != 1 {
		t.Errorf("second unique Intern got ID %d, want 1", id3)
	}
}

func TestSelectorTableLookup(t *testing.T) {
	st := NewSelectorTable()
	st.Intern("retain")
	st.Intern("release")

	if id := st.Lookup("retain"); id != 0 {
		t.Errorf("Lookup(retain) = %d, want 0", id)
	}
	if id := st.Lookup("release"); id != 1 {
		t.Errorf("Lookup(release) = %d, want 1", id)
	}
	if id := st.Lookup("autorelease"); id != NoSEL {
		t.Errorf("Lookup(autorelease) = %d, want NoSEL", id)
	}
}

func TestSelectorTableName(t *testing.T) {
	st := NewSelectorTable()
	st.Intern("init")
	st.Intern("dealloc")

	if name := st.Name(0); name != "init" {
		t.Errorf("Name(0) = %q, want %q", name, "init")
	}
	if name := st.Name(1); name != "dealloc" {
		t.Errorf("Name(1) = %q, want %q", name, "dealloc")
	}
	if name := st.Name(-1); name != "" {
		t.Errorf("Name(-1) = %q, want empty", name)
	}
	if name := st.Name(100); name != "" {
		t.Errorf("Name(100) = %q, want empty", name)
	}
}

func TestSelectorTableDeduplicates(t *testing.T) {
	st := NewSelectorTable()
	a, b, again := st.Intern("a"), st.Intern("b:"), st.Intern("a")
	if a != again || a == b {
		t.Errorf("Intern gave %v %v %v, want duplicates to share an ID", a, b, again)
	}
	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2", st.Len())
	}
	if st.Name(b) != "b:" {
		t.Errorf("Name(%v) = %q, want b:", b, st.Name(b))
	}
}

func TestArity(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"count", 0},
		{"objectAtIndex:", 1},
		{"initWithObjects:count:", 2},
		{"countByEnumeratingWithState:objects:count:", 3},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Arity(tt.name); got != tt.want {
			t.Errorf("Arity(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}
