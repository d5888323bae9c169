package archive_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Doodledash6/touchHLE/archive"
	"github.com/Doodledash6/touchHLE/foundation"
	"github.com/Doodledash6/touchHLE/mem"
	"github.com/Doodledash6/touchHLE/objc"
)

func newTestRuntime(t *testing.T) *objc.Runtime {
	t.Helper()
	return foundation.NewRuntime(mem.New(mem.NewFlatSpace(1<<20), 0x10000))
}

func number(rt *objc.Runtime, v int32) objc.ID {
	n := rt.SendID(rt.MustClass("NSNumber").ID, "alloc")
	return rt.SendID(n, "initWithInt:", objc.Word(v))
}

func intPtr(v int32) *int32 { return &v }

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func TestParseValidates(t *testing.T) {
	tests := []struct {
		name string
		doc  archive.Document
	}{
		{"empty", archive.Document{}},
		{"top out of range", archive.Document{Top: 2, Objects: []archive.Record{{Class: "NSArray"}}}},
		{"missing class", archive.Document{Objects: []archive.Record{{}}}},
		{"dangling uid", archive.Document{Objects: []archive.Record{{Class: "NSArray", Objects: []archive.UID{5}}}}},
		{"cycle", archive.Document{Objects: []archive.Record{
			{Class: "NSArray", Objects: []archive.UID{1}},
			{Class: "NSArray", Objects: []archive.UID{0}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := archive.Marshal(&tt.doc)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if _, err := archive.Parse(data); !errors.Is(err, archive.ErrMalformed) {
				t.Errorf("Parse error = %v, want ErrMalformed", err)
			}
		})
	}

	if _, err := archive.Parse([]byte{0xff, 0x00}); err == nil {
		t.Error("Parse accepted garbage")
	}
}

func TestParseSharedReference(t *testing.T) {
	doc := archive.Document{
		Objects: []archive.Record{
			{Class: "NSArray", Objects: []archive.UID{1, 1}},
			{Class: "NSNumber", Int: intPtr(4)},
		},
	}
	data, err := archive.Marshal(&doc)
	if err != nil {
		t.Fatal(err)
	}
	got, err := archive.Parse(data)
	if err != nil {
		t.Fatalf("shared (acyclic) references rejected: %v", err)
	}
	if *got.Objects[1].Int != 4 || len(got.Objects[0].Objects) != 2 {
		t.Errorf("decoded %+v", got)
	}
}

// ---------------------------------------------------------------------------
// Unarchiving
// ---------------------------------------------------------------------------

func TestUnarchiveArray(t *testing.T) {
	rt := newTestRuntime(t)
	doc := archive.Document{
		Top: 0,
		Objects: []archive.Record{
			{Class: "NSArray", Objects: []archive.UID{1, 2, 1}},
			{Class: "NSNumber", Int: intPtr(10)},
			{Class: "NSMutableArray", Objects: []archive.UID{3}},
			{Class: "NSNumber", Int: intPtr(-3)},
		},
	}
	data, err := archive.Marshal(&doc)
	if err != nil {
		t.Fatal(err)
	}

	root, err := archive.Unarchive(rt, data)
	if err != nil {
		t.Fatalf("Unarchive: %v", err)
	}
	if rt.RetainCount(root) != 1 {
		t.Errorf("root count = %d, want 1", rt.RetainCount(root))
	}
	elems := foundation.ArrayToIDs(rt, root)
	if len(elems) != 3 || elems[0] != elems[2] {
		t.Fatalf("root elements = %v", elems)
	}
	if foundation.IntValue(rt, elems[0]) != 10 {
		t.Errorf("first element = %d", foundation.IntValue(rt, elems[0]))
	}
	// One reference per occurrence, never an extra one.
	if rt.RetainCount(elems[0]) != 2 {
		t.Errorf("shared element count = %d, want 2", rt.RetainCount(elems[0]))
	}
	inner := elems[1]
	if !rt.RespondsTo(inner, "addObject:") {
		t.Error("NSMutableArray record should decode as a mutable array")
	}
	innerElems := foundation.ArrayToIDs(rt, inner)
	if len(innerElems) != 1 || foundation.IntValue(rt, innerElems[0]) != -3 {
		t.Errorf("inner array = %v", innerElems)
	}
	if rt.RetainCount(innerElems[0]) != 1 {
		t.Errorf("inner element count = %d, want 1", rt.RetainCount(innerElems[0]))
	}

	rt.Release(root)
	if rt.LiveObjects() != 0 {
		t.Errorf("LiveObjects = %d after releasing the root, want 0", rt.LiveObjects())
	}
}

func TestUnarchiveUnknownClass(t *testing.T) {
	rt := newTestRuntime(t)
	doc := archive.Document{
		Objects: []archive.Record{
			{Class: "NSArray", Objects: []archive.UID{1}},
			{Class: "UIView"},
		},
	}
	data, err := archive.Marshal(&doc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := archive.Unarchive(rt, data); !errors.Is(err, archive.ErrUnknownClass) {
		t.Errorf("Unarchive error = %v, want ErrUnknownClass", err)
	}
	if rt.LiveObjects() != 0 {
		t.Error("failed unarchive allocated objects")
	}
}

func TestUnarchiveUndecodableClass(t *testing.T) {
	tests := []struct {
		name  string
		class string
	}{
		{"no initWithCoder", "NSObject"},
		{"abstract without redirect", "NSEnumerator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newTestRuntime(t)
			data, err := archive.Marshal(&archive.Document{
				Objects: []archive.Record{
					{Class: "NSArray", Objects: []archive.UID{1}},
					{Class: tt.class},
				},
			})
			if err != nil {
				t.Fatal(err)
			}
			_, err = archive.Unarchive(rt, data)
			if !errors.Is(err, archive.ErrNotDecodable) {
				t.Fatalf("Unarchive error = %v, want ErrNotDecodable", err)
			}
			if !strings.Contains(err.Error(), tt.class) {
				t.Errorf("error %q does not name %s", err, tt.class)
			}
			if rt.LiveObjects() != 0 {
				t.Error("failed unarchive allocated objects")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Archiving
// ---------------------------------------------------------------------------

func TestArchiveRoundTrip(t *testing.T) {
	rt := newTestRuntime(t)
	shared := number(rt, 7)
	rt.Retain(shared)
	inner := foundation.ArrayFromIDs(rt, []objc.ID{number(rt, 1)})
	root := foundation.ArrayFromIDs(rt, []objc.ID{shared, inner, shared})
	live := rt.LiveObjects()

	data, err := archive.Archive(rt, root)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if rt.LiveObjects() != live {
		t.Error("Archive leaked its coder")
	}

	doc, err := archive.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Objects) != 4 {
		t.Fatalf("archived %d objects, want 4 (shared stored once)", len(doc.Objects))
	}
	if doc.Objects[doc.Top].Class != "NSMutableArray" {
		t.Errorf("root archived as %s, want the public class", doc.Objects[doc.Top].Class)
	}

	again, err := archive.Archive(rt, root)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("archives of the same graph differ")
	}

	copyRoot, err := archive.Unarchive(rt, data)
	if err != nil {
		t.Fatalf("Unarchive: %v", err)
	}
	elems := foundation.ArrayToIDs(rt, copyRoot)
	if len(elems) != 3 || elems[0] != elems[2] || foundation.IntValue(rt, elems[0]) != 7 {
		t.Errorf("round trip elements = %v", elems)
	}
	innerCopy := foundation.ArrayToIDs(rt, elems[1])
	if len(innerCopy) != 1 || foundation.IntValue(rt, innerCopy[0]) != 1 {
		t.Errorf("round trip inner = %v", innerCopy)
	}
}

func TestArchiveErrors(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := archive.Archive(rt, objc.Nil); err == nil {
		t.Error("archiving nil should fail")
	}

	plain := objc.ID(rt.SendClass("NSObject", "new"))
	array := foundation.ArrayFromIDs(rt, []objc.ID{plain})
	live := rt.LiveObjects()
	if _, err := archive.Archive(rt, array); err == nil {
		t.Error("archiving an object without keyed coding should fail")
	}
	if rt.LiveObjects() != live {
		t.Error("failed Archive leaked its coder")
	}
}

func TestCoderOutsideDecoding(t *testing.T) {
	rt := newTestRuntime(t)
	coder := rt.SendID(rt.SendID(rt.MustClass(archive.UnarchiverClass).ID, "alloc"), "init")
	if rt.Send(coder, "allowsKeyedCoding") != 1 {
		t.Error("keyed coders allow keyed coding")
	}
	defer func() {
		r := recover()
		if _, ok := r.(*objc.FatalError); !ok {
			t.Errorf("expected a fatal error, got %v", r)
		}
	}()
	// A coder made without an archive has no host state to decode from.
	archive.DecodeCurrentInt(rt, coder)
}
