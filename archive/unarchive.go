package archive

import (
	"fmt"
	"slices"

	"github.com/Doodledash6/touchHLE/objc"
)

// Unarchive reconstructs the object graph in data and returns its top
// object, which the caller owns (+1). Every other object is owned by the
// objects referring to it. Class problems found before allocation are
// returned as errors; once reconstruction starts, failures are fatal like
// any other send.
func Unarchive(rt *objc.Runtime, data []byte) (objc.ID, error) {
	doc, err := Parse(data)
	if err != nil {
		return objc.Nil, err
	}
	for _, uid := range doc.reachable() {
		name := doc.Objects[uid].Class
		class := rt.LookupClass(name)
		if class == nil {
			return objc.Nil, fmt.Errorf("archive: object %d: %s: %w", uid, name, ErrUnknownClass)
		}
		if why := undecodable(rt, class); why != "" {
			return objc.Nil, fmt.Errorf("archive: object %d: %s %s: %w", uid, name, why, ErrNotDecodable)
		}
	}

	coder := rt.Allocate(rt.MustClass(UnarchiverClass), &unarchiverHost{
		doc:     doc,
		decoded: make(map[UID]objc.ID),
	})
	top := decodeObject(rt, coder, doc.Top)
	rt.Release(coder)

	log.Debugf("unarchived %d objects, top %s (%s)", len(doc.Objects), top, rt.ClassOf(top).Name)
	return top, nil
}

// undecodable reports why instances of class cannot be reconstructed, or ""
// when they can.
func undecodable(rt *objc.Runtime, class *objc.Class) string {
	if class.Abstract {
		// The root's +allocWithZone: refuses abstract classes; a redirect
		// picks the concrete class that must answer -initWithCoder:.
		if _, owner := rt.ResolveName(class, "allocWithZone:", true); owner == nil || owner.Superclass == nil {
			return "is abstract with no concrete +allocWithZone:"
		}
		return ""
	}
	if m, _ := rt.ResolveName(class, "initWithCoder:", false); m == nil {
		return "has no -initWithCoder:"
	}
	return ""
}

// decodeObject returns the object for uid with one reference owned by the
// caller. The first reference reconstructs it; later ones retain it.
func decodeObject(rt *objc.Runtime, coder objc.ID, uid UID) objc.ID {
	var (
		existing objc.ID
		seen     bool
		name     string
	)
	objc.WithHost(rt, coder, func(h *unarchiverHost) {
		existing, seen = h.decoded[uid]
		name = h.doc.Objects[uid].Class
	})
	if seen {
		return rt.Retain(existing)
	}

	obj := rt.SendID(rt.MustClass(name).ID, "alloc")
	objc.WithHostMut(rt, coder, func(h *unarchiverHost) {
		h.current = append(h.current, uid)
	})
	obj = rt.SendID(obj, "initWithCoder:", coder.Word())
	objc.WithHostMut(rt, coder, func(h *unarchiverHost) {
		h.current = h.current[:len(h.current)-1]
		h.decoded[uid] = obj
	})
	return obj
}

// DecodeCurrentArray decodes the element list of the object whose
// -initWithCoder: is running. Each returned identity is already retained
// once on behalf of the receiving collection, which must not retain it
// again.
func DecodeCurrentArray(rt *objc.Runtime, coder objc.ID) []objc.ID {
	var uids []UID
	objc.WithHost(rt, coder, func(h *unarchiverHost) {
		uids = slices.Clone(h.record().Objects)
	})
	out := make([]objc.ID, len(uids))
	for i, uid := range uids {
		out[i] = decodeObject(rt, coder, uid)
	}
	return out
}

// DecodeCurrentInt decodes the integer of the object whose -initWithCoder:
// is running; a record without one decodes as 0.
func DecodeCurrentInt(rt *objc.Runtime, coder objc.ID) int32 {
	var v int32
	objc.WithHost(rt, coder, func(h *unarchiverHost) {
		if p := h.record().Int; p != nil {
			v = *p
		}
	})
	return v
}
