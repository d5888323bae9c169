package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Doodledash6/touchHLE/objc"
)

// privatePrefix marks concrete implementation classes; archives name the
// public class they stand in for.
const privatePrefix = "_touchHLE_"

// Archive encodes the object graph rooted at root. Objects reachable more
// than once are stored once. Every object in the graph must implement
// -encodeWithCoder:.
func Archive(rt *objc.Runtime, root objc.ID) ([]byte, error) {
	if root == objc.Nil {
		return nil, errors.New("archive: cannot archive nil")
	}
	coder := rt.Allocate(rt.MustClass(ArchiverClass), &archiverHost{
		uids: make(map[objc.ID]UID),
	})
	top := encodeObject(rt, coder, root)

	var (
		doc Document
		err error
	)
	objc.WithHost(rt, coder, func(h *archiverHost) {
		doc, err = h.doc, h.err
	})
	rt.Release(coder)
	if err != nil {
		return nil, err
	}

	doc.Top = top
	data, err := Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("archive: marshal: %w", err)
	}
	log.Debugf("archived %d objects (%d bytes)", len(doc.Objects), len(data))
	return data, nil
}

// archivedClassName is the first non-private class in obj's hierarchy.
func archivedClassName(rt *objc.Runtime, obj objc.ID) string {
	c := rt.ClassOf(obj)
	for c.Superclass != nil && strings.HasPrefix(c.Name, privatePrefix) {
		c = c.Superclass
	}
	return c.Name
}

func encodeObject(rt *objc.Runtime, coder, obj objc.ID) UID {
	var (
		uid   UID
		found bool
	)
	objc.WithHostMut(rt, coder, func(h *archiverHost) {
		if uid, found = h.uids[obj]; found {
			return
		}
		uid = UID(len(h.doc.Objects))
		if obj == objc.Nil {
			if h.err == nil {
				h.err = errors.New("archive: nil element")
			}
			found = true
			return
		}
		h.uids[obj] = uid
		h.doc.Objects = append(h.doc.Objects, Record{Class: archivedClassName(rt, obj)})
		h.current = append(h.current, uid)
	})
	if found {
		return uid
	}

	if rt.RespondsTo(obj, "encodeWithCoder:") {
		rt.Send(obj, "encodeWithCoder:", coder.Word())
	} else {
		objc.WithHostMut(rt, coder, func(h *archiverHost) {
			if h.err == nil {
				h.err = fmt.Errorf("archive: %s does not support keyed coding", rt.ClassOf(obj).Name)
			}
		})
	}

	objc.WithHostMut(rt, coder, func(h *archiverHost) {
		h.current = h.current[:len(h.current)-1]
	})
	return uid
}

// EncodeArray records ids as the element list of the object whose
// -encodeWithCoder: is running.
func EncodeArray(rt *objc.Runtime, coder objc.ID, ids []objc.ID) {
	uids := make([]UID, len(ids))
	for i, id := range ids {
		uids[i] = encodeObject(rt, coder, id)
	}
	objc.WithHostMut(rt, coder, func(h *archiverHost) {
		h.record().Objects = uids
	})
}

// EncodeInt records v as the integer of the object whose -encodeWithCoder:
// is running.
func EncodeInt(rt *objc.Runtime, coder objc.ID, v int32) {
	objc.WithHostMut(rt, coder, func(h *archiverHost) {
		h.record().Int = &v
	})
}
