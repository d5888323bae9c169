// Package archive reconstructs object graphs from keyed archives and
// produces them again. Each object's backing state is installed by its own
// class through -initWithCoder:, and recorded by -encodeWithCoder:, with an
// NSKeyedUnarchiver or NSKeyedArchiver coder object as the argument.
//
// Archives are CBOR documents:
//
//	{top: uid, objects: [{class: name, objects: [uid...], int: n}, ...]}
//
// where a uid is an index into objects.
package archive

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("archive")

var (
	// ErrUnknownClass is returned when an archive names a class that is not
	// registered.
	ErrUnknownClass = errors.New("unknown class")
	// ErrNotDecodable is returned when an archive names a class that exists
	// but cannot be reconstructed: it has no -initWithCoder:, or it is
	// abstract and does not redirect allocation to a concrete class.
	ErrNotDecodable = errors.New("class cannot be decoded")
	// ErrMalformed is returned for structurally invalid archives.
	ErrMalformed = errors.New("malformed archive")
)

// UID indexes Document.Objects.
type UID = uint32

// Document is the decoded form of an archive.
type Document struct {
	Top     UID      `cbor:"top"`
	Objects []Record `cbor:"objects"`
}

// Record is one archived object.
type Record struct {
	Class   string `cbor:"class"`
	Objects []UID  `cbor:"objects,omitempty"`
	Int     *int32 `cbor:"int,omitempty"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("archive: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal serializes a document to canonical CBOR.
func Marshal(doc *Document) ([]byte, error) {
	return encMode.Marshal(doc)
}

// Parse decodes and structurally validates an archive.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("archive: unmarshal: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	n := UID(len(d.Objects))
	if int(d.Top) >= len(d.Objects) {
		return fmt.Errorf("archive: top uid %d with %d objects: %w", d.Top, n, ErrMalformed)
	}
	for i, r := range d.Objects {
		if r.Class == "" {
			return fmt.Errorf("archive: object %d has no class: %w", i, ErrMalformed)
		}
		for _, uid := range r.Objects {
			if uid >= n {
				return fmt.Errorf("archive: object %d refers to uid %d: %w", i, uid, ErrMalformed)
			}
		}
	}
	return d.checkAcyclic()
}

// checkAcyclic rejects reference cycles reachable from the top object;
// reconstruction would otherwise never finish.
func (d *Document) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(d.Objects))
	var visit func(uid UID) error
	visit = func(uid UID) error {
		switch state[uid] {
		case visiting:
			return fmt.Errorf("archive: reference cycle through uid %d: %w", uid, ErrMalformed)
		case done:
			return nil
		}
		state[uid] = visiting
		for _, child := range d.Objects[uid].Objects {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[uid] = done
		return nil
	}
	return visit(d.Top)
}

// reachable returns the uids reachable from the top object.
func (d *Document) reachable() []UID {
	seen := make(map[UID]bool)
	var out []UID
	var walk func(uid UID)
	walk = func(uid UID) {
		if seen[uid] {
			return
		}
		seen[uid] = true
		out = append(out, uid)
		for _, child := range d.Objects[uid].Objects {
			walk(child)
		}
	}
	walk(d.Top)
	return out
}
