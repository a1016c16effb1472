package codec

import "strconv"

// refTable tracks object identity for the duration of exactly one
// serialize or deserialize call. It is created at the top-level entry
// point, threaded through the traversal as a parameter, and discarded
// on return, so concurrent calls never share resolver state.
//
// Identity semantics are reference identity: only pointer-shaped
// values (object nodes) are tracked. Sequence and mapping values are
// walked without tracking.
type refTable struct {
	policy ReferenceHandling
	next   int

	// ids maps object identity to its anchor id (serialize side).
	ids map[any]string

	// anchors maps anchor name to the constructed object
	// (deserialize side). Anchors register before nested content is
	// populated so cyclic aliases resolve.
	anchors map[string]any
}

func newRefTable(policy ReferenceHandling) *refTable {
	t := &refTable{policy: policy}
	if policy != ReferencesNone {
		t.ids = make(map[any]string)
	}
	t.anchors = make(map[string]any)
	return t
}

// visit records an object on the serialize side and reports how it
// should be emitted. With the ignore-cycles policy a re-encountered
// object reports skip, and its content is not emitted again. With the
// preserve policy the first encounter yields a fresh anchor id and a
// re-encounter yields an alias to it. Anchor ids are monotonically
// increasing and never reused within a pass.
func (t *refTable) visit(value any) (anchor, alias string, skip bool) {
	switch t.policy {
	case ReferencesIgnoreCycles:
		if _, seen := t.ids[value]; seen {
			return "", "", true
		}
		t.ids[value] = ""
		return "", "", false
	case ReferencesPreserve:
		if id, seen := t.ids[value]; seen {
			return "", id, false
		}
		t.next++
		id := "o" + strconv.Itoa(t.next)
		t.ids[value] = id
		return id, "", false
	default:
		return "", "", false
	}
}

// define registers a constructed object under an anchor name on the
// deserialize side.
func (t *refTable) define(anchor string, value any) {
	if anchor != "" {
		t.anchors[anchor] = value
	}
}

// lookup resolves an alias to the object registered under its anchor.
func (t *refTable) lookup(anchor string) (any, error) {
	v, ok := t.anchors[anchor]
	if !ok {
		return nil, &ReferenceNotFoundError{Anchor: anchor}
	}
	return v, nil
}
