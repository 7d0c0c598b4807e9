package grovedb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Silvanasss/GroveDB/avl"
)

// ElementKind discriminates the three element variants. The kind byte is
// the first byte of the stored encoding and must never change.
type ElementKind byte

const (
	// KindItem is an opaque byte value.
	KindItem ElementKind = 0
	// KindSubtree anchors a child subtree; the element binds the child's
	// root hash.
	KindSubtree ElementKind = 1
	// KindReference points at an element stored elsewhere in the
	// hierarchy.
	KindReference ElementKind = 2
)

func (k ElementKind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindSubtree:
		return "subtree"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// MaxReferenceHops bounds how many reference elements a read follows before
// failing with ErrReferenceLimit.
const MaxReferenceHops = 10

// Element is the value stored under a key: a plain item, a subtree anchor
// binding a child subtree's root hash, or a reference to an element at
// another location. The encoded element is what the tree hashes, so a
// parent's root hash commits to each child's root hash through the anchor
// bytes.
type Element struct {
	kind ElementKind
	item []byte
	root avl.Hash
	ref  Path
}

// NewItem returns an item element holding a copy of value.
func NewItem(value []byte) Element {
	return Element{kind: KindItem, item: append([]byte(nil), value...)}
}

// NewSubtree returns a subtree anchor binding root. Anchors are normally
// written by batch application; constructing one directly is only useful
// for comparing against stored elements.
func NewSubtree(root avl.Hash) Element {
	return Element{kind: KindSubtree, root: root}
}

// NewReference returns a reference to the element addressed by target: the
// element's subtree path with the element key appended as the final
// segment.
func NewReference(target Path) Element {
	return Element{kind: KindReference, ref: NewPath(target...)}
}

// Kind returns the element's variant.
func (e Element) Kind() ElementKind { return e.kind }

// IsItem reports whether e is an item.
func (e Element) IsItem() bool { return e.kind == KindItem }

// IsSubtree reports whether e is a subtree anchor.
func (e Element) IsSubtree() bool { return e.kind == KindSubtree }

// IsReference reports whether e is a reference.
func (e Element) IsReference() bool { return e.kind == KindReference }

// Item returns the item bytes; nil unless e is an item.
func (e Element) Item() []byte {
	if e.kind != KindItem {
		return nil
	}
	return append([]byte(nil), e.item...)
}

// SubtreeRoot returns the bound child root hash; the zero hash unless e is
// a subtree anchor.
func (e Element) SubtreeRoot() avl.Hash {
	if e.kind != KindSubtree {
		return avl.Hash{}
	}
	return e.root
}

// Reference returns the target path; nil unless e is a reference.
func (e Element) Reference() Path {
	if e.kind != KindReference {
		return nil
	}
	return NewPath(e.ref...)
}

// Equal reports whether e and o encode identically.
func (e Element) Equal(o Element) bool {
	if e.kind != o.kind {
		return false
	}
	switch e.kind {
	case KindItem:
		return bytes.Equal(e.item, o.item)
	case KindSubtree:
		return e.root == o.root
	case KindReference:
		return e.ref.Equal(o.ref)
	}
	return false
}

func (e Element) String() string {
	switch e.kind {
	case KindItem:
		return fmt.Sprintf("Item(%d bytes)", len(e.item))
	case KindSubtree:
		return fmt.Sprintf("Subtree(%s)", e.root)
	case KindReference:
		return fmt.Sprintf("Reference(%s)", e.ref)
	default:
		return fmt.Sprintf("Element(kind %d)", e.kind)
	}
}

// validate checks invariants the constructors cannot enforce on literals,
// such as a reference with no target segments.
func (e Element) validate() error {
	switch e.kind {
	case KindItem, KindSubtree:
		return nil
	case KindReference:
		if len(e.ref) == 0 {
			return fmt.Errorf("%w: reference with empty target", ErrInvalidElement)
		}
		if err := e.ref.Validate(); err != nil {
			return fmt.Errorf("%w: reference target: %v", ErrInvalidElement, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidElement, e.kind)
	}
}

// Encode serializes e. The encoding is canonical: decoding and re-encoding
// any valid element reproduces the same bytes.
func (e Element) Encode() []byte {
	switch e.kind {
	case KindItem:
		out := make([]byte, 0, 1+len(e.item))
		out = append(out, byte(KindItem))
		return append(out, e.item...)
	case KindSubtree:
		out := make([]byte, 0, 1+avl.HashSize)
		out = append(out, byte(KindSubtree))
		return append(out, e.root[:]...)
	case KindReference:
		frame := e.ref.frame()
		out := make([]byte, 0, 1+len(frame))
		out = append(out, byte(KindReference))
		return append(out, frame...)
	default:
		panic(fmt.Sprintf("grovedb: encoding element of unknown kind %d", e.kind))
	}
}

// DecodeElement parses stored element bytes.
func DecodeElement(data []byte) (Element, error) {
	if len(data) == 0 {
		return Element{}, fmt.Errorf("%w: empty encoding", ErrInvalidElement)
	}
	kind, rest := ElementKind(data[0]), data[1:]
	switch kind {
	case KindItem:
		return NewItem(rest), nil
	case KindSubtree:
		if len(rest) != avl.HashSize {
			return Element{}, fmt.Errorf("%w: subtree anchor with %d hash bytes, want %d",
				ErrInvalidElement, len(rest), avl.HashSize)
		}
		root, err := avl.HashFromBytes(rest)
		if err != nil {
			return Element{}, fmt.Errorf("%w: %v", ErrInvalidElement, err)
		}
		return NewSubtree(root), nil
	case KindReference:
		target, err := decodeRefTarget(rest)
		if err != nil {
			return Element{}, err
		}
		return Element{kind: KindReference, ref: target}, nil
	default:
		return Element{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidElement, kind)
	}
}

func decodeRefTarget(data []byte) (Path, error) {
	var target Path
	for len(data) > 0 {
		slen, read := binary.Uvarint(data)
		if read <= 0 {
			return nil, fmt.Errorf("%w: bad reference segment length", ErrInvalidElement)
		}
		data = data[read:]
		if slen == 0 {
			return nil, fmt.Errorf("%w: empty reference segment", ErrInvalidElement)
		}
		if uint64(len(data)) < slen {
			return nil, fmt.Errorf("%w: truncated reference segment", ErrInvalidElement)
		}
		target = append(target, append([]byte(nil), data[:slen]...))
		data = data[slen:]
	}
	if len(target) == 0 {
		return nil, fmt.Errorf("%w: reference with empty target", ErrInvalidElement)
	}
	return target, nil
}
