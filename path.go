package grovedb

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// Path addresses one subtree as the sequence of key segments leading to it
// from the hierarchy root. A nil or empty Path is the root subtree itself.
//
// Paths are treated as immutable: every accessor returns a copy, and the
// store never retains a caller's backing arrays.
type Path [][]byte

// NewPath builds a Path from copies of the given segments.
func NewPath(segments ...[]byte) Path {
	if len(segments) == 0 {
		return nil
	}
	p := make(Path, len(segments))
	for i, s := range segments {
		p[i] = append([]byte(nil), s...)
	}
	return p
}

// IsRoot reports whether p addresses the hierarchy root subtree.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Child returns the path of the subtree anchored under segment within p.
func (p Path) Child(segment []byte) Path {
	out := make(Path, 0, len(p)+1)
	for _, s := range p {
		out = append(out, append([]byte(nil), s...))
	}
	return append(out, append([]byte(nil), segment...))
}

// Parent returns the path of p's parent subtree. The parent of the root is
// the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return NewPath(p[:len(p)-1]...)
}

// Equal reports whether p and o name the same subtree.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !bytes.Equal(p[i], o[i]) {
			return false
		}
	}
	return true
}

// Validate checks p for structural validity. Segments are keys in their
// parent subtree and must not be empty.
func (p Path) Validate() error {
	for i, s := range p {
		if len(s) == 0 {
			return fmt.Errorf("%w: empty segment at index %d", ErrInvalidPath, i)
		}
	}
	return nil
}

// String renders p with hex-encoded segments, for logs and errors.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p {
		fmt.Fprintf(&b, "/%x", s)
	}
	return b.String()
}

// frame returns the length-framed concatenation of p's segments. Framing
// keeps distinct paths distinct even when their segment bytes concatenate
// equally.
func (p Path) frame() []byte {
	n := 0
	for _, s := range p {
		n += binary.MaxVarintLen64 + len(s)
	}
	buf := make([]byte, 0, n)
	for _, s := range p {
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	return buf
}

// Prefix returns the storage namespace of p's subtree. Every node and the
// root record of the subtree live under keys starting with this prefix.
func (p Path) Prefix() []byte {
	h := sha256.Sum256(p.frame())
	return h[:]
}
