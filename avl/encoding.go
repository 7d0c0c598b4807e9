package avl

import (
	"encoding/binary"
	"fmt"
)

// Node records are stored under prefix∥'n'∥key and hold everything except
// the key itself, which is implied by the storage address:
//
//	valueHash[32] ∥ uvarint(len(value)) ∥ value ∥ flags ∥ [left] ∥ [right]
//
// flags bit 0 marks a present left child, bit 1 a present right child. Each
// present child is encoded as uvarint(len(key)) ∥ key ∥ hash[32] ∥ height.
// The node's own height is derived from the child heights on decode.
//
// The root record, stored under prefix∥'m', is a single child encoding for
// the root node, or the single byte 0 for an empty tree.

const (
	flagLeft  = 1 << 0
	flagRight = 1 << 1
)

func encodeNode(n *node) []byte {
	size := HashSize + uvarintLen(uint64(len(n.value))) + len(n.value) + 1
	if n.left != nil {
		size += linkEncodedLen(n.left)
	}
	if n.right != nil {
		size += linkEncodedLen(n.right)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, n.valueHash[:]...)
	buf = binary.AppendUvarint(buf, uint64(len(n.value)))
	buf = append(buf, n.value...)

	var flags byte
	if n.left != nil {
		flags |= flagLeft
	}
	if n.right != nil {
		flags |= flagRight
	}
	buf = append(buf, flags)
	if n.left != nil {
		buf = appendLink(buf, n.left)
	}
	if n.right != nil {
		buf = appendLink(buf, n.right)
	}
	return buf
}

// decodeNode parses a stored node record. The key and data slices are copied;
// the result does not alias storage buffers.
func decodeNode(key, data []byte) (*node, error) {
	n := &node{key: copyBytes(key)}

	if len(data) < HashSize {
		return nil, fmt.Errorf("%w: truncated value hash", ErrCorruptedNode)
	}
	copy(n.valueHash[:], data[:HashSize])
	data = data[HashSize:]

	vlen, read := binary.Uvarint(data)
	if read <= 0 {
		return nil, fmt.Errorf("%w: bad value length", ErrCorruptedNode)
	}
	data = data[read:]
	if uint64(len(data)) < vlen {
		return nil, fmt.Errorf("%w: truncated value", ErrCorruptedNode)
	}
	n.value = copyBytes(data[:vlen])
	data = data[vlen:]

	if len(data) < 1 {
		return nil, fmt.Errorf("%w: missing child flags", ErrCorruptedNode)
	}
	flags := data[0]
	data = data[1:]
	if flags&^(flagLeft|flagRight) != 0 {
		return nil, fmt.Errorf("%w: unknown child flags %#x", ErrCorruptedNode, flags)
	}

	var err error
	if flags&flagLeft != 0 {
		n.left, data, err = decodeLink(data)
		if err != nil {
			return nil, err
		}
	}
	if flags&flagRight != 0 {
		n.right, data, err = decodeLink(data)
		if err != nil {
			return nil, err
		}
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptedNode, len(data))
	}

	n.updateHeight()
	n.hashValid = false
	return n, nil
}

func linkEncodedLen(l *link) int {
	return uvarintLen(uint64(len(l.key))) + len(l.key) + HashSize + 1
}

func appendLink(buf []byte, l *link) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(l.key)))
	buf = append(buf, l.key...)
	buf = append(buf, l.hash[:]...)
	buf = append(buf, l.height)
	return buf
}

func decodeLink(data []byte) (*link, []byte, error) {
	klen, read := binary.Uvarint(data)
	if read <= 0 {
		return nil, nil, fmt.Errorf("%w: bad link key length", ErrCorruptedNode)
	}
	data = data[read:]
	if klen == 0 {
		return nil, nil, fmt.Errorf("%w: empty link key", ErrCorruptedNode)
	}
	if uint64(len(data)) < klen+HashSize+1 {
		return nil, nil, fmt.Errorf("%w: truncated link", ErrCorruptedNode)
	}
	l := &link{key: copyBytes(data[:klen])}
	data = data[klen:]
	copy(l.hash[:], data[:HashSize])
	data = data[HashSize:]
	l.height = data[0]
	if l.height == 0 {
		return nil, nil, fmt.Errorf("%w: zero link height", ErrCorruptedNode)
	}
	return l, data[1:], nil
}

func encodeRoot(l *link) []byte {
	if l == nil {
		return []byte{0}
	}
	buf := make([]byte, 0, linkEncodedLen(l))
	return appendLink(buf, l)
}

func decodeRoot(data []byte) (*link, error) {
	if len(data) == 1 && data[0] == 0 {
		return nil, nil
	}
	l, rest, err := decodeLink(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in root record", ErrCorruptedNode, len(rest))
	}
	return l, nil
}

// EncodeRootRecord serializes r in the root record format Apply and
// EnsureCreated write under MetaKey.
func EncodeRootRecord(r Root) []byte {
	if r.Empty() {
		return encodeRoot(nil)
	}
	return encodeRoot(&link{key: r.Key, hash: r.Hash, height: r.Height})
}

// DecodeRootRecord parses a stored root record.
func DecodeRootRecord(data []byte) (Root, error) {
	l, err := decodeRoot(data)
	if err != nil {
		return Root{}, err
	}
	if l == nil {
		return Root{}, nil
	}
	return Root{Key: l.key, Hash: l.hash, Height: l.height}, nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
