package lmtht

import "github.com/dapperlabs/lmtht/lmtht/model"

// MaxPayloadSize is the largest payload an entry may carry: 2^31 - 1
// bytes. The high bit of the on-disk payload_len field must be zero.
const MaxPayloadSize = 0x7FFFFFFF

// MaxINodesPerEntry bounds nI, the one-byte count of internal nodes an
// entry may carry.
const MaxINodesPerEntry = 255

// magic is the three-byte storage identifier every file begins with.
var magic = [3]byte{0x01, 0xF3, 0x33}

// storageVersion is the version byte written after magic. A reader
// refuses to open any file whose version byte exceeds this.
const storageVersion = 1

// headerSize is the fixed 4-byte prefix (magic + version) every storage
// file begins with.
const headerSize = 4

// NodeRef is a node address paired with the byte offset of the entry
// that contains it — everything needed to seek straight to a node
// without re-deriving its position from the geometry model.
type NodeRef struct {
	Pos int64
	I   model.Index
	J   uint8
}

// Addr returns the bare (i,j) address, discarding position.
func (n NodeRef) Addr() model.Address {
	return model.Address{I: n.I, J: n.J}
}

// INodeRecord is one internal node as stored in an entry: its height,
// its left child (resolved against an earlier entry), and its digest.
// The right child is never stored explicitly — it is always (entry.I,
// J-1), living in the same entry (the leaf, when J==1).
type INodeRecord struct {
	J    uint8
	Left NodeRef
	Hash []byte
}

// Entry is one contiguous on-disk record: a leaf (ENode) plus zero or
// more internal nodes freshly produced by appending that leaf, listed
// bottom-up.
type Entry struct {
	// Position is the byte offset at which this entry begins. It is not
	// itself serialized — it is where the entry was found, not a field
	// within it.
	Position int64

	I        model.Index
	Payload  []byte
	LeafHash []byte
	INodes   []INodeRecord
}

// Root returns the address and digest of this entry's root node: the
// last INode if any were produced, otherwise the leaf itself.
func (e *Entry) Root() (model.Address, []byte) {
	if len(e.INodes) == 0 {
		return model.Address{I: e.I, J: 0}, e.LeafHash
	}
	last := e.INodes[len(e.INodes)-1]
	return model.Address{I: e.I, J: last.J}, last.Hash
}

// INode looks up the internal node at height j within this entry, or
// reports found=false if the entry didn't produce one at that height
// (e.g. the first entry, or a height above this entry's root).
func (e *Entry) INode(j uint8) (INodeRecord, bool) {
	if j == 0 || int(j) > len(e.INodes) {
		return INodeRecord{}, false
	}
	return e.INodes[j-1], true
}
