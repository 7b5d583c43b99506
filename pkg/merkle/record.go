package merkle

import (
	"math/big"

	"github.com/sparsekv/smtkv/pkg/poseidon"
)

// Record is a Merkle record, internal or leaf (spec §3 "Merkle record").
// For leaves, Left and Right are unused (zero). For internals,
// Hash == HashChildren(Left, Right) (invariant I1).
type Record struct {
	Index uint64
	Hash  *big.Int
	Left  *big.Int
	Right *big.Int
}

// IsLeaf reports whether r occupies a leaf position.
func (r Record) IsLeaf() bool {
	return NodeKind(r.Index) == KindLeaf
}

// ValidateInternal checks invariant I1 for a non-leaf record.
func (r Record) ValidateInternal() error {
	return poseidon.ValidateChildren(r.Hash, r.Left, r.Right)
}

// DataRecord maps a Poseidon leaf-data digest to its preimage (spec §3
// "Data-hash record"). Data is a variable-length byte string, a multiple
// of 32 bytes; for the leaf-hash construction (spec §4.A) it must be
// exactly 32 bytes.
type DataRecord struct {
	Hash *big.Int
	Data []byte
}

// Validate checks invariant I2 for a leaf built directly from data
// (the {data, —} SetLeaf case); it is not applicable when the caller
// supplied an explicit hash (spec §4.E SetLeaf payload resolution).
func (d DataRecord) Validate() error {
	return poseidon.ValidateData(d.Hash, d.Data)
}

// NewLeafRecord builds a leaf record from a precomputed hash; data, if
// any, is tracked separately in the data-hash collection (spec §4.C).
func NewLeafRecord(index uint64, hash *big.Int) Record {
	zero := new(big.Int)
	return Record{Index: index, Hash: hash, Left: zero, Right: zero}
}

// NewInternalRecord builds an internal record, re-deriving its hash from
// its children via the sibling hasher.
func NewInternalRecord(index uint64, left, right *big.Int) Record {
	return Record{Index: index, Hash: poseidon.HashChildren(left, right), Left: left, Right: right}
}
