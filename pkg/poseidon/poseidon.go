// Package poseidon wires the two Poseidon hashers the engine needs: the
// sibling hasher (hash_children) and the leaf hasher (hash_leaf). Both use
// gnark-crypto's bn254 Poseidon2 permutation with that package's default
// parameters (width 2, 6 full / 50 partial rounds, the same set the
// membership circuit instantiates) in its Merkle-Damgard mode: the elements
// are written and Sum folds each one into the running state with one
// compression, with no separate squeeze step. This is not the classic
// Poseidon t=3, rate=2, 8 full / 57 partial rounds sponge, and the result
// is not a single permutation over the padded input.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"github.com/sparsekv/smtkv/pkg/field"
)

// HashChildren absorbs the left and right child hashes through the sibling
// hasher and returns the parent hash. A fresh hasher is constructed per
// call (spec §5: "Poseidon hashers are not shared").
func HashChildren(left, right *big.Int) *big.Int {
	h := poseidon2.NewMerkleDamgardHasher()

	var l, r fr.Element
	l.SetBigInt(left)
	r.SetBigInt(right)
	lb := l.Bytes()
	rb := r.Bytes()

	h.Write(lb[:])
	h.Write(rb[:])

	return new(big.Int).SetBytes(h.Sum(nil))
}

// HashLeaf splits a 32-byte preimage into two 16-byte halves, right-pads
// each to a 32-byte field-element encoding, and absorbs both through the
// leaf hasher. preimage must be exactly 32 bytes (spec §9 Open Question 3:
// reject non-32-byte preimages at the edge).
func HashLeaf(preimage []byte) (*big.Int, error) {
	if len(preimage) != 32 {
		return nil, fmt.Errorf("leaf preimage must be exactly 32 bytes, got %d", len(preimage))
	}

	h := poseidon2.NewMerkleDamgardHasher()

	for _, half := range [][]byte{preimage[:16], preimage[16:]} {
		var buf [32]byte
		copy(buf[:16], half)
		var e fr.Element
		e.SetBytes(buf[:])
		eb := e.Bytes()
		h.Write(eb[:])
	}

	return new(big.Int).SetBytes(h.Sum(nil)), nil
}

// ValidateChildren returns an error unless h == HashChildren(left, right).
func ValidateChildren(h, left, right *big.Int) error {
	want := HashChildren(left, right)
	if want.Cmp(h) != 0 {
		return fmt.Errorf("hash mismatch: HashChildren(left, right) = %s, expected %s", want, h)
	}
	return nil
}

// ValidateData returns an error unless h == HashLeaf(data).
func ValidateData(h *big.Int, data []byte) error {
	want, err := HashLeaf(data)
	if err != nil {
		return err
	}
	if want.Cmp(h) != 0 {
		return fmt.Errorf("hash mismatch: HashLeaf(data) = %s, expected %s", want, h)
	}
	return nil
}

// Hash exposes the sibling hasher as a general-purpose Poseidon hash over an
// arbitrary number of field elements, backing the PoseidonHash RPC (spec
// §4.E operation table; see original_source/src/service.rs's poseidon_hash
// test helper). Each element is decoded with field.Decode and is not
// reduced: an element that is not exactly 32 bytes, or whose little-endian
// value is at or above the field modulus, makes Hash return an error.
func Hash(elements [][]byte) (*big.Int, error) {
	h := poseidon2.NewMerkleDamgardHasher()
	for _, raw := range elements {
		v, err := field.Decode(raw)
		if err != nil {
			return nil, err
		}
		var e fr.Element
		e.SetBigInt(v)
		eb := e.Bytes()
		h.Write(eb[:])
	}
	return new(big.Int).SetBytes(h.Sum(nil)), nil
}
