// Package field implements the 32-byte little-endian encoding of BN254
// scalar-field elements used on the wire (spec §3 "Field element"). Every
// stored Hash is a valid field element; not every 32-byte string is, so
// Decode rejects integers at or above the field modulus.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Size is the canonical byte width of an encoded field element.
const Size = fr.Bytes

// ErrNotAFieldElement is returned by Decode when the supplied integer is
// greater than or equal to the BN254 scalar-field modulus.
var ErrNotAFieldElement = fmt.Errorf("value is not a valid field element (>= modulus)")

// Modulus returns the BN254 scalar-field prime.
func Modulus() *big.Int {
	return fr.Modulus()
}

// Decode parses 32 little-endian bytes into a field element, returning
// ErrNotAFieldElement when the integer is >= the field modulus. gnark-crypto's
// fr.Element stores its canonical form big-endian, so the input is reversed
// before the range check.
func Decode(b []byte) (*big.Int, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("field element must be exactly %d bytes, got %d", Size, len(b))
	}

	v := new(big.Int).SetBytes(reversed(b))
	if v.Cmp(Modulus()) >= 0 {
		return nil, ErrNotAFieldElement
	}
	return v, nil
}

// Encode serializes a field element as 32 little-endian bytes. v is reduced
// modulo the field first (fr.Element.SetBigInt), so a value at or above the
// modulus is encoded as its residue.
func Encode(v *big.Int) [Size]byte {
	var elem fr.Element
	elem.SetBigInt(v)
	be := elem.Bytes() // canonical big-endian
	var out [Size]byte
	copy(out[:], reversed(be[:]))
	return out
}

// IsValid reports whether b decodes to a field element without error.
func IsValid(b []byte) bool {
	_, err := Decode(b)
	return err == nil
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
