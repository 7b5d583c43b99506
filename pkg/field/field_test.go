package field

import (
	"math/big"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(0xdeadbeef),
		new(big.Int).Sub(Modulus(), big.NewInt(1)),
	}

	for _, v := range values {
		enc := Encode(v)
		got, err := Decode(enc[:])
		if err != nil {
			t.Fatalf("Decode(%v) returned error: %v", v, err)
		}
		if got.Cmp(v) != 0 {
			t.Fatalf("round trip mismatch: want %v got %v", v, got)
		}
	}
}

func TestDecodeRejectsOutOfRange(t *testing.T) {
	var allFF [Size]byte
	for i := range allFF {
		allFF[i] = 0xff
	}
	if _, err := Decode(allFF[:]); err != ErrNotAFieldElement {
		t.Fatalf("expected ErrNotAFieldElement, got %v", err)
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	if _, err := Decode(make([]byte, Size-1)); err == nil {
		t.Fatal("expected error for short input")
	}
	if _, err := Decode(make([]byte, Size+1)); err == nil {
		t.Fatal("expected error for long input")
	}
}

func TestModulusTopByte(t *testing.T) {
	// Sanity: the modulus must be non-zero and fit in Size bytes.
	if Modulus().BitLen() > Size*8 {
		t.Fatalf("modulus unexpectedly wide: %d bits", Modulus().BitLen())
	}
}
