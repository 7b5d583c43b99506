package poseidon

import (
	"math/big"
	"testing"

	"github.com/sparsekv/smtkv/pkg/field"
)

func TestHashChildrenDeterministic(t *testing.T) {
	a := big.NewInt(1)
	b := big.NewInt(2)

	h1 := HashChildren(a, b)
	h2 := HashChildren(a, b)
	if h1.Cmp(h2) != 0 {
		t.Fatal("HashChildren is not deterministic")
	}

	h3 := HashChildren(b, a)
	if h1.Cmp(h3) == 0 {
		t.Fatal("HashChildren must not be symmetric in its arguments")
	}
}

func TestHashLeafRejectsWrongSize(t *testing.T) {
	if _, err := HashLeaf(make([]byte, 31)); err == nil {
		t.Fatal("expected error for 31-byte preimage")
	}
	if _, err := HashLeaf(make([]byte, 33)); err == nil {
		t.Fatal("expected error for 33-byte preimage")
	}
	if _, err := HashLeaf(make([]byte, 32)); err != nil {
		t.Fatalf("unexpected error for 32-byte preimage: %v", err)
	}
}

func TestValidateChildrenAndData(t *testing.T) {
	a := big.NewInt(10)
	b := big.NewInt(20)
	h := HashChildren(a, b)

	if err := ValidateChildren(h, a, b); err != nil {
		t.Fatalf("ValidateChildren: %v", err)
	}
	if err := ValidateChildren(big.NewInt(0), a, b); err == nil {
		t.Fatal("expected mismatch error")
	}

	data := make([]byte, 32)
	data[0] = 0x42
	leafHash, err := HashLeaf(data)
	if err != nil {
		t.Fatalf("HashLeaf: %v", err)
	}
	if err := ValidateData(leafHash, data); err != nil {
		t.Fatalf("ValidateData: %v", err)
	}
	if err := ValidateData(big.NewInt(1), data); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestHashOverFieldElements(t *testing.T) {
	one := field.Encode(big.NewInt(1))
	got, err := Hash([][]byte{one[:]})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if got.Sign() == 0 {
		t.Fatal("expected a non-zero hash")
	}
}
