package merkle

import (
	"math/big"
	"testing"
)

func TestNodeKindBoundaries(t *testing.T) {
	if NodeKind(0) != KindNonLeaf {
		t.Fatalf("root should be non-leaf")
	}
	if NodeKind(FirstLeafIndex-1) != KindNonLeaf {
		t.Fatalf("index before first leaf should be non-leaf")
	}
	if NodeKind(FirstLeafIndex) != KindLeaf {
		t.Fatalf("FirstLeafIndex should be a leaf")
	}
	if NodeKind(LastLeafIndex) != KindLeaf {
		t.Fatalf("LastLeafIndex should be a leaf")
	}
	if NodeKind(LastLeafIndex+1) != KindInvalid {
		t.Fatalf("index beyond LastLeafIndex should be invalid")
	}
}

func TestDepthRootAndLeaves(t *testing.T) {
	if Depth(0) != 0 {
		t.Fatalf("root depth should be 0, got %d", Depth(0))
	}
	if Depth(FirstLeafIndex) != Height {
		t.Fatalf("leaf depth should be %d, got %d", Height, Depth(FirstLeafIndex))
	}
}

func TestSiblingAndParentInverse(t *testing.T) {
	idx := FirstLeafIndex + 12345
	sib := Sibling(idx)
	if Sibling(sib) != idx {
		t.Fatalf("sibling should be involutive")
	}
	if Parent(idx) != Parent(sib) {
		t.Fatalf("index and its sibling should share a parent")
	}
}

func TestPathLength(t *testing.T) {
	path, err := Path(FirstLeafIndex + 7)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if len(path) != Height {
		t.Fatalf("path should have %d entries, got %d", Height, len(path))
	}
	if path[Height-1] != FirstLeafIndex+7 {
		t.Fatalf("last path entry should be the leaf itself")
	}
	for i := 0; i < Height-1; i++ {
		if Parent(path[i+1]) != path[i] {
			t.Fatalf("path entry %d is not the parent of entry %d", i, i+1)
		}
	}
}

func TestPathRejectsNonLeaf(t *testing.T) {
	if _, err := Path(0); err == nil {
		t.Fatalf("expected error for non-leaf index")
	}
}

func TestDefaultHashesLengthAndDeterministic(t *testing.T) {
	a := DefaultHashes()
	b := DefaultHashes()
	if len(a) != Height+1 {
		t.Fatalf("expected %d default hashes, got %d", Height+1, len(a))
	}
	for i := range a {
		if a[i].Cmp(b[i]) != 0 {
			t.Fatalf("default hashes must be deterministic across calls")
		}
	}
	if DefaultRoot().Cmp(a[Height]) != 0 {
		t.Fatalf("DefaultRoot must equal the top default hash")
	}
}

func TestDefaultRecordLeafAndInternal(t *testing.T) {
	leaf := DefaultRecord(FirstLeafIndex)
	if !leaf.IsLeaf() {
		t.Fatalf("expected leaf record")
	}
	internal := DefaultRecord(0)
	if internal.IsLeaf() {
		t.Fatalf("expected internal record")
	}
	if err := internal.ValidateInternal(); err != nil {
		t.Fatalf("default internal record should validate: %v", err)
	}
}

func TestProofVerifyRoundTrip(t *testing.T) {
	leafIndex := FirstLeafIndex + 100
	source := big.NewInt(42)

	path, err := Path(leafIndex)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}

	assist := make([]*big.Int, Height)
	cur := source
	offset := LeafOffset(leafIndex)
	for depth := Height - 1; depth >= 0; depth-- {
		sib := DefaultForDepth(uint(depth + 1))
		assist[depth] = sib
		if offset%2 == 1 {
			cur = NewInternalRecord(path[depth], sib, cur).Hash
		} else {
			cur = NewInternalRecord(path[depth], cur, sib).Hash
		}
		offset /= 2
	}

	proof := &Proof{Source: source, Root: cur, Assist: assist, Index: leafIndex}
	if !proof.Verify() {
		t.Fatalf("expected proof to verify")
	}

	proof.Root = big.NewInt(999)
	if proof.Verify() {
		t.Fatalf("expected tampered root to fail verification")
	}
}

func TestProofSerializeRoundTrip(t *testing.T) {
	assist := make([]*big.Int, Height)
	for i := range assist {
		assist[i] = DefaultForDepth(uint(i + 1))
	}
	proof := &Proof{
		Source: big.NewInt(7),
		Root:   DefaultRoot(),
		Assist: assist,
		Index:  FirstLeafIndex + 1,
	}

	data, err := proof.SerializeV0()
	if err != nil {
		t.Fatalf("SerializeV0: %v", err)
	}

	got, err := DeserializeV0(data)
	if err != nil {
		t.Fatalf("DeserializeV0: %v", err)
	}
	if got.Source.Cmp(proof.Source) != 0 || got.Root.Cmp(proof.Root) != 0 || got.Index != proof.Index {
		t.Fatalf("round trip mismatch")
	}
	if len(got.Assist) != Height {
		t.Fatalf("assist length mismatch")
	}
}

func TestProofSerializeRejectsWrongAssistLength(t *testing.T) {
	proof := &Proof{Source: big.NewInt(1), Root: big.NewInt(2), Assist: []*big.Int{big.NewInt(3)}, Index: FirstLeafIndex}
	if _, err := proof.SerializeV0(); err == nil {
		t.Fatalf("expected error for wrong assist length")
	}
}
