package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/sparsekv/smtkv/pkg/merkle"
	"github.com/sparsekv/smtkv/pkg/poseidon"
	"github.com/sparsekv/smtkv/pkg/store"
)

func testContract() store.ContractID {
	var id store.ContractID
	id[0] = 0xAB
	return id
}

func TestGetRootDefaultsEmptyTree(t *testing.T) {
	e := New(store.NewMemStore())
	ctx := context.Background()
	contract := testContract()

	root, err := e.GetRoot(ctx, contract)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if root.Hash.Cmp(merkle.DefaultRoot()) != 0 {
		t.Fatalf("expected default root for empty tree")
	}
}

func leafHashFor(b byte) *big.Int {
	data := make([]byte, 32)
	data[0] = b
	h, err := poseidon.HashLeaf(data)
	if err != nil {
		panic(err)
	}
	return h
}

func TestSetLeafThenGetLeafVerifies(t *testing.T) {
	e := New(store.NewMemStore())
	ctx := context.Background()
	contract := testContract()

	leaf := merkle.NewLeafRecord(merkle.FirstLeafIndex, leafHashFor(1))
	proof, err := e.SetLeafAndProof(ctx, contract, leaf)
	if err != nil {
		t.Fatalf("SetLeafAndProof: %v", err)
	}
	if proof.Root.Cmp(merkle.DefaultRoot()) != 0 {
		t.Fatalf("write proof root should be the pre-write root")
	}

	got, readProof, err := e.GetLeafAndProof(ctx, contract, merkle.FirstLeafIndex)
	if err != nil {
		t.Fatalf("GetLeafAndProof: %v", err)
	}
	if got.Hash.Cmp(leaf.Hash) != 0 {
		t.Fatalf("leaf hash mismatch after write")
	}
	if !readProof.Verify() {
		t.Fatalf("expected read proof to verify")
	}

	newRoot, err := e.GetRoot(ctx, contract)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if readProof.Root.Cmp(newRoot.Hash) != 0 {
		t.Fatalf("read proof root should equal current root")
	}
}

func TestSetLeafIdempotentSameData(t *testing.T) {
	e := New(store.NewMemStore())
	ctx := context.Background()
	contract := testContract()

	leaf := merkle.NewLeafRecord(merkle.FirstLeafIndex+5, leafHashFor(9))
	if _, err := e.SetLeafAndProof(ctx, contract, leaf); err != nil {
		t.Fatalf("first SetLeafAndProof: %v", err)
	}
	rootAfterFirst, err := e.GetRoot(ctx, contract)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}

	if _, err := e.SetLeafAndProof(ctx, contract, leaf); err != nil {
		t.Fatalf("second SetLeafAndProof: %v", err)
	}
	rootAfterSecond, err := e.GetRoot(ctx, contract)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}

	if rootAfterFirst.Hash.Cmp(rootAfterSecond.Hash) != 0 {
		t.Fatalf("no-op write should leave the root unchanged")
	}
}

func TestSetLeafRejectsNonLeafIndex(t *testing.T) {
	e := New(store.NewMemStore())
	ctx := context.Background()
	contract := testContract()

	leaf := merkle.NewLeafRecord(0, leafHashFor(1))
	if _, err := e.SetLeafAndProof(ctx, contract, leaf); err == nil {
		t.Fatalf("expected error for non-leaf index")
	}
}

func TestTwoLeavesProduceConsistentParent(t *testing.T) {
	e := New(store.NewMemStore())
	ctx := context.Background()
	contract := testContract()

	leaf1 := merkle.NewLeafRecord(merkle.FirstLeafIndex, leafHashFor(1))
	leaf2 := merkle.NewLeafRecord(merkle.FirstLeafIndex+1, leafHashFor(2))

	if _, err := e.SetLeafAndProof(ctx, contract, leaf1); err != nil {
		t.Fatalf("set leaf1: %v", err)
	}
	if _, err := e.SetLeafAndProof(ctx, contract, leaf2); err != nil {
		t.Fatalf("set leaf2: %v", err)
	}

	parentIndex := merkle.Parent(merkle.FirstLeafIndex)
	expectedHash := poseidon.HashChildren(leaf1.Hash, leaf2.Hash)

	parent, err := e.GetNonLeaf(ctx, contract, parentIndex, expectedHash)
	if err != nil {
		t.Fatalf("GetNonLeaf: %v", err)
	}
	if parent.Left.Cmp(leaf1.Hash) != 0 || parent.Right.Cmp(leaf2.Hash) != 0 {
		t.Fatalf("parent children mismatch")
	}
}

func TestSetRootRejectsUnpersistedRecord(t *testing.T) {
	e := New(store.NewMemStore())
	ctx := context.Background()
	contract := testContract()

	bogus := merkle.NewInternalRecord(0, big.NewInt(1), big.NewInt(2))
	if err := e.SetRoot(ctx, contract, bogus); err == nil {
		t.Fatalf("expected error for root record never inserted via the merkle collection")
	}
}
