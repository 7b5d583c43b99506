package service

import (
	"context"
	"math/big"
	"testing"

	"github.com/sparsekv/smtkv/pkg/engine"
	"github.com/sparsekv/smtkv/pkg/field"
	"github.com/sparsekv/smtkv/pkg/merkle"
	"github.com/sparsekv/smtkv/pkg/store"
)

func encodeForTest(v *big.Int) []byte {
	enc := field.Encode(v)
	return enc[:]
}

func newTestService() (*Service, store.ContractID) {
	var contract store.ContractID
	contract[0] = 0x01
	e := engine.New(store.NewMemStore())
	return New(e, false, store.ContractID{}).WithTestOverride(contract), contract
}

func TestSetLeafWithDataOnlyDerivesHash(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	data := make([]byte, 32)
	data[0] = 5

	proof, err := svc.SetLeaf(ctx, nil, merkle.FirstLeafIndex, data, nil, merkle.ProofV0)
	if err != nil {
		t.Fatalf("SetLeaf: %v", err)
	}
	if proof == nil {
		t.Fatalf("expected a proof for ProofV0")
	}
}

func TestSetLeafRejectsEmptyPayload(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SetLeaf(ctx, nil, merkle.FirstLeafIndex, nil, nil, merkle.ProofEmpty); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestSetLeafWithOnlyHashRequiresExistingData(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	hash := make([]byte, 32)
	hash[31] = 1
	if _, err := svc.SetLeaf(ctx, nil, merkle.FirstLeafIndex, nil, hash, merkle.ProofEmpty); err == nil {
		t.Fatalf("expected error for hash with no prior data record")
	}
}

func TestGetLeafFastPathSkipsProof(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	data := make([]byte, 32)
	data[0] = 9
	if _, err := svc.SetLeaf(ctx, nil, merkle.FirstLeafIndex, data, nil, merkle.ProofEmpty); err != nil {
		t.Fatalf("SetLeaf: %v", err)
	}

	leaf, _, err := svc.GetLeaf(ctx, nil, merkle.FirstLeafIndex, nil, merkle.ProofV0)
	if err != nil {
		t.Fatalf("GetLeaf full walk: %v", err)
	}

	gotLeaf, proof, err := svc.GetLeaf(ctx, nil, merkle.FirstLeafIndex, encodeForTest(leaf.Hash), merkle.ProofEmpty)
	if err != nil {
		t.Fatalf("GetLeaf fast path: %v", err)
	}
	if proof != nil {
		t.Fatalf("expected fast path to skip proof assembly")
	}
	if gotLeaf.Hash.Cmp(leaf.Hash) != 0 {
		t.Fatalf("fast path leaf mismatch")
	}
}

func TestResolveContractPriority(t *testing.T) {
	e := engine.New(store.NewMemStore())

	var want store.ContractID
	want[0] = 0x42
	svc := New(e, true, want)

	contract, err := svc.resolveContract(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolveContract with default allowed: %v", err)
	}
	if contract != want {
		t.Fatalf("expected configured default contract, got %x", contract)
	}

	svc2 := New(e, false, want)
	if _, err := svc2.resolveContract(context.Background(), nil); err == nil {
		t.Fatalf("expected error when default contract is disabled and nothing else resolves")
	}
}
