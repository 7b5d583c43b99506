package membership

import (
	"context"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/sparsekv/smtkv/pkg/engine"
	"github.com/sparsekv/smtkv/pkg/merkle"
	"github.com/sparsekv/smtkv/pkg/setup"
	"github.com/sparsekv/smtkv/pkg/store"
)

func TestWitnessFromProofDirections(t *testing.T) {
	assist := make([]*big.Int, Height)
	for i := range assist {
		assist[i] = big.NewInt(int64(i + 1))
	}
	proof := &merkle.Proof{
		Source: big.NewInt(1),
		Root:   big.NewInt(2),
		Assist: assist,
		Index:  merkle.FirstLeafIndex + 1, // offset 1: odd at depth Height-1
	}

	w, err := WitnessFromProof(proof)
	if err != nil {
		t.Fatalf("WitnessFromProof: %v", err)
	}
	if w.Directions[Height-1] != 1 {
		t.Fatalf("expected sibling-left direction at the bottom level for an odd offset")
	}
}

func TestWitnessFromProofRejectsShortAssist(t *testing.T) {
	proof := &merkle.Proof{Source: big.NewInt(1), Root: big.NewInt(2), Assist: []*big.Int{big.NewInt(3)}, Index: merkle.FirstLeafIndex}
	if _, err := WitnessFromProof(proof); err == nil {
		t.Fatalf("expected error for short assist vector")
	}
}

// TestCircuitEndToEnd compiles the circuit, performs a dev setup, sets a
// leaf in a fresh in-memory tree, derives its inclusion proof, and proves
// and verifies membership against the real Poseidon2 hash chain.
func TestCircuitEndToEnd(t *testing.T) {
	ccs, err := setup.CompileCircuit(&Circuit{})
	if err != nil {
		t.Fatalf("compile circuit: %v", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		t.Fatalf("groth16 setup: %v", err)
	}

	var contract store.ContractID
	contract[0] = 0x07
	eng := engine.New(store.NewMemStore())
	ctx := context.Background()

	leaf := merkle.Record{Index: merkle.FirstLeafIndex + 3, Hash: big.NewInt(99)}
	if _, err := eng.SetLeafAndProof(ctx, contract, leaf); err != nil {
		t.Fatalf("set leaf: %v", err)
	}

	_, proof, err := eng.GetLeafAndProof(ctx, contract, leaf.Index)
	if err != nil {
		t.Fatalf("get leaf proof: %v", err)
	}
	if proof.Source.Cmp(leaf.Hash) != 0 {
		t.Fatalf("proof source does not match the written leaf hash")
	}

	w, err := WitnessFromProof(proof)
	if err != nil {
		t.Fatalf("build witness: %v", err)
	}

	witness, err := frontend.NewWitness(w.Assignment(), ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("create witness: %v", err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		t.Fatalf("extract public witness: %v", err)
	}

	zkProof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if err := groth16.Verify(zkProof, vk, publicWitness); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

// TestCircuitRejectsWrongRoot confirms a witness claiming membership under
// a root that doesn't match the assist chain fails to prove.
func TestCircuitRejectsWrongRoot(t *testing.T) {
	ccs, err := setup.CompileCircuit(&Circuit{})
	if err != nil {
		t.Fatalf("compile circuit: %v", err)
	}
	pk, _, err := groth16.Setup(ccs)
	if err != nil {
		t.Fatalf("groth16 setup: %v", err)
	}

	var contract store.ContractID
	contract[0] = 0x08
	eng := engine.New(store.NewMemStore())
	ctx := context.Background()

	leaf := merkle.Record{Index: merkle.FirstLeafIndex + 5, Hash: big.NewInt(123)}
	if _, err := eng.SetLeafAndProof(ctx, contract, leaf); err != nil {
		t.Fatalf("set leaf: %v", err)
	}
	_, proof, err := eng.GetLeafAndProof(ctx, contract, leaf.Index)
	if err != nil {
		t.Fatalf("get leaf proof: %v", err)
	}

	w, err := WitnessFromProof(proof)
	if err != nil {
		t.Fatalf("build witness: %v", err)
	}
	w.Root = new(big.Int).Add(w.Root, big.NewInt(1))

	witness, err := frontend.NewWitness(w.Assignment(), ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("create witness: %v", err)
	}

	if _, err := groth16.Prove(ccs, pk, witness); err == nil {
		t.Fatalf("expected proving to fail for a tampered root")
	}
}
