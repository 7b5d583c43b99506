package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/sparsekv/smtkv/pkg/engine"
	"github.com/sparsekv/smtkv/pkg/merkle"
	"github.com/sparsekv/smtkv/pkg/setup"
	"github.com/sparsekv/smtkv/pkg/store"
)

// ProofFixture holds the values needed for an on-chain verifier test.
type ProofFixture struct {
	SolidityProof [8]string `json:"solidity_proof"`
	Root          string    `json:"root"`
	Source        string    `json:"source"`
}

// ExportProofFixture sets one leaf in a fresh in-memory tree, proves its
// membership, and produces a deterministic fixture for Solidity tests.
// keysDir is the directory containing the proving and verifying keys.
func ExportProofFixture(keysDir string) ([]byte, error) {
	fmt.Println("Compiling circuit...")
	ccs, err := setup.CompileCircuit(&Circuit{})
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}

	fmt.Println("Loading keys...")
	pk, vk, err := setup.LoadKeys(keysDir, "membership")
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	contract := store.ContractID{}
	eng := engine.New(store.NewMemStore())

	leaf := merkle.Record{Index: merkle.FirstLeafIndex, Hash: big.NewInt(42)}
	ctx := context.Background()
	if _, err := eng.SetLeafAndProof(ctx, contract, leaf); err != nil {
		return nil, fmt.Errorf("set leaf: %w", err)
	}

	_, proof, err := eng.GetLeafAndProof(ctx, contract, leaf.Index)
	if err != nil {
		return nil, fmt.Errorf("get leaf proof: %w", err)
	}

	w, err := WitnessFromProof(proof)
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}

	assignment := w.Assignment()
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("create witness: %w", err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("extract public witness: %w", err)
	}

	fmt.Println("Generating proof...")
	zkProof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}
	if err := groth16.Verify(zkProof, vk, publicWitness); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	fmt.Println("Proof verified successfully in Go!")

	bn254Proof := zkProof.(*groth16bn254.Proof)

	aX, aY := new(big.Int), new(big.Int)
	bn254Proof.Ar.X.BigInt(aX)
	bn254Proof.Ar.Y.BigInt(aY)

	bX0, bX1, bY0, bY1 := new(big.Int), new(big.Int), new(big.Int), new(big.Int)
	bn254Proof.Bs.X.A0.BigInt(bX0)
	bn254Proof.Bs.X.A1.BigInt(bX1)
	bn254Proof.Bs.Y.A0.BigInt(bY0)
	bn254Proof.Bs.Y.A1.BigInt(bY1)

	cX, cY := new(big.Int), new(big.Int)
	bn254Proof.Krs.X.BigInt(cX)
	bn254Proof.Krs.Y.BigInt(cY)

	solidityProof := [8]*big.Int{aX, aY, bX1, bX0, bY1, bY0, cX, cY}

	fixture := ProofFixture{
		Root:   fmt.Sprintf("0x%064x", w.Root),
		Source: fmt.Sprintf("0x%064x", w.Source),
	}
	for i := 0; i < 8; i++ {
		fixture.SolidityProof[i] = fmt.Sprintf("0x%064x", solidityProof[i])
	}

	jsonOut, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal fixture: %w", err)
	}

	fmt.Println("\n=== PROOF FIXTURE (JSON) ===")
	fmt.Println(string(jsonOut))
	return jsonOut, nil
}
