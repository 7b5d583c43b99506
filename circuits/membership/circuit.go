// Package membership is the in-circuit counterpart of pkg/merkle.Proof: it
// verifies a ProofV0 inclusion proof against a fixed-height-32 sparse
// Merkle tree using the same Poseidon2 Merkle-Damgard hasher as the
// off-circuit engine, so a downstream ZK circuit can consume
// pkg/merkle.Proof values directly as witnesses.
package membership

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/sparsekv/smtkv/pkg/merkle"
)

// Height mirrors pkg/merkle.Height; duplicated as a circuit-local constant
// because gnark array sizes must be compile-time constants.
const Height = merkle.Height

// Circuit proves that Source, walked up through Assist according to
// Directions, produces Root (spec §4.B "path", §4.D get_leaf_and_proof).
// Directions[i] == 1 means the sibling at that level is on the left (the
// current node is the right child), matching the parity rule in
// pkg/merkle.Proof.Verify.
type Circuit struct {
	Root   frontend.Variable `gnark:"root,public"`
	Source frontend.Variable `gnark:"source"`

	Assist     [Height]frontend.Variable `gnark:"assist"`
	Directions [Height]frontend.Variable `gnark:"directions"`
}

func (c *Circuit) Define(api frontend.API) error {
	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return err
	}
	hasher := hash.NewMerkleDamgardHasher(api, p, 0)

	current := c.Source
	for depth := Height - 1; depth >= 0; depth-- {
		sibling := c.Assist[depth]
		direction := c.Directions[depth]

		left := api.Select(direction, sibling, current)
		right := api.Select(direction, current, sibling)

		hasher.Reset()
		hasher.Write(left, right)
		current = hasher.Sum()
	}

	api.AssertIsEqual(current, c.Root)
	return nil
}

// Witness is the plain-Go assignment built from a pkg/merkle.Proof; Assign
// converts it into frontend.Variable values for witness construction.
type Witness struct {
	Root       *big.Int
	Source     *big.Int
	Assist     [Height]*big.Int
	Directions [Height]int
}

// WitnessFromProof derives the circuit witness from an inclusion proof,
// computing Directions from the leaf index's bit pattern exactly as
// pkg/merkle.Proof.Verify does.
func WitnessFromProof(p *merkle.Proof) (*Witness, error) {
	if len(p.Assist) != Height {
		return nil, fmt.Errorf("assist vector must have exactly %d entries, got %d", Height, len(p.Assist))
	}
	w := &Witness{Root: p.Root, Source: p.Source}

	offset := merkle.LeafOffset(p.Index)
	for depth := Height - 1; depth >= 0; depth-- {
		w.Assist[depth] = p.Assist[depth]
		if offset%2 == 1 {
			w.Directions[depth] = 1
		} else {
			w.Directions[depth] = 0
		}
		offset /= 2
	}
	return w, nil
}

// Assignment returns the gnark witness assignment for w.
func (w *Witness) Assignment() *Circuit {
	assigned := &Circuit{Root: w.Root, Source: w.Source}
	for i := 0; i < Height; i++ {
		assigned.Assist[i] = w.Assist[i]
		assigned.Directions[i] = w.Directions[i]
	}
	return assigned
}
