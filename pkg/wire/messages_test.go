package wire

import (
	"math/big"
	"testing"

	"github.com/sparsekv/smtkv/pkg/merkle"
)

func TestGetLeafRequestRoundTrip(t *testing.T) {
	req := &GetLeafRequest{
		ContractID: []byte{1, 2, 3},
		Index:      merkle.FirstLeafIndex + 4,
		Hash:       nil,
		ProofType:  merkle.ProofV0,
	}
	data, err := MarshalGetLeafRequest(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := UnmarshalGetLeafRequest(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Index != req.Index || got.ProofType != req.ProofType || len(got.ContractID) != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestNodeRoundTripLeafAndNonLeaf(t *testing.T) {
	leaf := Node{Index: merkle.FirstLeafIndex, Hash: big.NewInt(42), NodeType: NodeTypeLeaf, Data: []byte("hello")}
	resp := &GetLeafResponse{Leaf: leaf, Proof: Proof{ProofType: merkle.ProofEmpty}}
	data, err := MarshalGetLeafResponse(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := UnmarshalGetLeafResponse(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Leaf.Hash.Cmp(leaf.Hash) != 0 || string(got.Leaf.Data) != "hello" {
		t.Fatalf("leaf round trip mismatch: %+v", got.Leaf)
	}

	nonLeaf := Node{Index: 0, Hash: big.NewInt(7), NodeType: NodeTypeNonLeaf, Left: big.NewInt(1), Right: big.NewInt(2)}
	resp2 := &GetNonLeafResponse{Node: nonLeaf}
	data2, err := MarshalGetNonLeafResponse(resp2)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got2, err := UnmarshalGetNonLeafResponse(data2)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got2.Node.Left.Cmp(nonLeaf.Left) != 0 || got2.Node.Right.Cmp(nonLeaf.Right) != 0 {
		t.Fatalf("non-leaf round trip mismatch: %+v", got2.Node)
	}
}

func TestPoseidonHashRequestRoundTrip(t *testing.T) {
	req := &PoseidonHashRequest{Elements: [][]byte{{1}, {2}, {3}}}
	data, err := MarshalPoseidonHashRequest(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := UnmarshalPoseidonHashRequest(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got.Elements))
	}
}
