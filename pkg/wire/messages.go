// Package wire defines the request/response messages of the RPC surface
// (spec §6) and their byte encoding. The service is transported over
// google.golang.org/grpc using a custom codec (see pkg/rpcserver) rather
// than protoc-generated stubs, so these types are plain Go structs with
// hand-written Marshal/Unmarshal pairs instead of protobuf-generated code.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/sparsekv/smtkv/pkg/field"
	"github.com/sparsekv/smtkv/pkg/merkle"
)

// NodeType is the wire tag for Node.node_type (spec §6).
type NodeType uint8

const (
	NodeTypeLeaf NodeType = iota
	NodeTypeNonLeaf
)

// Node mirrors the IDL's Node message: an index, its hash, and either leaf
// data or the hashes of its two children.
type Node struct {
	Index    uint64
	Hash     *big.Int
	NodeType NodeType
	Data     []byte   // leaf preimage, only for NodeTypeLeaf; empty unless the caller supplied it
	Left     *big.Int // set iff NodeType == NodeTypeNonLeaf
	Right    *big.Int // set iff NodeType == NodeTypeNonLeaf
}

// NodeFromRecord builds the wire Node for rec; data is supplied by the
// caller when the leaf's preimage is known (it is not recoverable from the
// Merkle record alone).
func NodeFromRecord(rec merkle.Record, data []byte) Node {
	if rec.IsLeaf() {
		return Node{Index: rec.Index, Hash: rec.Hash, NodeType: NodeTypeLeaf, Data: data}
	}
	return Node{Index: rec.Index, Hash: rec.Hash, NodeType: NodeTypeNonLeaf, Left: rec.Left, Right: rec.Right}
}

// Proof mirrors the IDL's Proof message.
type Proof struct {
	ProofType merkle.ProofType
	Bytes     []byte
}

// ProofFromEngine encodes an engine-computed proof per proofType (spec
// §4.E "Proof emission"); ProofEmpty produces an empty Proof.
func ProofFromEngine(proofType merkle.ProofType, p *merkle.Proof) (Proof, error) {
	if proofType == merkle.ProofEmpty || p == nil {
		return Proof{ProofType: merkle.ProofEmpty}, nil
	}
	b, err := p.SerializeV0()
	if err != nil {
		return Proof{}, fmt.Errorf("serialize proof: %w", err)
	}
	return Proof{ProofType: merkle.ProofV0, Bytes: b}, nil
}

// --- Requests / responses -------------------------------------------------

type GetRootRequest struct {
	ContractID []byte
}

type GetRootResponse struct {
	Root Node
}

type SetRootRequest struct {
	ContractID []byte
	Index      uint64
	Hash       []byte
}

type SetRootResponse struct{}

type GetLeafRequest struct {
	ContractID []byte
	Index      uint64
	Hash       []byte // optional fast-path hash
	ProofType  merkle.ProofType
}

type GetLeafResponse struct {
	Leaf  Node
	Proof Proof
}

type SetLeafRequest struct {
	ContractID []byte
	Index      uint64
	Data       []byte // optional
	Hash       []byte // optional
	ProofType  merkle.ProofType
}

type SetLeafResponse struct {
	Proof Proof
}

type GetNonLeafRequest struct {
	ContractID []byte
	Index      uint64
	Hash       []byte
}

type GetNonLeafResponse struct {
	Node Node
}

type SetNonLeafRequest struct {
	ContractID []byte
	Index      uint64
	Left       []byte
	Right      []byte
}

type SetNonLeafResponse struct{}

type PoseidonHashRequest struct {
	Elements [][]byte
}

type PoseidonHashResponse struct {
	Hash []byte
}

// --- encoding helpers ------------------------------------------------------
//
// Every message is encoded as a flat sequence of length-prefixed byte
// fields (4-byte little-endian length + payload) in declaration order, and
// fixed-width fields (uint64, the ProofType/NodeType tag byte) inline.
// This keeps the codec trivial and independent of any IDL compiler while
// remaining a stable, documented byte layout (mirrors the bit-exact style
// of ProofV0 in pkg/merkle).

func writeBytes(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func encodeFieldOrNil(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	enc := field.Encode(v)
	return enc[:]
}

func decodeFieldOrNil(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return field.Decode(b)
}

func MarshalGetLeafRequest(req *GetLeafRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBytes(&buf, req.ContractID); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, req.Index); err != nil {
		return nil, err
	}
	if err := writeBytes(&buf, req.Hash); err != nil {
		return nil, err
	}
	if err := buf.WriteByte(byte(req.ProofType)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalGetLeafRequest(data []byte) (*GetLeafRequest, error) {
	r := bytes.NewReader(data)
	contractID, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read contract_id: %w", err)
	}
	var index uint64
	if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	hash, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read hash: %w", err)
	}
	proofType, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read proof_type: %w", err)
	}
	return &GetLeafRequest{ContractID: contractID, Index: index, Hash: hash, ProofType: merkle.ProofType(proofType)}, nil
}

func MarshalGetLeafResponse(resp *GetLeafResponse) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalNode(&buf, resp.Leaf); err != nil {
		return nil, err
	}
	if err := marshalProof(&buf, resp.Proof); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalGetLeafResponse(data []byte) (*GetLeafResponse, error) {
	r := bytes.NewReader(data)
	node, err := unmarshalNode(r)
	if err != nil {
		return nil, fmt.Errorf("read leaf: %w", err)
	}
	proof, err := unmarshalProof(r)
	if err != nil {
		return nil, fmt.Errorf("read proof: %w", err)
	}
	return &GetLeafResponse{Leaf: node, Proof: proof}, nil
}

func marshalNode(buf *bytes.Buffer, n Node) error {
	if err := binary.Write(buf, binary.LittleEndian, n.Index); err != nil {
		return err
	}
	if err := writeBytes(buf, encodeFieldOrNil(n.Hash)); err != nil {
		return err
	}
	if err := buf.WriteByte(byte(n.NodeType)); err != nil {
		return err
	}
	if err := writeBytes(buf, n.Data); err != nil {
		return err
	}
	if err := writeBytes(buf, encodeFieldOrNil(n.Left)); err != nil {
		return err
	}
	return writeBytes(buf, encodeFieldOrNil(n.Right))
}

func unmarshalNode(r *bytes.Reader) (Node, error) {
	var n Node
	if err := binary.Read(r, binary.LittleEndian, &n.Index); err != nil {
		return n, err
	}
	hashBytes, err := readBytes(r)
	if err != nil {
		return n, err
	}
	if n.Hash, err = decodeFieldOrNil(hashBytes); err != nil {
		return n, err
	}
	nodeType, err := r.ReadByte()
	if err != nil {
		return n, err
	}
	n.NodeType = NodeType(nodeType)
	if n.Data, err = readBytes(r); err != nil {
		return n, err
	}
	leftBytes, err := readBytes(r)
	if err != nil {
		return n, err
	}
	if n.Left, err = decodeFieldOrNil(leftBytes); err != nil {
		return n, err
	}
	rightBytes, err := readBytes(r)
	if err != nil {
		return n, err
	}
	if n.Right, err = decodeFieldOrNil(rightBytes); err != nil {
		return n, err
	}
	return n, nil
}

func marshalProof(buf *bytes.Buffer, p Proof) error {
	if err := buf.WriteByte(byte(p.ProofType)); err != nil {
		return err
	}
	return writeBytes(buf, p.Bytes)
}

func unmarshalProof(r *bytes.Reader) (Proof, error) {
	var p Proof
	proofType, err := r.ReadByte()
	if err != nil {
		return p, err
	}
	p.ProofType = merkle.ProofType(proofType)
	if p.Bytes, err = readBytes(r); err != nil {
		return p, err
	}
	return p, nil
}

func MarshalGetRootRequest(req *GetRootRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBytes(&buf, req.ContractID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalGetRootRequest(data []byte) (*GetRootRequest, error) {
	r := bytes.NewReader(data)
	contractID, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read contract_id: %w", err)
	}
	return &GetRootRequest{ContractID: contractID}, nil
}

func MarshalGetRootResponse(resp *GetRootResponse) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalNode(&buf, resp.Root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalGetRootResponse(data []byte) (*GetRootResponse, error) {
	node, err := unmarshalNode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}
	return &GetRootResponse{Root: node}, nil
}

func MarshalSetRootRequest(req *SetRootRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBytes(&buf, req.ContractID); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, req.Index); err != nil {
		return nil, err
	}
	if err := writeBytes(&buf, req.Hash); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalSetRootRequest(data []byte) (*SetRootRequest, error) {
	r := bytes.NewReader(data)
	contractID, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read contract_id: %w", err)
	}
	var index uint64
	if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	hash, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read hash: %w", err)
	}
	return &SetRootRequest{ContractID: contractID, Index: index, Hash: hash}, nil
}

func MarshalSetRootResponse(*SetRootResponse) ([]byte, error) { return nil, nil }

func UnmarshalSetRootResponse([]byte) (*SetRootResponse, error) { return &SetRootResponse{}, nil }

func MarshalSetLeafRequest(req *SetLeafRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBytes(&buf, req.ContractID); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, req.Index); err != nil {
		return nil, err
	}
	if err := writeBytes(&buf, req.Data); err != nil {
		return nil, err
	}
	if err := writeBytes(&buf, req.Hash); err != nil {
		return nil, err
	}
	if err := buf.WriteByte(byte(req.ProofType)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalSetLeafRequest(data []byte) (*SetLeafRequest, error) {
	r := bytes.NewReader(data)
	contractID, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read contract_id: %w", err)
	}
	var index uint64
	if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	d, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	hash, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read hash: %w", err)
	}
	proofType, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read proof_type: %w", err)
	}
	return &SetLeafRequest{ContractID: contractID, Index: index, Data: d, Hash: hash, ProofType: merkle.ProofType(proofType)}, nil
}

func MarshalSetLeafResponse(resp *SetLeafResponse) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalProof(&buf, resp.Proof); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalSetLeafResponse(data []byte) (*SetLeafResponse, error) {
	proof, err := unmarshalProof(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read proof: %w", err)
	}
	return &SetLeafResponse{Proof: proof}, nil
}

func MarshalGetNonLeafRequest(req *GetNonLeafRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBytes(&buf, req.ContractID); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, req.Index); err != nil {
		return nil, err
	}
	if err := writeBytes(&buf, req.Hash); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalGetNonLeafRequest(data []byte) (*GetNonLeafRequest, error) {
	r := bytes.NewReader(data)
	contractID, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read contract_id: %w", err)
	}
	var index uint64
	if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	hash, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read hash: %w", err)
	}
	return &GetNonLeafRequest{ContractID: contractID, Index: index, Hash: hash}, nil
}

func MarshalGetNonLeafResponse(resp *GetNonLeafResponse) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalNode(&buf, resp.Node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalGetNonLeafResponse(data []byte) (*GetNonLeafResponse, error) {
	node, err := unmarshalNode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read node: %w", err)
	}
	return &GetNonLeafResponse{Node: node}, nil
}

func MarshalSetNonLeafRequest(req *SetNonLeafRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBytes(&buf, req.ContractID); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, req.Index); err != nil {
		return nil, err
	}
	if err := writeBytes(&buf, req.Left); err != nil {
		return nil, err
	}
	if err := writeBytes(&buf, req.Right); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalSetNonLeafRequest(data []byte) (*SetNonLeafRequest, error) {
	r := bytes.NewReader(data)
	contractID, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read contract_id: %w", err)
	}
	var index uint64
	if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	left, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read left: %w", err)
	}
	right, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read right: %w", err)
	}
	return &SetNonLeafRequest{ContractID: contractID, Index: index, Left: left, Right: right}, nil
}

func MarshalSetNonLeafResponse(*SetNonLeafResponse) ([]byte, error) { return nil, nil }

func UnmarshalSetNonLeafResponse([]byte) (*SetNonLeafResponse, error) { return &SetNonLeafResponse{}, nil }

func MarshalPoseidonHashRequest(req *PoseidonHashRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(req.Elements))); err != nil {
		return nil, err
	}
	for _, e := range req.Elements {
		if err := writeBytes(&buf, e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func UnmarshalPoseidonHashRequest(data []byte) (*PoseidonHashRequest, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	elements := make([][]byte, count)
	for i := range elements {
		e, err := readBytes(r)
		if err != nil {
			return nil, fmt.Errorf("read element %d: %w", i, err)
		}
		elements[i] = e
	}
	return &PoseidonHashRequest{Elements: elements}, nil
}

func MarshalPoseidonHashResponse(resp *PoseidonHashResponse) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBytes(&buf, resp.Hash); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalPoseidonHashResponse(data []byte) (*PoseidonHashResponse, error) {
	r := bytes.NewReader(data)
	hash, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("read hash: %w", err)
	}
	return &PoseidonHashResponse{Hash: hash}, nil
}
