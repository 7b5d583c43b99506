package merkle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/sparsekv/smtkv/pkg/field"
	"github.com/sparsekv/smtkv/pkg/poseidon"
)

// ProofType gates proof serialization (spec §4.E, §6).
type ProofType int

const (
	ProofEmpty ProofType = iota
	ProofV0
)

// Proof is an inclusion proof: source (the leaf hash), root, and the
// assist vector of H sibling hashes from root-side to leaf-side (spec §3
// "Assist vector").
type Proof struct {
	Source *big.Int
	Root   *big.Int
	Assist []*big.Int
	Index  uint64
}

// Verify recomputes the root from Source and Assist by walking leaf-to-
// root, choosing sibling order by the parity of the current offset at
// each level exactly as the write path does (spec §4.D step 3), and
// reports whether the result equals Root.
func (p *Proof) Verify() bool {
	if len(p.Assist) != Height {
		return false
	}

	cur := p.Source
	offset := LeafOffset(p.Index)
	for depth := Height - 1; depth >= 0; depth-- {
		sibling := p.Assist[depth]
		if offset%2 == 1 {
			cur = poseidon.HashChildren(sibling, cur)
		} else {
			cur = poseidon.HashChildren(cur, sibling)
		}
		offset /= 2
	}
	return cur.Cmp(p.Root) == 0
}

// SerializeV0 encodes p per spec §6's bit-exact layout:
//
//	source: 32B | root: 32B | assist_len: u64 | assist: 32B x assist_len | index: u64
func (p *Proof) SerializeV0() ([]byte, error) {
	if len(p.Assist) != Height {
		return nil, fmt.Errorf("assist vector must have exactly %d entries, got %d", Height, len(p.Assist))
	}

	var buf bytes.Buffer
	src := field.Encode(p.Source)
	buf.Write(src[:])
	root := field.Encode(p.Root)
	buf.Write(root[:])

	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(p.Assist))); err != nil {
		return nil, err
	}
	for _, a := range p.Assist {
		enc := field.Encode(a)
		buf.Write(enc[:])
	}
	if err := binary.Write(&buf, binary.LittleEndian, p.Index); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DeserializeV0 decodes a ProofV0 byte layout, rejecting any field element
// that fails field.Decode and any assist_len != Height.
func DeserializeV0(data []byte) (*Proof, error) {
	r := bytes.NewReader(data)

	source, err := readFieldElement(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	root, err := readFieldElement(r)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}

	var assistLen uint64
	if err := binary.Read(r, binary.LittleEndian, &assistLen); err != nil {
		return nil, fmt.Errorf("read assist_len: %w", err)
	}
	if assistLen != Height {
		return nil, fmt.Errorf("assist_len must be %d, got %d", Height, assistLen)
	}

	assist := make([]*big.Int, assistLen)
	for i := range assist {
		assist[i], err = readFieldElement(r)
		if err != nil {
			return nil, fmt.Errorf("read assist[%d]: %w", i, err)
		}
	}

	var index uint64
	if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	return &Proof{Source: source, Root: root, Assist: assist, Index: index}, nil
}

func readFieldElement(r *bytes.Reader) (*big.Int, error) {
	buf := make([]byte, field.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return field.Decode(buf)
}
