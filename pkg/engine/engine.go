// Package engine implements the Merkle engine (spec §4.D): the walk-down
// read path that assembles inclusion proofs, and the walk-up write path
// that re-hashes from a new leaf to the root. It is the only layer that
// understands both the tree model (pkg/merkle) and the record store
// (pkg/store); neither of those packages depends on this one.
//
// The read/write split mirrors a conventional sparse-Merkle-tree reader and
// writer pair: GetLeafAndProof walks siblings down from the root the way
// such a reader builds an inclusion proof, just against a store keyed by
// (index, hash) instead of a revisioned node table.
package engine

import (
	"context"
	"math/big"

	"github.com/sparsekv/smtkv/pkg/kverr"
	"github.com/sparsekv/smtkv/pkg/merkle"
	"github.com/sparsekv/smtkv/pkg/store"
)

// Engine ties the tree model to a record store for one backend. A single
// Engine is shared across all contracts; contract scoping happens per call.
type Engine struct {
	store store.Store
}

// New returns an Engine backed by s.
func New(s store.Store) *Engine {
	return &Engine{store: s}
}

// resolve returns the record at index, falling back to the default record
// when the store has nothing for it (spec §4.C find_merkle).
func (e *Engine) resolve(ctx context.Context, contract store.ContractID, index uint64, hash *big.Int) (merkle.Record, error) {
	rec, found, err := e.store.FindMerkle(ctx, contract, index, hash)
	if err != nil {
		return merkle.Record{}, kverr.Wrap(kverr.Backend, err, "find merkle record at index %d", index)
	}
	if found {
		return *rec, nil
	}
	def := merkle.DefaultRecord(index)
	if def.Hash.Cmp(hash) != 0 {
		return merkle.Record{}, kverr.New(kverr.Precondition, "no record at index %d for hash %s", index, hash)
	}
	return def, nil
}

// FindRecord fetches the record at (index, hash) directly, without walking
// the tree (spec §4.E "Proof emission" fast path). It falls back to the
// default record exactly like the walk-down path does.
func (e *Engine) FindRecord(ctx context.Context, contract store.ContractID, index uint64, hash *big.Int) (merkle.Record, error) {
	return e.resolve(ctx, contract, index, hash)
}

// FindData returns the data-hash record for hash, if any.
func (e *Engine) FindData(ctx context.Context, contract store.ContractID, hash *big.Int) (*merkle.DataRecord, bool, error) {
	rec, found, err := e.store.FindData(ctx, contract, hash)
	if err != nil {
		return nil, false, kverr.Wrap(kverr.Backend, err, "find data record")
	}
	return rec, found, nil
}

// StoreData idempotently inserts (hash -> data) into the data-hash
// collection (spec §4.E SetLeaf payload {data, hash} and {data, —} cases).
// It does not validate that hash == Poseidon(data): the {data, hash} case
// explicitly allows a caller-supplied hash under a different convention.
func (e *Engine) StoreData(ctx context.Context, contract store.ContractID, hash *big.Int, data []byte) (merkle.DataRecord, error) {
	rec, err := e.store.InsertData(ctx, contract, merkle.DataRecord{Hash: hash, Data: data})
	if err != nil {
		return merkle.DataRecord{}, kverr.Wrap(kverr.Backend, err, "insert data record")
	}
	return rec, nil
}

// GetLeafAndProof walks top-down from the root to leafIndex, building the
// assist vector from the sibling at each level (spec §4.D "Read").
func (e *Engine) GetLeafAndProof(ctx context.Context, contract store.ContractID, leafIndex uint64) (merkle.Record, *merkle.Proof, error) {
	if merkle.NodeKind(leafIndex) != merkle.KindLeaf {
		return merkle.Record{}, nil, kverr.New(kverr.InvalidArgument, "index %d is not a leaf index", leafIndex)
	}

	root, err := e.store.GetRoot(ctx, contract)
	if err != nil {
		return merkle.Record{}, nil, kverr.Wrap(kverr.Backend, err, "get root")
	}

	path, err := merkle.Path(leafIndex)
	if err != nil {
		return merkle.Record{}, nil, kverr.Wrap(kverr.InvalidArgument, err, "compute path")
	}

	assist := make([]*big.Int, merkle.Height)
	curIndex, curHash := uint64(0), root.Hash
	curLeft, curRight := root.Left, root.Right

	for depth := 0; depth < merkle.Height; depth++ {
		if err := ctx.Err(); err != nil {
			return merkle.Record{}, nil, kverr.Wrap(kverr.Internal, err, "cancelled during walk at depth %d", depth)
		}

		childIndex := path[depth]
		var childHash, siblingHash *big.Int
		if childIndex == 2*curIndex+1 {
			childHash, siblingHash = curLeft, curRight
		} else {
			childHash, siblingHash = curRight, curLeft
		}
		assist[depth] = siblingHash

		child, err := e.resolve(ctx, contract, childIndex, childHash)
		if err != nil {
			return merkle.Record{}, nil, err
		}
		curIndex, curHash, curLeft, curRight = childIndex, child.Hash, child.Left, child.Right
	}

	leaf := merkle.Record{Index: curIndex, Hash: curHash, Left: curLeft, Right: curRight}
	proof := &merkle.Proof{Source: leaf.Hash, Root: root.Hash, Assist: assist, Index: leafIndex}
	return leaf, proof, nil
}

// SetLeafAndProof inserts leaf, re-hashes from leaf to root, and updates
// the root pointer (spec §4.D "Write"). The returned proof's Root is the
// root *before* this write, matching the state the assist vector was
// gathered against.
//
// The leaf insert, every ancestor insert, and the final root move run
// inside one e.store.WithTransaction call (spec §4.D "Concurrency on the
// logical tree", option (a)): a cancellation before commit must never
// leave a changed root pointing at unwritten internals (spec §5
// "Cancellation / timeouts").
func (e *Engine) SetLeafAndProof(ctx context.Context, contract store.ContractID, leaf merkle.Record) (*merkle.Proof, error) {
	if merkle.NodeKind(leaf.Index) != merkle.KindLeaf {
		return nil, kverr.New(kverr.InvalidArgument, "index %d is not a leaf index", leaf.Index)
	}

	_, proof, err := e.GetLeafAndProof(ctx, contract, leaf.Index)
	if err != nil {
		return nil, err
	}
	proof.Source = leaf.Hash

	path, err := merkle.Path(leaf.Index)
	if err != nil {
		return nil, kverr.Wrap(kverr.InvalidArgument, err, "compute path")
	}

	txErr := e.store.WithTransaction(ctx, contract, func(ctx context.Context) error {
		if _, err := e.store.InsertMerkle(ctx, contract, leaf); err != nil {
			return kverr.Wrap(kverr.Backend, err, "insert leaf at index %d", leaf.Index)
		}

		running := leaf.Hash
		offset := merkle.LeafOffset(leaf.Index)
		for depth := merkle.Height - 1; depth >= 0; depth-- {
			if err := ctx.Err(); err != nil {
				return kverr.Wrap(kverr.Internal, err, "cancelled during write at depth %d", depth)
			}

			sibling := proof.Assist[depth]

			var left, right *big.Int
			if offset%2 == 1 {
				left, right = sibling, running
			} else {
				left, right = running, sibling
			}

			parentIndex := uint64(0)
			if depth > 0 {
				parentIndex = merkle.Parent(path[depth])
			}
			parent := merkle.NewInternalRecord(parentIndex, left, right)
			running = parent.Hash
			offset /= 2

			if _, err := e.store.InsertMerkle(ctx, contract, parent); err != nil {
				return kverr.Wrap(kverr.Backend, err, "insert internal record at index %d", parentIndex)
			}
			if parentIndex == 0 {
				if err := e.store.SetRoot(ctx, contract, parent); err != nil {
					return kverr.Wrap(kverr.Backend, err, "set root")
				}
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return proof, nil
}

// GetNonLeaf reads an internal record directly at (index, hash) (spec §4.D
// get_non_leaf).
func (e *Engine) GetNonLeaf(ctx context.Context, contract store.ContractID, index uint64, hash *big.Int) (merkle.Record, error) {
	if merkle.NodeKind(index) != merkle.KindNonLeaf {
		return merkle.Record{}, kverr.New(kverr.InvalidArgument, "index %d is not a non-leaf index", index)
	}
	rec, err := e.resolve(ctx, contract, index, hash)
	if err != nil {
		return merkle.Record{}, err
	}
	if rec.IsLeaf() {
		return merkle.Record{}, kverr.New(kverr.InconsistentData, "record at index %d is a leaf, expected non-leaf", index)
	}
	return rec, nil
}

// SetNonLeaf writes an internal record directly, validating invariant I1
// before the store sees it (spec §4.D get_non_leaf/set_non_leaf).
func (e *Engine) SetNonLeaf(ctx context.Context, contract store.ContractID, record merkle.Record) error {
	if merkle.NodeKind(record.Index) != merkle.KindNonLeaf {
		return kverr.New(kverr.InvalidArgument, "index %d is not a non-leaf index", record.Index)
	}
	if err := record.ValidateInternal(); err != nil {
		return kverr.Wrap(kverr.InvalidArgument, err, "validate children for index %d", record.Index)
	}
	if _, err := e.store.InsertMerkle(ctx, contract, record); err != nil {
		return kverr.Wrap(kverr.Backend, err, "insert non-leaf record at index %d", record.Index)
	}
	return nil
}

// GetRoot reads the sentinel root record (spec §4.D get_root).
func (e *Engine) GetRoot(ctx context.Context, contract store.ContractID) (merkle.Record, error) {
	root, err := e.store.GetRoot(ctx, contract)
	if err != nil {
		return merkle.Record{}, kverr.Wrap(kverr.Backend, err, "get root")
	}
	return root, nil
}

// SetRoot moves the root pointer to record, which must already exist in
// the merkle collection at index 0 (spec §4.D set_root; §9 Open Question 4
// resolves to verifying the target is persisted before pointing to it).
func (e *Engine) SetRoot(ctx context.Context, contract store.ContractID, record merkle.Record) error {
	if record.Index != 0 {
		return kverr.New(kverr.InvalidArgument, "root record must be at index 0, got %d", record.Index)
	}
	if _, found, err := e.store.FindMerkle(ctx, contract, 0, record.Hash); err != nil {
		return kverr.Wrap(kverr.Backend, err, "find root record")
	} else if !found {
		return kverr.New(kverr.Precondition, "no persisted record at index 0 for hash %s", record.Hash)
	}
	if err := e.store.SetRoot(ctx, contract, record); err != nil {
		return kverr.Wrap(kverr.Backend, err, "set root")
	}
	return nil
}
