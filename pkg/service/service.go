// Package service implements the RPC-facing operations of the service
// façade (spec §4.E): contract-id resolution, proof_type gating, and the
// SetLeaf payload-resolution rules. It sits above pkg/engine and pkg/store
// and returns only pkg/kverr errors; transport adapters (pkg/rpcserver)
// translate those into status codes.
package service

import (
	"context"
	"math/big"

	"github.com/rs/zerolog/log"

	"github.com/sparsekv/smtkv/pkg/engine"
	"github.com/sparsekv/smtkv/pkg/field"
	"github.com/sparsekv/smtkv/pkg/kverr"
	"github.com/sparsekv/smtkv/pkg/merkle"
	"github.com/sparsekv/smtkv/pkg/poseidon"
	"github.com/sparsekv/smtkv/pkg/store"
)

func parseHash(b []byte) (*big.Int, error) {
	return field.Decode(b)
}

// AuthContractIDKey is the metadata key carrying the caller's contract id
// (spec §4.E, priority 3); transport adapters populate ctx via
// context.WithValue(ctx, AuthContractIDKey{}, []byte(...)) after extracting
// it from the request envelope (e.g. gRPC metadata).
type AuthContractIDKey struct{}

// Service implements the seven façade operations over a single Engine.
type Service struct {
	engine *engine.Engine

	// testOverride, when non-nil, wins over every other contract-id
	// resolution source (spec §4.E priority 1); it exists so tests don't
	// need to thread auth metadata through every call.
	testOverride *store.ContractID

	// allowDefaultContract permits defaultContractID when no other source
	// resolves one. Production deployments must leave this false (spec
	// §4.E "production deployments must reject such requests").
	allowDefaultContract bool

	// defaultContractID is the contract id substituted when
	// allowDefaultContract is set and no request field or auth metadata
	// supplied one (spec §9 "default_contract_id"). Its zero value is the
	// all-zero contract id spec §4.E describes for development use.
	defaultContractID store.ContractID
}

// New returns a Service backed by e. allowDefaultContract should be true
// only in development; defaultContractID is the id substituted in that
// case (spec §9 "default_contract_id").
func New(e *engine.Engine, allowDefaultContract bool, defaultContractID store.ContractID) *Service {
	return &Service{engine: e, allowDefaultContract: allowDefaultContract, defaultContractID: defaultContractID}
}

// WithTestOverride returns a Service that always resolves to contract,
// ignoring the request field and auth metadata. Used by tests that don't
// want to construct an authenticated context for every call.
func (s *Service) WithTestOverride(contract store.ContractID) *Service {
	clone := *s
	clone.testOverride = &contract
	return &clone
}

// resolveContract implements the priority order of spec §4.E.
func (s *Service) resolveContract(ctx context.Context, requestField []byte) (store.ContractID, error) {
	if s.testOverride != nil {
		return *s.testOverride, nil
	}
	if len(requestField) > 0 {
		id, err := store.ParseContractID(requestField)
		if err != nil {
			return store.ContractID{}, kverr.Wrap(kverr.InvalidArgument, err, "parse contract_id")
		}
		return id, nil
	}
	if auth, ok := ctx.Value(AuthContractIDKey{}).([]byte); ok && len(auth) > 0 {
		id, err := store.ParseContractID(auth)
		if err != nil {
			return store.ContractID{}, kverr.Wrap(kverr.InvalidArgument, err, "parse auth contract id")
		}
		return id, nil
	}
	if s.allowDefaultContract {
		return s.defaultContractID, nil
	}
	return store.ContractID{}, kverr.New(kverr.InvalidArgument, "no contract id supplied and default contract is disabled")
}

func decodeHash(b []byte, field string) (*big.Int, error) {
	if len(b) == 0 {
		return nil, nil
	}
	v, err := parseHash(b)
	if err != nil {
		return nil, kverr.Wrap(kverr.InvalidArgument, err, "decode %s", field)
	}
	return v, nil
}

// GetRoot returns the current root record of contract (request field
// takes priority over ctx's auth metadata; see resolveContract).
func (s *Service) GetRoot(ctx context.Context, requestContractID []byte) (merkle.Record, error) {
	contract, err := s.resolveContract(ctx, requestContractID)
	if err != nil {
		return merkle.Record{}, err
	}
	return s.engine.GetRoot(ctx, contract)
}

// SetRoot moves the root pointer to (index, hash); index must be 0 and the
// record must already be persisted (spec §4.D set_root).
func (s *Service) SetRoot(ctx context.Context, requestContractID []byte, index uint64, hashBytes []byte) error {
	contract, err := s.resolveContract(ctx, requestContractID)
	if err != nil {
		return err
	}
	hash, err := decodeHash(hashBytes, "hash")
	if err != nil {
		return err
	}
	if hash == nil {
		return kverr.New(kverr.InvalidArgument, "hash is required")
	}
	return s.engine.SetRoot(ctx, contract, merkle.Record{Index: index, Hash: hash})
}

// GetLeaf resolves a leaf by index, taking the fast path (spec §4.E
// "Proof emission") when proofType is ProofEmpty and hash is supplied:
// the engine fetches by (index, hash) directly and no proof is assembled.
// Otherwise the full walk runs, and a supplied hash is checked against the
// resulting leaf hash.
func (s *Service) GetLeaf(ctx context.Context, requestContractID []byte, index uint64, hashBytes []byte, proofType merkle.ProofType) (merkle.Record, *merkle.Proof, error) {
	contract, err := s.resolveContract(ctx, requestContractID)
	if err != nil {
		return merkle.Record{}, nil, err
	}
	if merkle.NodeKind(index) != merkle.KindLeaf {
		return merkle.Record{}, nil, kverr.New(kverr.InvalidArgument, "index %d is not a leaf index", index)
	}

	hash, err := decodeHash(hashBytes, "hash")
	if err != nil {
		return merkle.Record{}, nil, err
	}

	if proofType == merkle.ProofEmpty && hash != nil {
		rec, found, ferr := s.lookupLeafFastPath(ctx, contract, index, hash)
		if ferr != nil {
			return merkle.Record{}, nil, ferr
		}
		if found {
			return rec, nil, nil
		}
	}

	leaf, proof, err := s.engine.GetLeafAndProof(ctx, contract, index)
	if err != nil {
		return merkle.Record{}, nil, err
	}
	if hash != nil && hash.Cmp(proof.Source) != 0 {
		return merkle.Record{}, nil, kverr.New(kverr.InvalidArgument, "supplied hash does not match leaf at index %d", index)
	}
	return leaf, proof, nil
}

func (s *Service) lookupLeafFastPath(ctx context.Context, contract store.ContractID, index uint64, hash *big.Int) (merkle.Record, bool, error) {
	rec, err := s.engine.FindRecord(ctx, contract, index, hash)
	if err != nil {
		if kverr.KindOf(err) == kverr.Precondition {
			return merkle.Record{}, false, nil
		}
		return merkle.Record{}, false, err
	}
	return rec, true, nil
}

// SetLeaf resolves the SetLeaf payload per spec §4.E, then writes it.
func (s *Service) SetLeaf(ctx context.Context, requestContractID []byte, index uint64, data, hashBytes []byte, proofType merkle.ProofType) (*merkle.Proof, error) {
	contract, err := s.resolveContract(ctx, requestContractID)
	if err != nil {
		return nil, err
	}
	if merkle.NodeKind(index) != merkle.KindLeaf {
		return nil, kverr.New(kverr.InvalidArgument, "index %d is not a leaf index", index)
	}

	hash, err := decodeHash(hashBytes, "hash")
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && len(data) != 32 {
		return nil, kverr.New(kverr.InvalidArgument, "leaf data must be exactly 32 bytes, got %d", len(data))
	}

	switch {
	case len(data) > 0 && hash != nil:
		// {data, hash}: store (hash -> data) without re-deriving hash.
		if _, err := s.engine.StoreData(ctx, contract, hash, data); err != nil {
			return nil, err
		}
	case len(data) > 0 && hash == nil:
		// {data, —}: derive hash via the data hasher and store both.
		derived, err := poseidon.HashLeaf(data)
		if err != nil {
			return nil, kverr.Wrap(kverr.InvalidArgument, err, "hash leaf data")
		}
		hash = derived
		if _, err := s.engine.StoreData(ctx, contract, hash, data); err != nil {
			return nil, err
		}
	case len(data) == 0 && hash != nil:
		// {—, hash}: data-hash record must already exist.
		existing, found, err := s.engine.FindData(ctx, contract, hash)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, kverr.New(kverr.InvalidArgument, "no data record for supplied hash")
		}
		_ = existing
	default:
		return nil, kverr.New(kverr.InvalidArgument, "SetLeaf requires data, hash, or both")
	}

	leaf := merkle.NewLeafRecord(index, hash)
	proof, err := s.engine.SetLeafAndProof(ctx, contract, leaf)
	if err != nil {
		return nil, err
	}
	log.Debug().Uint64("index", index).Str("contract", contract.Hex()).Msg("set leaf")
	return proof, nil
}

// GetNonLeaf reads an internal record directly.
func (s *Service) GetNonLeaf(ctx context.Context, requestContractID []byte, index uint64, hashBytes []byte) (merkle.Record, error) {
	contract, err := s.resolveContract(ctx, requestContractID)
	if err != nil {
		return merkle.Record{}, err
	}
	hash, err := decodeHash(hashBytes, "hash")
	if err != nil {
		return merkle.Record{}, err
	}
	if hash == nil {
		return merkle.Record{}, kverr.New(kverr.InvalidArgument, "hash is required")
	}
	return s.engine.GetNonLeaf(ctx, contract, index, hash)
}

// SetNonLeaf writes an internal record directly, validating its children.
func (s *Service) SetNonLeaf(ctx context.Context, requestContractID []byte, index uint64, leftBytes, rightBytes []byte) error {
	contract, err := s.resolveContract(ctx, requestContractID)
	if err != nil {
		return err
	}
	left, err := decodeHash(leftBytes, "left")
	if err != nil {
		return err
	}
	right, err := decodeHash(rightBytes, "right")
	if err != nil {
		return err
	}
	if left == nil || right == nil {
		return kverr.New(kverr.InvalidArgument, "left and right are required")
	}
	record := merkle.NewInternalRecord(index, left, right)
	return s.engine.SetNonLeaf(ctx, contract, record)
}

// PoseidonHash exposes the general multi-element hasher directly (spec §6
// RPC surface); it is contract-independent.
func (s *Service) PoseidonHash(_ context.Context, elements [][]byte) (*big.Int, error) {
	h, err := poseidon.Hash(elements)
	if err != nil {
		return nil, kverr.Wrap(kverr.InvalidArgument, err, "hash elements")
	}
	return h, nil
}
