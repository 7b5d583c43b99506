package store

import (
	"context"
	"math/big"
	"sync"

	"github.com/sparsekv/smtkv/pkg/merkle"
)

// MemStore is an in-memory Store, used by unit tests in place of MongoDB
// (spec §2 "Test tooling"; mirrors the Rust original's use of an ephemeral
// per-test collection). A single store-wide mutex guards each individual
// operation, for all contracts alike; a multi-operation write such as a
// leaf update is not serialized as a whole.
type MemStore struct {
	mu        sync.Mutex
	merkleCol map[ContractID]map[merkleKey]merkle.Record
	dataCol   map[ContractID]map[string]merkle.DataRecord
	roots     map[ContractID]merkle.Record
}

type merkleKey struct {
	index uint64
	hash  string
}

// NewMemStore constructs an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		merkleCol: make(map[ContractID]map[merkleKey]merkle.Record),
		dataCol:   make(map[ContractID]map[string]merkle.DataRecord),
		roots:     make(map[ContractID]merkle.Record),
	}
}

func (m *MemStore) FindMerkle(_ context.Context, contract ContractID, index uint64, hash *big.Int) (*merkle.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.merkleCol[contract]
	if !ok {
		return nil, false, nil
	}
	rec, ok := col[merkleKey{index: index, hash: hash.String()}]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (m *MemStore) InsertMerkle(_ context.Context, contract ContractID, record merkle.Record) (merkle.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.merkleCol[contract]
	if !ok {
		col = make(map[merkleKey]merkle.Record)
		m.merkleCol[contract] = col
	}
	key := merkleKey{index: record.Index, hash: record.Hash.String()}
	if existing, ok := col[key]; ok {
		return existing, nil
	}
	col[key] = record
	return record, nil
}

func (m *MemStore) FindData(_ context.Context, contract ContractID, hash *big.Int) (*merkle.DataRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.dataCol[contract]
	if !ok {
		return nil, false, nil
	}
	rec, ok := col[hash.String()]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (m *MemStore) InsertData(_ context.Context, contract ContractID, record merkle.DataRecord) (merkle.DataRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.dataCol[contract]
	if !ok {
		col = make(map[string]merkle.DataRecord)
		m.dataCol[contract] = col
	}
	key := record.Hash.String()
	if existing, ok := col[key]; ok {
		return existing, nil
	}
	col[key] = record
	return record, nil
}

func (m *MemStore) GetRoot(_ context.Context, contract ContractID) (merkle.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.roots[contract]; ok {
		return rec, nil
	}
	return merkle.DefaultRecord(0), nil
}

func (m *MemStore) SetRoot(_ context.Context, contract ContractID, record merkle.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots[contract] = record
	return nil
}

// WithTransaction has no real atomicity in MemStore and takes no lock of
// its own (each operation fn performs takes the store-wide mutex in turn);
// it simply runs fn.
func (m *MemStore) WithTransaction(ctx context.Context, _ ContractID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *MemStore) Drop(_ context.Context, contract ContractID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.merkleCol, contract)
	delete(m.dataCol, contract)
	delete(m.roots, contract)
	return nil
}
