// Package store defines the per-contract record store abstraction (spec
// §4.C): a merkle collection, a data-hash collection, and a mutable root
// pointer, each scoped to one contract. Implementations may be backed by a
// real document database (see mongostore) or kept in memory for tests
// (see memstore).
package store

import (
	"context"
	"math/big"

	"github.com/sparsekv/smtkv/pkg/merkle"
)

// ContractID is the opaque 32-byte tenant identifier (spec §3).
type ContractID [32]byte

// Store is the per-contract record store (spec §4.C). All operations may
// suspend on I/O; none may block on anything else (spec §5).
type Store interface {
	// FindMerkle returns the record at (index, hash), or (nil, false) on a
	// genuine miss. Callers consult the default-hash vector before
	// declaring absence (spec §4.C).
	FindMerkle(ctx context.Context, contract ContractID, index uint64, hash *big.Int) (*merkle.Record, bool, error)

	// InsertMerkle is an idempotent upsert keyed by (index, hash): if a
	// record with the same key exists it is returned unchanged, otherwise
	// the new record is inserted and returned (spec §4.C, invariant I4).
	InsertMerkle(ctx context.Context, contract ContractID, record merkle.Record) (merkle.Record, error)

	// FindData returns the data-hash record for hash, or (nil, false) on miss.
	FindData(ctx context.Context, contract ContractID, hash *big.Int) (*merkle.DataRecord, bool, error)

	// InsertData is an idempotent upsert keyed by hash.
	InsertData(ctx context.Context, contract ContractID, record merkle.DataRecord) (merkle.DataRecord, error)

	// GetRoot returns the sentinel root record, or the default root
	// record (index 0) if the contract has never been written to.
	GetRoot(ctx context.Context, contract ContractID) (merkle.Record, error)

	// SetRoot replaces the sentinel root record. It is the store's only
	// legal mutation (invariant I4).
	SetRoot(ctx context.Context, contract ContractID, record merkle.Record) error

	// WithTransaction runs fn inside a logical transaction when the
	// backing store supports sessions; implementations that don't must
	// still run fn (without atomicity) so callers can be written uniformly.
	// Transient or "unknown commit result" failures are retried inside the
	// implementation until a decisive outcome is reached (spec §4.C).
	WithTransaction(ctx context.Context, contract ContractID, fn func(ctx context.Context) error) error

	// Drop removes both collections for contract. Test-only (spec §4.C).
	Drop(ctx context.Context, contract ContractID) error
}

// ParseContractID validates a contract identifier: exactly 32 bytes, or a
// 44-character base64 string that decodes to 32 bytes (spec §3, §4.E).
func ParseContractID(b []byte) (ContractID, error) {
	var id ContractID
	if len(b) == 44 {
		return ParseContractIDString(string(b))
	}
	if len(b) != 32 {
		return id, errInvalidContractID
	}
	copy(id[:], b)
	return id, nil
}
