package merkle

import (
	"math/big"
	"sync"

	"github.com/sparsekv/smtkv/pkg/poseidon"
)

// defaultHashes is the process-wide, lazily initialized D[0..=Height]
// vector (spec §3 "Default-hash vector"). D[0] is the empty-leaf hash;
// D[k+1] = HashChildren(D[k], D[k]); D[Height] is the default root. It is
// immutable once built and safe for concurrent read (spec §5 "Shared
// resources").
var (
	defaultHashesOnce sync.Once
	defaultHashesVec  []*big.Int
)

// DefaultHashes returns D[0..=Height], building it on first call.
func DefaultHashes() []*big.Int {
	defaultHashesOnce.Do(buildDefaultHashes)
	return defaultHashesVec
}

func buildDefaultHashes() {
	emptyLeaf, err := poseidon.HashLeaf(make([]byte, 32))
	if err != nil {
		// HashLeaf only fails on wrong-length input; 32 zero bytes is
		// always well formed.
		panic(err)
	}

	vec := make([]*big.Int, Height+1)
	vec[0] = emptyLeaf
	for k := 0; k < Height; k++ {
		vec[k+1] = poseidon.HashChildren(vec[k], vec[k])
	}
	defaultHashesVec = vec
}

// DefaultRoot returns D[Height], the root hash of an empty tree.
func DefaultRoot() *big.Int {
	return DefaultHashes()[Height]
}
