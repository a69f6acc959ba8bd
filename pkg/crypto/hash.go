// Package crypto provides the hashing and signing primitives used by the
// ledger: BLAKE3 digests for identities, an optional SHA-256 hash for
// Merkle commitments, and Schnorr/secp256k1 signatures.
package crypto

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	sha256 "github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
)

// HashFunc maps arbitrary bytes to a fixed-width digest.
type HashFunc func(data []byte) types.Hash

// Hashable is implemented by anything with a deterministic digest.
// Transactions, blocks and raw content chunks all satisfy it without a
// common base type.
type Hashable interface {
	Hash() types.Hash
}

// Hash function names accepted by HashFuncByName.
const (
	HashBlake3 = "blake3"
	HashSHA256 = "sha256"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// SHA256 computes a SHA-256 hash of the input data.
func SHA256(data []byte) types.Hash {
	return sha256.Sum256(data)
}

// HashFuncByName resolves a configured hash function name.
func HashFuncByName(name string) (HashFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", HashBlake3:
		return Hash, nil
	case HashSHA256:
		return SHA256, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q (want %s or %s)", name, HashBlake3, HashSHA256)
	}
}

// HashConcat hashes the concatenation a||b with BLAKE3.
// Used for building merkle trees.
func HashConcat(a, b types.Hash) types.Hash {
	return HashConcatWith(Hash, a, b)
}

// HashConcatWith hashes the concatenation a||b with fn.
func HashConcatWith(fn HashFunc, a, b types.Hash) types.Hash {
	var buf [2 * types.HashSize]byte
	copy(buf[:types.HashSize], a[:])
	copy(buf[types.HashSize:], b[:])
	return fn(buf[:])
}

// Bytes is raw content that hashes with BLAKE3. It lets plain byte chunks
// be committed to a Merkle tree next to structured items.
type Bytes []byte

// Hash returns the BLAKE3 digest of b.
func (b Bytes) Hash() types.Hash {
	return Hash(b)
}
