// Package merkle implements a binary Merkle tree over an ordered list of
// hashable items, with inclusion proofs.
//
// Construction:
//   - 0 items: the root is EmptyRoot (all zeros)
//   - 1 item: the root is that item's hash
//   - Otherwise: pairwise hash(left||right), duplicating the last node of
//     any level with an odd count, until one node remains.
//
// The padding rule is applied at every level, and Verify replays it
// exactly, so a proof for leaf i of n is always ProofLength(n) entries long.
package merkle

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// ErrIndexOutOfRange is returned by Proof for an index that is not a leaf.
var ErrIndexOutOfRange = errors.New("leaf index out of range")

// EmptyRoot is the root of a tree built from no items. It means "no
// content" and cannot collide with a real digest in practice.
var EmptyRoot = types.Hash{}

// Tree is an immutable Merkle tree. It is safe for concurrent use.
type Tree struct {
	// levels[0] holds the leaf digests, levels[len-1] holds the root.
	// Levels are stored unpadded; a missing right sibling is the node itself.
	levels [][]types.Hash
	hash   crypto.HashFunc
}

// New builds a tree over items using BLAKE3 for interior nodes.
func New[T crypto.Hashable](items []T) *Tree {
	return NewWithHashFunc(crypto.Hash, items)
}

// NewWithHashFunc builds a tree over items, combining nodes with fn.
// Leaf digests always come from the items' own Hash method.
func NewWithHashFunc[T crypto.Hashable](fn crypto.HashFunc, items []T) *Tree {
	leaves := make([]types.Hash, len(items))
	for i, item := range items {
		leaves[i] = item.Hash()
	}
	return build(fn, leaves)
}

// FromLeaves builds a tree over precomputed leaf digests.
// The caller's slice is not retained.
func FromLeaves(fn crypto.HashFunc, leaves []types.Hash) *Tree {
	cp := make([]types.Hash, len(leaves))
	copy(cp, leaves)
	return build(fn, cp)
}

func build(fn crypto.HashFunc, leaves []types.Hash) *Tree {
	if fn == nil {
		fn = crypto.Hash
	}
	t := &Tree{hash: fn}
	if len(leaves) == 0 {
		return t
	}

	level := leaves
	t.levels = append(t.levels, level)
	for len(level) > 1 {
		next := make([]types.Hash, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next[i/2] = crypto.HashConcatWith(fn, level[i], right)
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t
}

// Root returns the root digest, or EmptyRoot for an empty tree.
func (t *Tree) Root() types.Hash {
	if len(t.levels) == 0 {
		return EmptyRoot
	}
	return t.levels[len(t.levels)-1][0]
}

// LeafCount returns the number of items the tree was built from.
func (t *Tree) LeafCount() int {
	if len(t.levels) == 0 {
		return 0
	}
	return len(t.levels[0])
}

// Depth returns the number of levels above the leaves, which is also the
// length of every proof.
func (t *Tree) Depth() int {
	if len(t.levels) == 0 {
		return 0
	}
	return len(t.levels) - 1
}

// Leaf returns the digest of leaf index.
func (t *Tree) Leaf(index int) (types.Hash, error) {
	if err := t.checkIndex(index); err != nil {
		return types.Hash{}, err
	}
	return t.levels[0][index], nil
}

// Proof returns the sibling digests needed to recompute the root from leaf
// index, ordered from the leaf level upwards. A node paired with its own
// duplicate gets itself as the sibling.
func (t *Tree) Proof(index int) ([]types.Hash, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}

	proof := make([]types.Hash, 0, t.Depth())
	idx := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling >= len(level) {
			sibling = idx
		}
		proof = append(proof, level[sibling])
		idx /= 2
	}
	return proof, nil
}

func (t *Tree) checkIndex(index int) error {
	if n := t.LeafCount(); index < 0 || index >= n {
		return fmt.Errorf("%w: index %d, %d leaves", ErrIndexOutOfRange, index, n)
	}
	return nil
}

// ProofLength returns the number of proof entries for a tree of leafCount
// leaves.
func ProofLength(leafCount int) int {
	depth := 0
	for n := leafCount; n > 1; n = (n + 1) / 2 {
		depth++
	}
	return depth
}

// Verify reports whether proof shows that leaf sits at index in a BLAKE3
// tree of leafCount leaves with the given root.
func Verify(root, leaf types.Hash, proof []types.Hash, index, leafCount int) bool {
	return VerifyWithHashFunc(crypto.Hash, root, leaf, proof, index, leafCount)
}

// VerifyWithHashFunc is Verify for a tree whose nodes were combined with fn.
//
// An index outside [0, leafCount) or a proof of the wrong length is
// rejected up front: both could otherwise make a padded duplicate position
// verify as if it were a real leaf.
func VerifyWithHashFunc(fn crypto.HashFunc, root, leaf types.Hash, proof []types.Hash, index, leafCount int) bool {
	if leafCount <= 0 || index < 0 || index >= leafCount {
		return false
	}
	if len(proof) != ProofLength(leafCount) {
		return false
	}

	node := leaf
	idx := index
	for _, sibling := range proof {
		if idx%2 == 0 {
			node = crypto.HashConcatWith(fn, node, sibling)
		} else {
			node = crypto.HashConcatWith(fn, sibling, node)
		}
		idx /= 2
	}
	return node == root
}
