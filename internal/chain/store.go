// Package chain holds every block the node has seen and tracks the
// canonical chain using the longest-chain rule.
package chain

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Store is an append-only arena of blocks plus the canonical path from
// genesis to the current tip.
//
// Store is not safe for concurrent use; wrap it in a SafeStore when several
// goroutines share it.
type Store struct {
	blocks    map[types.Hash]*block.Block
	heights   map[types.Hash]uint64
	path      []types.Hash       // path[i] is the canonical block at height i
	pathIndex map[types.Hash]int // canonical hash -> index into path

	archive      *Archive
	reorgHandler ReorgHandler
}

// New creates a store holding only the default genesis block.
func New() *Store {
	return newStore(block.Genesis())
}

// NewWithGenesis creates a store rooted at g. The genesis block must have a
// header and the zero parent sentinel.
func NewWithGenesis(g *block.Block) (*Store, error) {
	if g == nil || g.Header == nil {
		return nil, fmt.Errorf("%w: nil block", ErrBadGenesis)
	}
	if !g.IsGenesis() {
		return nil, fmt.Errorf("%w: parent %s is not the zero hash", ErrBadGenesis, g.Parent())
	}

	return newStore(g), nil
}

func newStore(g *block.Block) *Store {
	h := g.Hash()
	return &Store{
		blocks:    map[types.Hash]*block.Block{h: g},
		heights:   map[types.Hash]uint64{h: 0},
		path:      []types.Hash{h},
		pathIndex: map[types.Hash]int{h: 0},
	}
}

// SetArchive attaches an archive that receives pruned blocks.
func (s *Store) SetArchive(a *Archive) {
	s.archive = a
}

// Insert records blk and updates the canonical chain if blk's branch is now
// strictly longer than the current one.
//
// Re-inserting a known block is a no-op. A block whose parent is unknown is
// rejected with ErrMissingParent and leaves the store untouched.
func (s *Store) Insert(blk *block.Block) error {
	if blk == nil || blk.Header == nil {
		return ErrNilBlock
	}

	hash := blk.Hash()
	if _, ok := s.blocks[hash]; ok {
		return nil
	}

	parent := blk.Parent()
	parentHeight, ok := s.heights[parent]
	if !ok {
		log.Chain.Warn().
			Str("block", hash.Short()).
			Str("parent", parent.Short()).
			Msg("Rejected block with unknown parent")
		return fmt.Errorf("block %s: %w: %s", hash, ErrMissingParent, parent)
	}

	height := parentHeight + 1
	s.blocks[hash] = blk
	s.heights[hash] = height

	if parent == s.Tip() {
		s.pathIndex[hash] = len(s.path)
		s.path = append(s.path, hash)
		log.Chain.Debug().
			Str("hash", hash.Short()).
			Uint64("height", height).
			Msg("Extended canonical chain")
		return nil
	}

	if !s.prefer(height) {
		log.Chain.Debug().
			Str("hash", hash.Short()).
			Uint64("height", height).
			Uint64("tip_height", s.Height()).
			Msg("Stored side-branch block")
		return nil
	}

	s.reorganize(hash)
	return nil
}

// prefer reports whether a branch ending at newHeight should replace the
// canonical chain. Equal heights keep the incumbent.
func (s *Store) prefer(newHeight uint64) bool {
	return newHeight > s.Height()
}

// Tip returns the hash of the last block on the canonical path.
func (s *Store) Tip() types.Hash {
	return s.path[len(s.path)-1]
}

// Genesis returns the genesis block hash.
func (s *Store) Genesis() types.Hash {
	return s.path[0]
}

// Height returns the height of the canonical tip. Genesis is height 0.
func (s *Store) Height() uint64 {
	return uint64(len(s.path) - 1)
}

// Lookup returns the block with the given hash, canonical or not.
func (s *Store) Lookup(h types.Hash) (*block.Block, bool) {
	blk, ok := s.blocks[h]
	return blk, ok
}

// Contains reports whether the block is held by the store.
func (s *Store) Contains(h types.Hash) bool {
	_, ok := s.blocks[h]
	return ok
}

// Len returns the number of blocks held, across all branches.
func (s *Store) Len() int {
	return len(s.blocks)
}

// HeightOf returns the distance of a block from genesis.
func (s *Store) HeightOf(h types.Hash) (uint64, bool) {
	height, ok := s.heights[h]
	return height, ok
}

// CanonicalPath returns a copy of the canonical path, genesis first.
func (s *Store) CanonicalPath() []types.Hash {
	out := make([]types.Hash, len(s.path))
	copy(out, s.path)
	return out
}

// CanonicalAt returns the canonical block hash at the given height.
func (s *Store) CanonicalAt(height uint64) (types.Hash, bool) {
	if height >= uint64(len(s.path)) {
		return types.Hash{}, false
	}
	return s.path[height], true
}

// IsCanonical reports whether h lies on the canonical path.
func (s *Store) IsCanonical(h types.Hash) bool {
	_, ok := s.pathIndex[h]
	return ok
}

// Ancestors returns up to n ancestors of h, nearest first. The result stops
// early at genesis. Unknown hashes yield nil.
func (s *Store) Ancestors(h types.Hash, n int) []types.Hash {
	blk, ok := s.blocks[h]
	if !ok || n <= 0 {
		return nil
	}
	var out []types.Hash
	for len(out) < n && !blk.IsGenesis() {
		parent := blk.Parent()
		out = append(out, parent)
		blk = s.blocks[parent]
	}
	return out
}
