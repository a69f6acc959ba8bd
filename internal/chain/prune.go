package chain

import (
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Prune removes side branches that forked off the canonical path more than
// finalityDepth blocks below the tip. A whole branch goes at once, so every
// retained block still has its parent. Canonical blocks are never removed.
//
// Pruned blocks are written to the archive, if one is set, before they leave
// the store. A depth of 0 disables pruning. Returns the number of blocks
// removed.
func (s *Store) Prune(finalityDepth uint64) (int, error) {
	if finalityDepth == 0 || s.Height() <= finalityDepth {
		return 0, nil
	}
	finalized := s.Height() - finalityDepth

	forks := s.forkPoints()
	var dead []*block.Block
	for h, fork := range forks {
		if s.heights[fork] < finalized {
			dead = append(dead, s.blocks[h])
		}
	}
	if len(dead) == 0 {
		return 0, nil
	}

	sort.Slice(dead, func(i, j int) bool {
		hi, hj := s.heights[dead[i].Hash()], s.heights[dead[j].Hash()]
		if hi != hj {
			return hi < hj
		}
		a, b := dead[i].Hash(), dead[j].Hash()
		return string(a[:]) < string(b[:])
	})

	if s.archive != nil {
		if err := s.archive.PutBatch(dead); err != nil {
			return 0, fmt.Errorf("archive pruned blocks: %w", err)
		}
	}

	for _, blk := range dead {
		h := blk.Hash()
		delete(s.blocks, h)
		delete(s.heights, h)
	}

	log.Chain.Info().
		Int("pruned", len(dead)).
		Uint64("finalized_height", finalized).
		Int("retained", len(s.blocks)).
		Msg("Pruned stale side branches")

	return len(dead), nil
}

// forkPoints maps every non-canonical block to its first canonical ancestor.
func (s *Store) forkPoints() map[types.Hash]types.Hash {
	forks := make(map[types.Hash]types.Hash)
	for h := range s.blocks {
		if s.IsCanonical(h) {
			continue
		}
		if _, done := forks[h]; done {
			continue
		}

		// Walk down until a canonical or already resolved block, then fill in
		// the whole walked segment.
		var walked []types.Hash
		cur := h
		var fork types.Hash
		for {
			if s.IsCanonical(cur) {
				fork = cur
				break
			}
			if f, ok := forks[cur]; ok {
				fork = f
				break
			}
			walked = append(walked, cur)
			cur = s.blocks[cur].Parent()
		}
		for _, w := range walked {
			forks[w] = fork
		}
	}
	return forks
}
