package chain

import (
	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// ReorgEvent describes a switch of the canonical chain.
type ReorgEvent struct {
	OldTip    types.Hash
	NewTip    types.Hash
	ForkPoint types.Hash
	// Detached lists blocks that left the canonical path, lowest first.
	Detached []types.Hash
	// Attached lists blocks that joined the canonical path, lowest first.
	Attached []types.Hash
}

// Depth is the number of canonical blocks that were replaced.
func (e ReorgEvent) Depth() int {
	return len(e.Detached)
}

// ReorgHandler is called synchronously after the canonical path switches.
type ReorgHandler func(ReorgEvent)

// SetReorgHandler sets the callback invoked after every reorganization.
func (s *Store) SetReorgHandler(fn ReorgHandler) {
	s.reorgHandler = fn
}

// reorganize makes newTip the canonical tip. Every block between newTip and
// its first canonical ancestor is moved onto the path.
func (s *Store) reorganize(newTip types.Hash) {
	branch, fork := s.collectBranch(newTip)
	forkIdx := s.pathIndex[fork]

	oldTip := s.Tip()
	detached := make([]types.Hash, len(s.path)-forkIdx-1)
	copy(detached, s.path[forkIdx+1:])
	for _, h := range detached {
		delete(s.pathIndex, h)
	}

	s.path = s.path[:forkIdx+1]
	for _, h := range branch {
		s.pathIndex[h] = len(s.path)
		s.path = append(s.path, h)
	}

	ev := ReorgEvent{
		OldTip:    oldTip,
		NewTip:    newTip,
		ForkPoint: fork,
		Detached:  detached,
		Attached:  branch,
	}

	log.Chain.Info().
		Str("old_tip", oldTip.Short()).
		Str("new_tip", newTip.Short()).
		Str("fork", fork.Short()).
		Int("detached", len(detached)).
		Int("attached", len(branch)).
		Uint64("height", s.Height()).
		Msg("Chain reorganized")

	if s.reorgHandler != nil {
		s.reorgHandler(ev)
	}
}

// collectBranch walks back from tip to the first canonical ancestor. It
// returns the non-canonical blocks ordered from the fork point upward, and
// the fork point itself.
func (s *Store) collectBranch(tip types.Hash) ([]types.Hash, types.Hash) {
	var branch []types.Hash
	cur := tip
	for !s.IsCanonical(cur) {
		branch = append(branch, cur)
		cur = s.blocks[cur].Parent()
	}

	for i, j := 0, len(branch)-1; i < j; i, j = i+1, j-1 {
		branch[i], branch[j] = branch[j], branch[i]
	}
	return branch, cur
}
