package chain

import (
	"sync"

	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// SafeStore guards a Store with a single RWMutex. Writers (Insert, Prune)
// are serialized; readers run concurrently.
//
// The reorg handler runs while the write lock is held and must not call
// back into the SafeStore.
type SafeStore struct {
	mu sync.RWMutex
	s  *Store
}

// NewSafeStore wraps s. The caller must not use s directly afterwards.
func NewSafeStore(s *Store) *SafeStore {
	return &SafeStore{s: s}
}

func (ss *SafeStore) Insert(blk *block.Block) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Insert(blk)
}

func (ss *SafeStore) Prune(finalityDepth uint64) (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Prune(finalityDepth)
}

func (ss *SafeStore) SetReorgHandler(fn ReorgHandler) {
	ss.mu.Lock()
	ss.s.SetReorgHandler(fn)
	ss.mu.Unlock()
}

func (ss *SafeStore) SetArchive(a *Archive) {
	ss.mu.Lock()
	ss.s.SetArchive(a)
	ss.mu.Unlock()
}

func (ss *SafeStore) Tip() types.Hash {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.Tip()
}

func (ss *SafeStore) Genesis() types.Hash {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.Genesis()
}

func (ss *SafeStore) Height() uint64 {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.Height()
}

func (ss *SafeStore) Lookup(h types.Hash) (*block.Block, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.Lookup(h)
}

func (ss *SafeStore) Contains(h types.Hash) bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.Contains(h)
}

func (ss *SafeStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.Len()
}

func (ss *SafeStore) HeightOf(h types.Hash) (uint64, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.HeightOf(h)
}

func (ss *SafeStore) CanonicalPath() []types.Hash {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.CanonicalPath()
}

func (ss *SafeStore) CanonicalAt(height uint64) (types.Hash, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.CanonicalAt(height)
}

func (ss *SafeStore) IsCanonical(h types.Hash) bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.IsCanonical(h)
}

func (ss *SafeStore) Ancestors(h types.Hash, n int) []types.Hash {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.s.Ancestors(h, n)
}
