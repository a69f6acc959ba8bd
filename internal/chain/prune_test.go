package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
)

func TestPrune_Disabled(t *testing.T) {
	s := New()
	main := extend(t, s, s.Genesis(), 10, 1)
	extend(t, s, main[0].Hash(), 2, 100)

	n, err := s.Prune(0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 13, s.Len())
}

func TestPrune_RemovesStaleBranches(t *testing.T) {
	s := New()
	main := extend(t, s, s.Genesis(), 10, 1)

	stale := extend(t, s, main[1].Hash(), 3, 100) // forks at height 2
	fresh := extend(t, s, main[7].Hash(), 1, 200) // forks at height 8

	// Tip is at 10; depth 5 finalizes everything below height 5.
	n, err := s.Prune(5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, b := range stale {
		assert.False(t, s.Contains(b.Hash()))
		_, ok := s.HeightOf(b.Hash())
		assert.False(t, ok)
	}
	assert.True(t, s.Contains(fresh[0].Hash()))
	for _, b := range main {
		assert.True(t, s.Contains(b.Hash()), "canonical blocks are never pruned")
	}
	assert.Equal(t, 12, s.Len())
	assert.Equal(t, main[9].Hash(), s.Tip())

	// Nothing left to do.
	n, err = s.Prune(5)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPrune_ForkExactlyAtBoundaryKept(t *testing.T) {
	s := New()
	main := extend(t, s, s.Genesis(), 10, 1)
	side := extend(t, s, main[4].Hash(), 1, 100) // fork point at height 5

	n, err := s.Prune(5)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, s.Contains(side[0].Hash()))
}

func TestPrune_ShortChain(t *testing.T) {
	s := New()
	main := extend(t, s, s.Genesis(), 3, 1)
	extend(t, s, main[0].Hash(), 1, 100)

	n, err := s.Prune(10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPrune_NestedBranchesGoTogether(t *testing.T) {
	s := New()
	main := extend(t, s, s.Genesis(), 12, 1)

	side := extend(t, s, main[0].Hash(), 3, 100)
	nested := extend(t, s, side[0].Hash(), 2, 200)

	n, err := s.Prune(4)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	for _, b := range append(side, nested...) {
		assert.False(t, s.Contains(b.Hash()))
	}

	// Every retained block still has its parent.
	for _, h := range s.CanonicalPath()[1:] {
		blk, _ := s.Lookup(h)
		assert.True(t, s.Contains(blk.Parent()))
	}
}

func TestPrune_Archive(t *testing.T) {
	s := New()
	db := storage.NewMemory()
	archive := NewArchive(db)
	s.SetArchive(archive)

	main := extend(t, s, s.Genesis(), 8, 1)
	stale := extend(t, s, main[0].Hash(), 2, 100)

	n, err := s.Prune(3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := archive.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, b := range stale {
		got, err := archive.Get(b.Hash())
		require.NoError(t, err)
		assert.Equal(t, b.Hash(), got.Hash())
		_, ok := s.Lookup(b.Hash())
		assert.False(t, ok, "archived blocks leave the arena")
	}
}

// failingDB rejects every write.
type failingDB struct {
	storage.DB
}

func (failingDB) Put(_, _ []byte) error { return errors.New("disk full") }

func TestPrune_ArchiveFailureKeepsBlocks(t *testing.T) {
	s := New()
	s.SetArchive(NewArchive(failingDB{storage.NewMemory()}))

	main := extend(t, s, s.Genesis(), 8, 1)
	stale := extend(t, s, main[0].Hash(), 2, 100)

	_, err := s.Prune(3)
	require.Error(t, err)
	for _, b := range stale {
		assert.True(t, s.Contains(b.Hash()))
	}
}

func TestPrune_ThenReorgStillWorks(t *testing.T) {
	s := New()
	main := extend(t, s, s.Genesis(), 10, 1)
	extend(t, s, main[0].Hash(), 2, 100)

	_, err := s.Prune(3)
	require.NoError(t, err)

	side := extend(t, s, main[7].Hash(), 3, 300)
	assert.Equal(t, side[2].Hash(), s.Tip())
	assert.Equal(t, uint64(11), s.Height())
}
