package chain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

func TestSafeStore_ConcurrentInsertAndRead(t *testing.T) {
	ss := NewSafeStore(New())
	genesis := ss.Genesis()

	const writers, perWriter = 4, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			parent := genesis
			for i := 0; i < perWriter; i++ {
				blk := child(parent, uint64(w*1000+i+1))
				if !assert.NoError(t, ss.Insert(blk)) {
					return
				}
				parent = blk.Hash()
			}
		}(w)
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				tip := ss.Tip()
				_, ok := ss.Lookup(tip)
				assert.True(t, ok)
				path := ss.CanonicalPath()
				assert.Equal(t, genesis, path[0])
			}
		}()
	}

	wg.Wait()
	close(stop)
	readers.Wait()

	assert.Equal(t, writers*perWriter+1, ss.Len())
	assert.Equal(t, uint64(perWriter), ss.Height())

	// The canonical path is a parent-linked chain from genesis.
	path := ss.CanonicalPath()
	for i := 1; i < len(path); i++ {
		blk, ok := ss.Lookup(path[i])
		require.True(t, ok)
		assert.Equal(t, path[i-1], blk.Parent())
		h, _ := ss.HeightOf(path[i])
		assert.Equal(t, uint64(i), h)
	}
}

func TestSafeStore_Delegates(t *testing.T) {
	ss := NewSafeStore(New())
	var reorgs int
	ss.SetReorgHandler(func(ReorgEvent) { reorgs++ })

	b1 := child(ss.Genesis(), 1)
	require.NoError(t, ss.Insert(b1))
	f1 := child(ss.Genesis(), 2)
	require.NoError(t, ss.Insert(f1))
	f2 := child(f1.Hash(), 3)
	require.NoError(t, ss.Insert(f2))

	assert.Equal(t, 1, reorgs)
	assert.Equal(t, f2.Hash(), ss.Tip())
	assert.True(t, ss.Contains(b1.Hash()))
	assert.False(t, ss.IsCanonical(b1.Hash()))
	at, ok := ss.CanonicalAt(1)
	require.True(t, ok)
	assert.Equal(t, f1.Hash(), at)
	assert.Equal(t, []types.Hash{f1.Hash(), block.Genesis().Hash()}, ss.Ancestors(f2.Hash(), 5))

	n, err := ss.Prune(0)
	require.NoError(t, err)
	assert.Zero(t, n)
}
