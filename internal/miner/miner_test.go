package miner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-ledger/internal/chain"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

type staticSource struct {
	txs []*tx.Transaction
	err error
}

func (s *staticSource) Transactions(n int) ([]*tx.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	if n >= len(s.txs) {
		return s.txs, nil
	}
	return s.txs[:n], nil
}

func testSource(n int) *staticSource {
	src := &staticSource{}
	for i := 0; i < n; i++ {
		src.txs = append(src.txs, tx.New(uint64(i), []byte(fmt.Sprintf("tx-%d", i))))
	}
	return src
}

func testMiner(t *testing.T, id uint32, view ChainView, src TxSource) *Miner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return New(id, view, src, key)
}

func TestMiner_ProduceBlock(t *testing.T) {
	store := chain.New()
	m := testMiner(t, 1, store, testSource(3))

	blk, err := m.ProduceBlock(block.GenesisTimestamp + 10)
	require.NoError(t, err)
	assert.Equal(t, store.Tip(), blk.Parent(), "block should build on the tip")
	require.Len(t, blk.Transactions, 4, "stamp + 3 txs")
	assert.True(t, IsStamp(blk.Transactions[0], store.Tip()), "first tx should be the producer stamp")
	assert.True(t, blk.Transactions[0].VerifySignature())
	assert.NoError(t, blk.Validate())

	require.NoError(t, store.Insert(blk))
	assert.Equal(t, blk.Hash(), store.Tip())
}

func TestMiner_TimestampMonotonic(t *testing.T) {
	store := chain.New()
	m := testMiner(t, 1, store, nil)

	blk, err := m.ProduceBlock(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(block.GenesisTimestamp+1), blk.Header.Timestamp, "timestamp should be parent+1")
	assert.Len(t, blk.Transactions, 1, "nil pool should give a stamp-only block")
}

func TestMiner_SiblingsDiffer(t *testing.T) {
	store := chain.New()
	a := testMiner(t, 1, store, nil)
	b := testMiner(t, 2, store, nil)
	ts := uint64(block.GenesisTimestamp + 5)

	a1, _ := a.ProduceBlock(ts)
	a2, _ := a.ProduceBlock(ts)
	b1, _ := b.ProduceBlock(ts)

	seen := map[types.Hash]bool{}
	for _, blk := range []*block.Block{a1, a2, b1} {
		require.False(t, seen[blk.Hash()], "sibling blocks should have distinct hashes")
		seen[blk.Hash()] = true
	}
}

func TestMiner_ProduceBlockOn(t *testing.T) {
	store := chain.New()
	m := testMiner(t, 1, store, nil)

	b1, _ := m.ProduceBlock(0)
	require.NoError(t, store.Insert(b1))
	b2, _ := m.ProduceBlock(0)
	require.NoError(t, store.Insert(b2))

	fork, err := m.ProduceBlockOn(b1.Hash(), 0)
	require.NoError(t, err)
	assert.Equal(t, b1.Hash(), fork.Parent())
	require.NoError(t, store.Insert(fork))
	assert.Equal(t, b2.Hash(), store.Tip(), "equal-height fork should not take the tip")

	_, err = m.ProduceBlockOn(types.Hash{0x01}, 0)
	assert.ErrorIs(t, err, ErrUnknownParent)
}

func TestMiner_SourceError(t *testing.T) {
	errDrained := errors.New("source drained")
	store := chain.New()
	m := testMiner(t, 1, store, &staticSource{err: errDrained})

	blk, err := m.ProduceBlock(0)
	assert.ErrorIs(t, err, errDrained)
	assert.Nil(t, blk)
}

func TestMiner_CanonicalTxOrder(t *testing.T) {
	store := chain.New()
	m := New(7, store, testSource(20), nil)

	blk, err := m.ProduceBlock(0)
	require.NoError(t, err)
	body := blk.Transactions[1:]
	for i := 1; i < len(body); i++ {
		prev, cur := body[i-1].Hash(), body[i].Hash()
		require.LessOrEqual(t, string(prev[:]), string(cur[:]), "transactions after the stamp should be sorted by hash")
	}
	assert.False(t, blk.Transactions[0].IsSigned(), "stamp without signer should be unsigned")
	assert.Equal(t, uint32(7), m.ID())
}

func TestIsStamp(t *testing.T) {
	parent := types.Hash{0xaa}
	m := New(3, nil, nil, nil)
	stamp, err := m.buildStamp(parent)
	require.NoError(t, err)

	assert.True(t, IsStamp(stamp, parent))
	assert.False(t, IsStamp(stamp, types.Hash{0xbb}))
	assert.False(t, IsStamp(tx.New(1, []byte("short")), parent))
	assert.False(t, IsStamp(nil, parent))
}
