// Package miner assembles blocks on top of a chain view.
package miner

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// ErrUnknownParent is returned when asked to build on a block the chain
// view does not hold.
var ErrUnknownParent = errors.New("unknown parent block")

// ChainView provides read-only access to the block store.
type ChainView interface {
	Tip() types.Hash
	Lookup(h types.Hash) (*block.Block, bool)
}

// TxSource supplies transactions for block inclusion. A source that cannot
// produce a transaction must fail the request rather than return fewer.
type TxSource interface {
	Transactions(n int) ([]*tx.Transaction, error)
}

// Miner produces new blocks. It does not insert them; the caller decides
// where they go.
type Miner struct {
	id          uint32
	chain       ChainView
	pool        TxSource
	signer      crypto.Signer
	maxBlockTxs int
	nonce       uint64
}

// New creates a block producer. pool may be nil for stamp-only blocks.
func New(id uint32, chain ChainView, pool TxSource, signer crypto.Signer) *Miner {
	return &Miner{
		id:          id,
		chain:       chain,
		pool:        pool,
		signer:      signer,
		maxBlockTxs: block.MaxBlockTxs,
	}
}

// ID returns the miner's identifier.
func (m *Miner) ID() uint32 {
	return m.id
}

// ProduceBlock builds a block on the current tip.
func (m *Miner) ProduceBlock(timestamp uint64) (*block.Block, error) {
	return m.ProduceBlockOn(m.chain.Tip(), timestamp)
}

// ProduceBlockOn builds a block on an explicit parent, which need not be
// the tip. The timestamp is bumped to at least parent+1.
func (m *Miner) ProduceBlockOn(parentHash types.Hash, timestamp uint64) (*block.Block, error) {
	parent, ok := m.chain.Lookup(parentHash)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParent, parentHash)
	}
	if parentTS := parent.Header.Timestamp; timestamp <= parentTS {
		timestamp = parentTS + 1
	}

	m.nonce++
	stamp, err := m.buildStamp(parentHash)
	if err != nil {
		return nil, fmt.Errorf("producer stamp: %w", err)
	}

	var selected []*tx.Transaction
	if m.pool != nil {
		selected, err = m.pool.Transactions(m.maxBlockTxs - 1) // Reserve slot for the stamp.
		if err != nil {
			return nil, fmt.Errorf("select transactions: %w", err)
		}
	}
	// Canonical order for everything after the stamp.
	sort.Slice(selected, func(i, j int) bool {
		hi, hj := selected[i].Hash(), selected[j].Hash()
		return bytes.Compare(hi[:], hj[:]) < 0
	})

	txs := make([]*tx.Transaction, 0, 1+len(selected))
	txs = append(txs, stamp)
	txs = append(txs, selected...)

	blk := block.Build(parentHash, txs, timestamp, m.nonce)

	log.Miner.Debug().
		Uint32("miner", m.id).
		Str("parent", parentHash.Short()).
		Str("hash", blk.Hash().Short()).
		Int("txs", len(txs)).
		Msg("Produced block")

	return blk, nil
}

// buildStamp creates the signed transaction that opens every block. It
// names the producer and parent, so sibling blocks from different miners
// never share a body.
func (m *Miner) buildStamp(parent types.Hash) (*tx.Transaction, error) {
	payload := make([]byte, 0, 4+types.HashSize)
	payload = binary.LittleEndian.AppendUint32(payload, m.id)
	payload = append(payload, parent[:]...)

	stamp := tx.New(m.nonce, payload)
	if m.signer == nil {
		return stamp, nil
	}
	if err := stamp.Sign(m.signer); err != nil {
		return nil, err
	}
	return stamp, nil
}

// IsStamp reports whether t is a producer stamp naming parent. Every block
// built by a Miner opens with one.
func IsStamp(t *tx.Transaction, parent types.Hash) bool {
	if t == nil || len(t.Payload) != 4+types.HashSize {
		return false
	}
	return bytes.Equal(t.Payload[4:], parent[:])
}
