// Package block defines the block record stored by the ledger.
package block

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Block is an immutable header plus an ordered list of transactions.
// Its identity is the hash of its header.
type Block struct {
	Header       *Header           `json:"header"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// NewBlock creates a new block with the given header and transactions.
func NewBlock(header *Header, txs []*tx.Transaction) *Block {
	return &Block{
		Header:       header,
		Transactions: txs,
	}
}

// Build assembles a block on top of parent, committing to txs.
func Build(parent types.Hash, txs []*tx.Transaction, timestamp, nonce uint64) *Block {
	header := &Header{
		Version:     CurrentVersion,
		Parent:      parent,
		ContentRoot: ComputeContentRoot(txs),
		Timestamp:   timestamp,
		Nonce:       nonce,
	}
	return NewBlock(header, txs)
}

// Hash returns the block header hash.
func (b *Block) Hash() types.Hash {
	if b.Header == nil {
		return types.Hash{}
	}
	return b.Header.Hash()
}

// Parent returns the parent block hash.
func (b *Block) Parent() types.Hash {
	if b.Header == nil {
		return types.Hash{}
	}
	return b.Header.Parent
}

// ComputeContentRoot returns the Merkle root committing to txs in order.
// An empty body commits to merkle.EmptyRoot.
func ComputeContentRoot(txs []*tx.Transaction) types.Hash {
	return merkle.New(txs).Root()
}
