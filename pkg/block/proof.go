package block

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// ProveTransaction returns a Merkle inclusion proof for the transaction at
// index i of the block body.
func (b *Block) ProveTransaction(i int) ([]types.Hash, error) {
	return merkle.New(b.Transactions).Proof(i)
}

// VerifyTransaction checks an inclusion proof against a header alone, as a
// light client holding only headers would.
func VerifyTransaction(header *Header, t *tx.Transaction, proof []types.Hash, index, txCount int) bool {
	if header == nil || t == nil {
		return false
	}
	return merkle.Verify(header.ContentRoot, t.Hash(), proof, index, txCount)
}
