package block

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// GenesisTimestamp is the timestamp of the default genesis block.
const GenesisTimestamp = 1700000000

// GenesisParent is the reserved parent of a genesis block. No real block
// hashes to it.
var GenesisParent = types.Hash{}

// Genesis returns the default genesis block. Every call returns an equal
// block with the same hash.
func Genesis() *Block {
	return GenesisAt(GenesisTimestamp)
}

// GenesisAt returns a genesis block with the given timestamp. Networks that
// must not share history use distinct timestamps.
func GenesisAt(timestamp uint64) *Block {
	header := &Header{
		Version:     CurrentVersion,
		Parent:      GenesisParent,
		ContentRoot: merkle.EmptyRoot,
		Timestamp:   timestamp,
	}
	return NewBlock(header, nil)
}

// IsGenesis reports whether the block has the reserved genesis parent.
func (b *Block) IsGenesis() bool {
	return b.Header != nil && b.Header.Parent == GenesisParent
}
