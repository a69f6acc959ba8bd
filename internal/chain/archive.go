package chain

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

var prefixBlock = []byte("b/") // b/<hash(32)> -> block JSON

// Archive keeps blocks pruned from the store in a storage.DB. The store
// only writes to it; nothing is ever loaded back into the store.
type Archive struct {
	db storage.DB
}

// NewArchive creates an archive backed by the given database.
func NewArchive(db storage.DB) *Archive {
	return &Archive{db: db}
}

// Put stores a single block under its hash.
func (a *Archive) Put(blk *block.Block) error {
	if blk == nil || blk.Header == nil {
		return ErrNilBlock
	}
	data, err := json.Marshal(blk)
	if err != nil {
		return fmt.Errorf("block marshal: %w", err)
	}
	if err := a.db.Put(blockKey(blk.Hash()), data); err != nil {
		return fmt.Errorf("block put: %w", err)
	}
	return nil
}

// PutBatch stores blocks in one batch, atomically when the backend allows.
func (a *Archive) PutBatch(blks []*block.Block) error {
	batch := storage.NewBatch(a.db)
	for _, blk := range blks {
		if blk == nil || blk.Header == nil {
			return ErrNilBlock
		}
		data, err := json.Marshal(blk)
		if err != nil {
			return fmt.Errorf("block marshal: %w", err)
		}
		if err := batch.Put(blockKey(blk.Hash()), data); err != nil {
			return fmt.Errorf("block put: %w", err)
		}
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}
	return nil
}

// Get retrieves an archived block. Missing blocks wrap storage.ErrNotFound.
func (a *Archive) Get(hash types.Hash) (*block.Block, error) {
	data, err := a.db.Get(blockKey(hash))
	if err != nil {
		return nil, fmt.Errorf("block get %s: %w", hash, err)
	}
	var blk block.Block
	if err := json.Unmarshal(data, &blk); err != nil {
		return nil, fmt.Errorf("block unmarshal: %w", err)
	}
	if blk.Header == nil || blk.Hash() != hash {
		return nil, fmt.Errorf("corrupt archive entry %s", hash)
	}
	return &blk, nil
}

// Has checks if a block is archived.
func (a *Archive) Has(hash types.Hash) (bool, error) {
	return a.db.Has(blockKey(hash))
}

// Count returns the number of archived blocks.
func (a *Archive) Count() (int, error) {
	var n int
	err := a.db.ForEach(prefixBlock, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// ForEach calls fn for every archived block. Iteration stops at the first
// error returned by fn.
func (a *Archive) ForEach(fn func(*block.Block) error) error {
	return a.db.ForEach(prefixBlock, func(_, value []byte) error {
		var blk block.Block
		if err := json.Unmarshal(value, &blk); err != nil {
			return fmt.Errorf("block unmarshal: %w", err)
		}
		return fn(&blk)
	})
}

func blockKey(hash types.Hash) []byte {
	key := make([]byte, len(prefixBlock)+types.HashSize)
	copy(key, prefixBlock)
	copy(key[len(prefixBlock):], hash[:])
	return key
}
