package block

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrNilHeader      = errors.New("block has nil header")
	ErrBadVersion     = errors.New("unsupported block version")
	ErrBadContentRoot = errors.New("content root mismatch")
	ErrTooManyTxs     = errors.New("too many transactions in block")
)

// Block version and size constants.
const (
	CurrentVersion = 1 // The current block version produced by this software.
	MaxVersion     = 1 // Bump when a fork introduces a new block version.
	MaxBlockTxs    = 10000
)

// Validate checks block structure and internal consistency: the header
// commits to exactly this body and every transaction is well formed.
// The block store does not call this; producers and receivers do.
func (b *Block) Validate() error {
	if b.Header == nil {
		return ErrNilHeader
	}

	if b.Header.Version < 1 || b.Header.Version > MaxVersion {
		return fmt.Errorf("%w: got %d, want 1..%d", ErrBadVersion, b.Header.Version, MaxVersion)
	}

	if len(b.Transactions) > MaxBlockTxs {
		return fmt.Errorf("%w: %d txs, max %d", ErrTooManyTxs, len(b.Transactions), MaxBlockTxs)
	}

	for i, t := range b.Transactions {
		if t == nil {
			return fmt.Errorf("tx %d: nil transaction", i)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}

	if root := ComputeContentRoot(b.Transactions); root != b.Header.ContentRoot {
		return fmt.Errorf("%w: header=%s computed=%s", ErrBadContentRoot, b.Header.ContentRoot, root)
	}

	return nil
}
