package chain

import "errors"

var (
	// ErrNilBlock is returned when a nil block or a block without a header
	// is offered to the store.
	ErrNilBlock = errors.New("nil block")
	// ErrMissingParent is returned when a block's parent is not in the store.
	ErrMissingParent = errors.New("parent block not found")
	// ErrBadGenesis is returned when a genesis block is malformed.
	ErrBadGenesis = errors.New("invalid genesis block")
)
