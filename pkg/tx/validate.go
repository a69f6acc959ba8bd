package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
)

// Transaction limits.
const (
	CurrentVersion = 1
	MaxPayloadSize = 64 * 1024
)

// Validation errors.
var (
	ErrBadVersion      = errors.New("unsupported transaction version")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrBadPubKey       = errors.New("invalid public key")
	ErrMissingPubKey   = errors.New("signature without public key")
	ErrInvalidSig      = errors.New("invalid signature")
)

// Validate checks transaction structure. A signed transaction must carry a
// valid signature; unsigned transactions are allowed.
func (tx *Transaction) Validate() error {
	if tx.Version != CurrentVersion {
		return fmt.Errorf("%w: got %d", ErrBadVersion, tx.Version)
	}
	if len(tx.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(tx.Payload), MaxPayloadSize)
	}
	if len(tx.PubKey) != 0 && !crypto.ValidPublicKey(tx.PubKey) {
		return fmt.Errorf("%w: %x", ErrBadPubKey, tx.PubKey)
	}
	if !tx.IsSigned() {
		return nil
	}
	if len(tx.PubKey) == 0 {
		return ErrMissingPubKey
	}
	if !tx.VerifySignature() {
		return ErrInvalidSig
	}
	return nil
}
