package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Key and signature sizes.
const (
	PrivateKeySize = 32
	PublicKeySize  = 33 // compressed
	SignatureSize  = 64
)

var (
	ErrDigestSize = errors.New("digest must be 32 bytes")
	ErrKeySize    = errors.New("private key must be 32 bytes")
)

// Signer authors transactions. Producer keys derived from the keyring and
// throwaway keys in tests both satisfy it.
type Signer interface {
	// Sign returns a 64-byte Schnorr signature over a 32-byte digest.
	Sign(digest []byte) ([]byte, error)
	PublicKey() []byte
}

// PrivateKey is a secp256k1 producer key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey returns a fresh random key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes loads a key from its raw scalar, as produced by
// Serialize or by HD derivation.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("%w, got %d", ErrKeySize, len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// Sign implements Signer. Signing is deterministic: the same key and digest
// always give the same signature, which keeps seeded runs reproducible.
func (pk *PrivateKey) Sign(digest []byte) ([]byte, error) {
	if len(digest) != types.HashSize {
		return nil, fmt.Errorf("%w, got %d", ErrDigestSize, len(digest))
	}
	sig, err := schnorr.Sign(pk.key, digest)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// PublicKey implements Signer.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero overwrites the scalar. The key is unusable afterwards.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// SignHash signs a block or transaction id.
func SignHash(s Signer, h types.Hash) ([]byte, error) {
	return s.Sign(h[:])
}

// VerifyHash reports whether sig is pubKey's signature over the id h.
func VerifyHash(h types.Hash, sig, pubKey []byte) bool {
	return VerifySignature(h[:], sig, pubKey)
}

// VerifySignature checks a Schnorr signature over a raw digest. Any
// malformed input, including a digest of the wrong size, is simply invalid.
func VerifySignature(digest, sig, pubKey []byte) bool {
	if len(digest) != types.HashSize || len(sig) != SignatureSize {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest, pub)
}

// ValidPublicKey reports whether b is a compressed point on the curve.
func ValidPublicKey(b []byte) bool {
	if len(b) != PublicKeySize {
		return false
	}
	_, err := secp256k1.ParsePubKey(b)
	return err == nil
}
