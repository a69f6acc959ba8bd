// Package tx defines the transaction carried in block bodies.
//
// The ledger core treats transactions as opaque, hashable content: there
// are no balances or spend rules here. A transaction may optionally be
// signed by its author.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Transaction is an opaque payload with an optional author signature.
type Transaction struct {
	Version   uint32 `json:"version"`
	Nonce     uint64 `json:"nonce"`
	Payload   []byte `json:"payload"`
	PubKey    []byte `json:"pubkey,omitempty"`
	Signature []byte `json:"signature,omitempty"`
}

// txJSON is the JSON representation of Transaction with hex-encoded bytes.
type txJSON struct {
	Version   uint32 `json:"version"`
	Nonce     uint64 `json:"nonce"`
	Payload   string `json:"payload"`
	PubKey    string `json:"pubkey,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// New creates an unsigned version-1 transaction.
func New(nonce uint64, payload []byte) *Transaction {
	return &Transaction{Version: CurrentVersion, Nonce: nonce, Payload: payload}
}

// MarshalJSON encodes the transaction with hex-encoded byte fields.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(txJSON{
		Version:   tx.Version,
		Nonce:     tx.Nonce,
		Payload:   hex.EncodeToString(tx.Payload),
		PubKey:    hex.EncodeToString(tx.PubKey),
		Signature: hex.EncodeToString(tx.Signature),
	})
}

// UnmarshalJSON decodes a transaction with hex-encoded byte fields.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var j txJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	payload, err := decodeHex(j.Payload)
	if err != nil {
		return err
	}
	pub, err := decodeHex(j.PubKey)
	if err != nil {
		return err
	}
	sig, err := decodeHex(j.Signature)
	if err != nil {
		return err
	}
	tx.Version = j.Version
	tx.Nonce = j.Nonce
	tx.Payload = payload
	tx.PubKey = pub
	tx.Signature = sig
	return nil
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

// Hash computes the transaction ID (BLAKE3 of the signing bytes).
// The signature is excluded so the ID is stable across signing.
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for hashing
// and signing.
// Format: version(4) | nonce(8) | payload_len(4) | payload | pubkey_len(4) | pubkey
func (tx *Transaction) SigningBytes() []byte {
	buf := make([]byte, 0, 20+len(tx.Payload)+len(tx.PubKey))
	buf = binary.LittleEndian.AppendUint32(buf, tx.Version)
	buf = binary.LittleEndian.AppendUint64(buf, tx.Nonce)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Payload)))
	buf = append(buf, tx.Payload...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.PubKey)))
	buf = append(buf, tx.PubKey...)
	return buf
}

// Sign sets the author public key and signs the transaction ID.
func (tx *Transaction) Sign(signer crypto.Signer) error {
	tx.PubKey = signer.PublicKey()
	sig, err := crypto.SignHash(signer, tx.Hash())
	if err != nil {
		return err
	}
	tx.Signature = sig
	return nil
}

// IsSigned reports whether the transaction carries an author signature.
func (tx *Transaction) IsSigned() bool {
	return len(tx.Signature) > 0
}

// VerifySignature reports whether the signature is valid for PubKey.
// Unsigned transactions return false.
func (tx *Transaction) VerifySignature() bool {
	if !tx.IsSigned() {
		return false
	}
	return crypto.VerifyHash(tx.Hash(), tx.Signature, tx.PubKey)
}
