package block

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Header contains block metadata.
type Header struct {
	Version     uint32     `json:"version"`
	Parent      types.Hash `json:"parent"`
	ContentRoot types.Hash `json:"content_root"`
	Timestamp   uint64     `json:"timestamp"`
	Nonce       uint64     `json:"nonce"`
}

// Hash computes the block header hash.
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.SigningBytes())
}

// SigningBytes returns the canonical header bytes.
// Format: version(4) | parent(32) | content_root(32) | timestamp(8) | nonce(8)
func (h *Header) SigningBytes() []byte {
	buf := make([]byte, 0, 84)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = append(buf, h.Parent[:]...)
	buf = append(buf, h.ContentRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Timestamp)
	buf = binary.LittleEndian.AppendUint64(buf, h.Nonce)
	return buf
}
