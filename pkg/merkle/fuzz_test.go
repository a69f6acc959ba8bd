package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// FuzzVerify checks that Verify never panics on arbitrary proofs and only
// accepts the genuine proof for a leaf.
func FuzzVerify(f *testing.F) {
	f.Add(uint8(5), 2, []byte{})
	f.Add(uint8(1), 0, []byte{0x01})
	f.Add(uint8(0), -1, make([]byte, 64))
	f.Add(uint8(9), 8, make([]byte, 130))

	f.Fuzz(func(t *testing.T, n uint8, index int, raw []byte) {
		in := make([]crypto.Bytes, n)
		for i := range in {
			in[i] = crypto.Bytes{byte(i), n}
		}
		tree := New(in)

		var proof []types.Hash
		for len(raw) >= types.HashSize {
			var h types.Hash
			copy(h[:], raw[:types.HashSize])
			proof = append(proof, h)
			raw = raw[types.HashSize:]
		}

		var leaf types.Hash
		if index >= 0 && index < len(in) {
			leaf = in[index].Hash()
		}
		ok := Verify(tree.Root(), leaf, proof, index, len(in))

		genuine, err := tree.Proof(index)
		if err != nil {
			require.False(t, ok, "accepted proof for out-of-range index %d of %d", index, n)
			return
		}
		if ok {
			require.Equal(t, genuine, proof, "accepted forged proof for index %d of %d", index, n)
		}
	})
}
