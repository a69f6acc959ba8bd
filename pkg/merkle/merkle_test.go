package merkle

import (
	"encoding/hex"
	"fmt"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha256Item is a 32-byte value whose leaf digest is its SHA-256.
type sha256Item types.Hash

func (s sha256Item) Hash() types.Hash { return crypto.SHA256(s[:]) }

func mustHex(t *testing.T, s string) types.Hash {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	h, err := types.BytesToHash(b)
	require.NoError(t, err)
	return h
}

func items(n int) []crypto.Bytes {
	out := make([]crypto.Bytes, n)
	for i := range out {
		out[i] = crypto.Bytes(fmt.Sprintf("tx-%d", i))
	}
	return out
}

func TestNew_Empty(t *testing.T) {
	tree := New([]crypto.Bytes{})
	assert.Equal(t, EmptyRoot, tree.Root())
	assert.True(t, tree.Root().IsZero())
	assert.Equal(t, 0, tree.LeafCount())
	assert.Equal(t, 0, tree.Depth())

	for _, idx := range []int{-1, 0, 1, 100} {
		_, err := tree.Proof(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
	}

	assert.True(t, New[crypto.Bytes](nil).Root().IsZero())
}

func TestNew_Single(t *testing.T) {
	leaf := crypto.Bytes("only")
	tree := New([]crypto.Bytes{leaf})

	assert.Equal(t, leaf.Hash(), tree.Root())
	proof, err := tree.Proof(0)
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.True(t, Verify(tree.Root(), leaf.Hash(), proof, 0, 1))
}

func TestNew_TwoItems(t *testing.T) {
	a, b := crypto.Bytes("A"), crypto.Bytes("B")
	tree := New([]crypto.Bytes{a, b})

	want := crypto.HashConcat(a.Hash(), b.Hash())
	assert.Equal(t, want, tree.Root())
	assert.Equal(t, 1, tree.Depth())
}

func TestNew_ThreeItemsPadsLastLeaf(t *testing.T) {
	a, b, c := crypto.Bytes("A"), crypto.Bytes("B"), crypto.Bytes("C")
	tree := New([]crypto.Bytes{a, b, c})

	left := crypto.HashConcat(a.Hash(), b.Hash())
	right := crypto.HashConcat(c.Hash(), c.Hash())
	assert.Equal(t, crypto.HashConcat(left, right), tree.Root())

	proof, err := tree.Proof(2)
	require.NoError(t, err)
	require.Len(t, proof, 2)
	assert.Equal(t, c.Hash(), proof[0], "self-paired leaf should carry its duplicate")
	assert.Equal(t, left, proof[1])
}

func TestNew_PadsEveryLevel(t *testing.T) {
	// 5 leaves: level sizes 5 -> 3 -> 2 -> 1, padding at levels 0 and 1.
	in := items(5)
	h := make([]types.Hash, 5)
	for i, it := range in {
		h[i] = it.Hash()
	}
	l1 := []types.Hash{
		crypto.HashConcat(h[0], h[1]),
		crypto.HashConcat(h[2], h[3]),
		crypto.HashConcat(h[4], h[4]),
	}
	l2 := []types.Hash{
		crypto.HashConcat(l1[0], l1[1]),
		crypto.HashConcat(l1[2], l1[2]),
	}

	tree := New(in)
	assert.Equal(t, crypto.HashConcat(l2[0], l2[1]), tree.Root())
	assert.Equal(t, 3, tree.Depth())
	assert.Equal(t, 3, ProofLength(5))
}

func TestNew_MatchesSHA256Vectors(t *testing.T) {
	in := []sha256Item{
		sha256Item(mustHex(t, "0a0b0c0d0e0f0e0d0a0b0c0d0e0f0e0d0a0b0c0d0e0f0e0d0a0b0c0d0e0f0e0d")),
		sha256Item(mustHex(t, "0101010101010101010101010101010101010101010101010101010101010202")),
	}
	tree := NewWithHashFunc(crypto.SHA256, in)

	assert.Equal(t, mustHex(t, "b69566be6e1720872f73651d1851a0eae0060a132cf0f64a0ffaea248de6cba0"), in[0].Hash())
	assert.Equal(t, mustHex(t, "6b787718210e0b3b608814e04e61fde06d0df794319a12162f287412df3ec920"), tree.Root())

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	assert.Equal(t, []types.Hash{mustHex(t, "965b093a75a75895a351786dd7a188515173f6928a8af8c9baa4dcff268a4f0f")}, proof)
	assert.True(t, VerifyWithHashFunc(crypto.SHA256, tree.Root(), in[0].Hash(), proof, 0, len(in)))
	assert.False(t, Verify(tree.Root(), in[0].Hash(), proof, 0, len(in)), "BLAKE3 replay must not match a SHA-256 tree")
}

func TestProof_RoundTrip(t *testing.T) {
	for n := 1; n <= 33; n++ {
		in := items(n)
		tree := New(in)
		require.Equal(t, n, tree.LeafCount())

		for i := 0; i < n; i++ {
			proof, err := tree.Proof(i)
			require.NoError(t, err, "n=%d i=%d", n, i)
			require.Len(t, proof, ProofLength(n), "n=%d i=%d", n, i)
			assert.True(t, Verify(tree.Root(), in[i].Hash(), proof, i, n), "n=%d i=%d", n, i)

			leaf, err := tree.Leaf(i)
			require.NoError(t, err)
			assert.Equal(t, in[i].Hash(), leaf)
		}
	}
}

func TestProof_OutOfRange(t *testing.T) {
	tree := New(items(4))
	for _, idx := range []int{-1, 4, 5} {
		proof, err := tree.Proof(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
		assert.Nil(t, proof)
	}
}

func TestVerify_TamperDetection(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7, 8, 13} {
		in := items(n)
		tree := New(in)
		root := tree.Root()

		for i := 0; i < n; i++ {
			proof, err := tree.Proof(i)
			require.NoError(t, err)
			leaf := in[i].Hash()

			for k := range proof {
				bad := append([]types.Hash(nil), proof...)
				bad[k][0] ^= 0x01
				assert.False(t, Verify(root, leaf, bad, i, n), "n=%d i=%d entry %d", n, i, k)
			}

			badLeaf := leaf
			badLeaf[31] ^= 0x80
			assert.False(t, Verify(root, badLeaf, proof, i, n), "n=%d i=%d leaf", n, i)

			for j := -1; j <= n; j++ {
				if j == i {
					continue
				}
				assert.False(t, Verify(root, leaf, proof, j, n), "n=%d i=%d index %d", n, i, j)
			}
		}
	}
}

func TestVerify_MalformedInputs(t *testing.T) {
	in := items(6)
	tree := New(in)
	proof, err := tree.Proof(1)
	require.NoError(t, err)
	root, leaf := tree.Root(), in[1].Hash()

	assert.False(t, Verify(root, leaf, proof[:len(proof)-1], 1, 6), "short proof")
	assert.False(t, Verify(root, leaf, append(proof, root), 1, 6), "long proof")
	assert.False(t, Verify(root, leaf, nil, 1, 6), "nil proof")
	assert.False(t, Verify(root, leaf, proof, 1, 0), "zero leaf count")
	assert.False(t, Verify(root, leaf, proof, 1, -3), "negative leaf count")
	assert.False(t, Verify(types.Hash{}, leaf, proof, 1, 6), "wrong root")
}

func TestVerify_PaddedPositionNotALeaf(t *testing.T) {
	// With 3 leaves the duplicate of leaf 2 sits at position 3. Replaying
	// from there would reach the real root, so index 3 must be rejected.
	in := items(3)
	tree := New(in)
	proof, err := tree.Proof(2)
	require.NoError(t, err)
	assert.False(t, Verify(tree.Root(), in[2].Hash(), proof, 3, 3))
}

func TestNew_OrderMatters(t *testing.T) {
	a, b := crypto.Bytes("tx1"), crypto.Bytes("tx2")
	assert.NotEqual(t, New([]crypto.Bytes{a, b}).Root(), New([]crypto.Bytes{b, a}).Root())
}

func TestFromLeaves_DoesNotRetainInput(t *testing.T) {
	leaves := []types.Hash{crypto.Hash([]byte("1")), crypto.Hash([]byte("2")), crypto.Hash([]byte("3"))}
	tree := FromLeaves(crypto.Hash, leaves)
	root := tree.Root()

	leaves[0] = types.Hash{}
	assert.Equal(t, root, tree.Root())
	leaf, err := tree.Leaf(0)
	require.NoError(t, err)
	assert.Equal(t, crypto.Hash([]byte("1")), leaf)

	assert.Equal(t, root, FromLeaves(nil, []types.Hash{crypto.Hash([]byte("1")), leaves[1], leaves[2]}).Root(),
		"nil hash func defaults to BLAKE3")
}

func TestProofLength(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {1024, 10}, {1025, 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProofLength(tt.n), "n=%d", tt.n)
	}
}

func TestTree_ConcurrentReads(t *testing.T) {
	in := items(64)
	tree := New(in)
	root := tree.Root()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(in); i += 8 {
				proof, err := tree.Proof(i)
				assert.NoError(t, err)
				assert.True(t, Verify(root, in[i].Hash(), proof, i, len(in)), "concurrent proof %d", i)
			}
		}(w)
	}
	wg.Wait()
}
