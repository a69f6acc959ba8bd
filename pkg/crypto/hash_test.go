package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

func hexToHash(t *testing.T, s string) types.Hash {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	var h types.Hash
	copy(h[:], b)
	return h
}

func TestHash(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty input",
			input: []byte{},
			want:  "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		},
		{
			name:  "hello",
			input: []byte("hello"),
			want:  "ea8f163db38682925e4491c5e58d4bb3506ef8c14eb78a86e908c5624a67200f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, hexToHash(t, tt.want), Hash(tt.input))
		})
	}
}

func TestSHA256(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty input",
			input: []byte{},
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:  "abc",
			input: []byte("abc"),
			want:  "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, hexToHash(t, tt.want), SHA256(tt.input))
		})
	}
}

func TestHash_DifferentInputs(t *testing.T) {
	assert.NotEqual(t, Hash([]byte("input A")), Hash([]byte("input B")))
}

func TestHashFuncByName(t *testing.T) {
	tests := []struct {
		name    string
		want    types.Hash
		wantErr bool
	}{
		{name: "", want: Hash([]byte("x"))},
		{name: "blake3", want: Hash([]byte("x"))},
		{name: " SHA256 ", want: SHA256([]byte("x"))},
		{name: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := HashFuncByName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, fn([]byte("x")), "resolved the wrong function")
		})
	}
}

func TestHashConcat(t *testing.T) {
	a := Hash([]byte("left"))
	b := Hash([]byte("right"))
	result := HashConcat(a, b)

	assert.False(t, result.IsZero())
	assert.NotEqual(t, HashConcat(b, a), result, "order must matter")

	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	assert.Equal(t, Hash(buf[:]), result)
}

func TestHashConcatWith_SHA256(t *testing.T) {
	a := SHA256([]byte("left"))
	b := SHA256([]byte("right"))

	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	assert.Equal(t, SHA256(buf[:]), HashConcatWith(SHA256, a, b))
}

func TestBytes_Hash(t *testing.T) {
	assert.Equal(t, Hash([]byte("chunk")), Bytes("chunk").Hash())
}
