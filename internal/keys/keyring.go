package keys

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
)

// Keyring holds a fixed set of producer keys derived from one mnemonic and
// hands them out round-robin.
type Keyring struct {
	mu      sync.Mutex
	signers []*crypto.PrivateKey
	next    int
}

// NewKeyring derives n sender keys under the given account.
func NewKeyring(mnemonic, passphrase string, account uint32, n int) (*Keyring, error) {
	if n <= 0 {
		return nil, errors.New("keyring needs at least one key")
	}
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	signers := make([]*crypto.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		hd, err := master.DeriveSender(account, uint32(i))
		if err != nil {
			return nil, fmt.Errorf("sender %d: %w", i, err)
		}
		signer, err := hd.Signer()
		if err != nil {
			return nil, fmt.Errorf("sender %d: %w", i, err)
		}
		signers = append(signers, signer)
	}
	return &Keyring{signers: signers}, nil
}

// Len returns the number of keys.
func (kr *Keyring) Len() int {
	return len(kr.signers)
}

// At returns the i-th key.
func (kr *Keyring) At(i int) *crypto.PrivateKey {
	return kr.signers[i%len(kr.signers)]
}

// Next returns the next key in round-robin order.
func (kr *Keyring) Next() *crypto.PrivateKey {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	s := kr.signers[kr.next]
	kr.next = (kr.next + 1) % len(kr.signers)
	return s
}

// Zero wipes all private key material.
func (kr *Keyring) Zero() {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	for _, s := range kr.signers {
		s.Zero()
	}
}
