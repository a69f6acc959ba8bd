package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/Klingon-tech/klingnet-ledger/internal/keys"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
)

const maxPayload = 256

// Generator produces signed transactions with random payloads. It
// implements miner.TxSource.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	next   func() crypto.Signer // nil leaves transactions unsigned
	perBlk int
	nonce  uint64
}

// NewGenerator creates a generator handing out at most perBlock
// transactions per request, signed round-robin with the keys in kr.
func NewGenerator(rng *rand.Rand, kr *keys.Keyring, perBlock int) *Generator {
	g := &Generator{rng: rng, perBlk: perBlock}
	if kr != nil {
		g.next = func() crypto.Signer { return kr.Next() }
	}
	return g
}

// Transactions returns min(n, perBlock) fresh transactions. A signing
// failure fails the whole request.
func (g *Generator) Transactions(n int) ([]*tx.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if n > g.perBlk {
		n = g.perBlk
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([]*tx.Transaction, 0, n)
	for i := 0; i < n; i++ {
		payload := make([]byte, 1+g.rng.Intn(maxPayload))
		g.rng.Read(payload)
		g.nonce++

		t := tx.New(g.nonce, payload)
		if g.next != nil {
			if err := t.Sign(g.next()); err != nil {
				return nil, fmt.Errorf("sign tx %d: %w", g.nonce, err)
			}
		}
		out = append(out, t)
	}
	return out, nil
}
