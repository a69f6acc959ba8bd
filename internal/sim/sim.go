// Package sim drives a chain store with several competing block producers
// so that forks and reorganizations happen continuously.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/Klingon-tech/klingnet-ledger/internal/chain"
	"github.com/Klingon-tech/klingnet-ledger/internal/keys"
	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/internal/miner"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// ErrAuditFailed is returned when a produced block's body fails its
// inclusion proof check.
var ErrAuditFailed = errors.New("merkle audit failed")

// Ledger is the part of the chain store the simulation drives.
// Both *chain.Store and *chain.SafeStore satisfy it.
type Ledger interface {
	miner.ChainView
	Insert(blk *block.Block) error
	Height() uint64
	Ancestors(h types.Hash, n int) []types.Hash
	Prune(finalityDepth uint64) (int, error)
	SetReorgHandler(fn chain.ReorgHandler)
}

// Config controls a simulation run.
type Config struct {
	Blocks        int     // blocks to produce
	Miners        int     // competing producers
	ForkRate      float64 // probability a block builds off the tip
	MaxForkDepth  int     // how far below the tip a fork may start
	TxsPerBlock   int
	PruneEvery    int    // 0 disables pruning
	FinalityDepth uint64 // passed to Prune
	BlockInterval uint64 // seconds between block timestamps
	Seed          int64
	// HashFunc is used to audit block bodies. Nil means BLAKE3.
	HashFunc crypto.HashFunc
}

// DefaultConfig returns a small fork-heavy run.
func DefaultConfig() Config {
	return Config{
		Blocks:        200,
		Miners:        4,
		ForkRate:      0.25,
		MaxForkDepth:  3,
		TxsPerBlock:   8,
		PruneEvery:    50,
		FinalityDepth: 20,
		BlockInterval: 10,
		Seed:          1,
	}
}

// Validate checks the config for values Run cannot work with.
func (c Config) Validate() error {
	if c.Blocks < 0 {
		return fmt.Errorf("blocks must not be negative, got %d", c.Blocks)
	}
	if c.Miners <= 0 {
		return fmt.Errorf("need at least one miner, got %d", c.Miners)
	}
	if c.ForkRate < 0 || c.ForkRate > 1 {
		return fmt.Errorf("fork rate must be in [0,1], got %v", c.ForkRate)
	}
	if c.TxsPerBlock < 0 || c.TxsPerBlock >= block.MaxBlockTxs {
		return fmt.Errorf("txs per block must be in [0,%d), got %d", block.MaxBlockTxs, c.TxsPerBlock)
	}
	if c.PruneEvery < 0 {
		return fmt.Errorf("prune interval must not be negative, got %d", c.PruneEvery)
	}
	return nil
}

// Report summarizes a run.
type Report struct {
	Inserted      int
	Reorgs        int
	MaxReorgDepth int
	Pruned        int
	Height        uint64
	Tip           types.Hash
	ProofsChecked int
}

// maxSideTips bounds how many recent side-branch tips are remembered.
const maxSideTips = 8

// Run produces cfg.Blocks blocks into ledger. It replaces the ledger's
// reorg handler for the duration of the run. Cancelling ctx stops the run
// between blocks and returns the partial report with ctx.Err().
func Run(ctx context.Context, ledger Ledger, kr *keys.Keyring, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if kr == nil {
		return Report{}, errors.New("nil keyring")
	}
	if cfg.MaxForkDepth <= 0 {
		cfg.MaxForkDepth = 1
	}
	if cfg.BlockInterval == 0 {
		cfg.BlockInterval = 1
	}
	hashFn := cfg.HashFunc
	if hashFn == nil {
		hashFn = crypto.Hash
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	source := NewGenerator(rng, kr, cfg.TxsPerBlock)

	miners := make([]*miner.Miner, cfg.Miners)
	for i := range miners {
		miners[i] = miner.New(uint32(i), ledger, source, kr.At(i))
	}

	var report Report
	ledger.SetReorgHandler(func(ev chain.ReorgEvent) {
		report.Reorgs++
		if d := ev.Depth(); d > report.MaxReorgDepth {
			report.MaxReorgDepth = d
		}
	})
	defer ledger.SetReorgHandler(nil)

	finish := func() Report {
		report.Height = ledger.Height()
		report.Tip = ledger.Tip()
		return report
	}

	tipBlk, _ := ledger.Lookup(ledger.Tip())
	ts := tipBlk.Header.Timestamp
	var sideTips []types.Hash

	log.Sim.Info().
		Int("blocks", cfg.Blocks).
		Int("miners", cfg.Miners).
		Float64("fork_rate", cfg.ForkRate).
		Msg("Simulation started")

	for step := 1; step <= cfg.Blocks; step++ {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}

		ts += cfg.BlockInterval
		m := miners[rng.Intn(len(miners))]

		parent := ledger.Tip()
		if rng.Float64() < cfg.ForkRate {
			parent, sideTips = pickForkParent(rng, ledger, sideTips, cfg.MaxForkDepth)
		}

		blk, err := m.ProduceBlockOn(parent, ts)
		if err != nil {
			return finish(), fmt.Errorf("step %d: %w", step, err)
		}
		if err := audit(rng, blk, hashFn); err != nil {
			return finish(), fmt.Errorf("step %d: %w", step, err)
		}
		report.ProofsChecked++

		if err := ledger.Insert(blk); err != nil {
			return finish(), fmt.Errorf("step %d: %w", step, err)
		}
		report.Inserted++

		if ledger.Tip() != blk.Hash() {
			sideTips = append(sideTips, blk.Hash())
			if len(sideTips) > maxSideTips {
				sideTips = sideTips[1:]
			}
		}

		if cfg.PruneEvery > 0 && step%cfg.PruneEvery == 0 {
			done := log.Benchmark(log.Sim, "prune")
			n, err := ledger.Prune(cfg.FinalityDepth)
			done()
			if err != nil {
				return finish(), fmt.Errorf("step %d: prune: %w", step, err)
			}
			report.Pruned += n
		}

		if step%100 == 0 {
			log.Sim.Info().
				Int("step", step).
				Uint64("height", ledger.Height()).
				Int("reorgs", report.Reorgs).
				Msg("Simulation progress")
		}
	}

	return finish(), nil
}

// pickForkParent returns a parent off the current tip: either a recent
// side-branch tip still held by the ledger, or a near ancestor of the tip.
func pickForkParent(rng *rand.Rand, ledger Ledger, sideTips []types.Hash, maxDepth int) (types.Hash, []types.Hash) {
	live := sideTips[:0]
	for _, h := range sideTips {
		if _, ok := ledger.Lookup(h); ok {
			live = append(live, h)
		}
	}

	if len(live) > 0 && rng.Intn(2) == 0 {
		return live[rng.Intn(len(live))], live
	}

	ancestors := ledger.Ancestors(ledger.Tip(), maxDepth)
	if len(ancestors) == 0 {
		return ledger.Tip(), live
	}
	return ancestors[rng.Intn(len(ancestors))], live
}

// audit checks that blk opens with its producer's stamp, then proves a
// random transaction under hashFn and checks the proof. For BLAKE3 the
// proof is also checked against the header alone.
func audit(rng *rand.Rand, blk *block.Block, hashFn crypto.HashFunc) error {
	n := len(blk.Transactions)
	if n == 0 || !miner.IsStamp(blk.Transactions[0], blk.Parent()) {
		return fmt.Errorf("%w: block %s has no producer stamp", ErrAuditFailed, blk.Hash().Short())
	}
	i := rng.Intn(n)
	t := blk.Transactions[i]

	tree := merkle.NewWithHashFunc(hashFn, blk.Transactions)
	proof, err := tree.Proof(i)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditFailed, err)
	}
	if !merkle.VerifyWithHashFunc(hashFn, tree.Root(), t.Hash(), proof, i, n) {
		return fmt.Errorf("%w: tx %d of block %s", ErrAuditFailed, i, blk.Hash().Short())
	}

	if tree.Root() == blk.Header.ContentRoot &&
		!block.VerifyTransaction(blk.Header, t, proof, i, n) {
		return fmt.Errorf("%w: header proof for tx %d of block %s", ErrAuditFailed, i, blk.Hash().Short())
	}
	return nil
}
