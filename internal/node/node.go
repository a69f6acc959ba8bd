// Package node assembles a block store, its archive and the simulation
// driver from a config, so any binary can host a run.
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/internal/chain"
	"github.com/Klingon-tech/klingnet-ledger/internal/keys"
	klog "github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/internal/sim"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
)

// Node is a fully initialized simulation host.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	db      storage.DB // nil when archiving is off
	archive *chain.Archive
	store   *chain.SafeStore
	keyring *keys.Keyring
	simCfg  sim.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	mu     sync.Mutex
	report sim.Report
	runErr error
}

// New initializes logging, the archive backend, the store and the producer
// keys. Nothing runs until Start.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Logger ───────────────────────────────────────────────────
	logFile := expandHome(cfg.Log.File)
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "ledgersim.log")
	}
	rot := klog.Rotation{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
	if err := klog.InitWithRotation(cfg.Log.Level, cfg.Log.JSON, logFile, rot); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	// Everything opened below is released again if a later step fails.
	var db storage.DB
	fail := func(err error) (*Node, error) {
		closeDB(logger, db)
		klog.Close()
		return nil, err
	}

	// ── 2. Merkle hash ──────────────────────────────────────────────
	hashFn, err := crypto.HashFuncByName(cfg.Chain.MerkleHash)
	if err != nil {
		return fail(fmt.Errorf("merkle hash: %w", err))
	}

	// ── 3. Store ────────────────────────────────────────────────────
	store, err := chain.NewWithGenesis(genesisFor(cfg))
	if err != nil {
		return fail(fmt.Errorf("create store: %w", err))
	}

	// ── 4. Archive ──────────────────────────────────────────────────
	db, err = openArchiveDB(cfg)
	if err != nil {
		return fail(err)
	}
	var archive *chain.Archive
	if db != nil {
		ns := storage.NewPrefixDB(db, []byte("archive/"))
		if cfg.Archive.Reset {
			if err := ns.DeleteAll(); err != nil {
				return fail(fmt.Errorf("reset archive: %w", err))
			}
			logger.Info().Msg("Cleared archived blocks from previous runs")
		}
		archive = chain.NewArchive(ns)
		store.SetArchive(archive)
	}

	// ── 5. Producer keys ────────────────────────────────────────────
	mnemonic := cfg.Sim.Mnemonic
	if mnemonic == "" {
		mnemonic, err = keys.GenerateMnemonic()
		if err != nil {
			return fail(err)
		}
		logger.Warn().Msg("No sim.mnemonic configured, generated a fresh one; runs are not reproducible")
	}
	kr, err := keys.NewKeyring(mnemonic, cfg.Sim.Passphrase, 0, cfg.Sim.Miners)
	if err != nil {
		return fail(fmt.Errorf("derive producer keys: %w", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		archive: archive,
		store:   chain.NewSafeStore(store),
		keyring: kr,
		simCfg: sim.Config{
			Blocks:        cfg.Sim.Blocks,
			Miners:        cfg.Sim.Miners,
			ForkRate:      cfg.Sim.ForkRate,
			MaxForkDepth:  cfg.Sim.MaxForkDepth,
			TxsPerBlock:   cfg.Sim.TxsPerBlock,
			PruneEvery:    cfg.Sim.PruneEvery,
			FinalityDepth: cfg.Chain.FinalityDepth,
			BlockInterval: 10,
			Seed:          cfg.Sim.Seed,
			HashFunc:      hashFn,
		},
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	logger.Info().
		Str("genesis", store.Genesis().Short()).
		Str("archive", cfg.Archive.Backend).
		Str("merkle_hash", cfg.Chain.MerkleHash).
		Uint64("finality", cfg.Chain.FinalityDepth).
		Msg("Node initialized")

	return n, nil
}

// Start launches the simulation in the background.
func (n *Node) Start() error {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer close(n.done)

		rep, err := sim.Run(n.ctx, n.store, n.keyring, n.simCfg)

		n.mu.Lock()
		n.report, n.runErr = rep, err
		n.mu.Unlock()

		ev := n.logger.Info()
		if err != nil && !errors.Is(err, context.Canceled) {
			ev = n.logger.Error().Err(err)
		}
		ev.Int("inserted", rep.Inserted).
			Int("reorgs", rep.Reorgs).
			Int("max_reorg_depth", rep.MaxReorgDepth).
			Int("pruned", rep.Pruned).
			Int("proofs", rep.ProofsChecked).
			Uint64("height", rep.Height).
			Str("tip", rep.Tip.Short()).
			Msg("Simulation finished")
	}()
	return nil
}

// Done is closed when the simulation has finished or been stopped.
func (n *Node) Done() <-chan struct{} {
	return n.done
}

// Result returns the simulation report and error once Done is closed.
func (n *Node) Result() (sim.Report, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.report, n.runErr
}

// Stop cancels the run, waits for it and releases resources.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()

	n.keyring.Zero()
	closeDB(n.logger, n.db)

	n.logger.Info().Msg("Goodbye!")
	klog.Close()
}

// Height returns the current canonical height.
func (n *Node) Height() uint64 {
	return n.store.Height()
}

// Store exposes the guarded block store for read access.
func (n *Node) Store() *chain.SafeStore {
	return n.store
}

// Archive returns the pruned block archive, or nil when archiving is off.
func (n *Node) Archive() *chain.Archive {
	return n.archive
}
