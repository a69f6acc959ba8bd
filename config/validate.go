package config

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/internal/keys"
	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
)

// Validate checks the configuration for operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}

	if _, err := crypto.HashFuncByName(cfg.Chain.MerkleHash); err != nil {
		return fmt.Errorf("chain.merkle_hash: %w", err)
	}

	switch cfg.Archive.Backend {
	case "":
		cfg.Archive.Backend = ArchiveNone
	case ArchiveNone, ArchiveMemory, ArchiveBadger:
	default:
		return fmt.Errorf("archive.backend must be %s, %s or %s", ArchiveNone, ArchiveMemory, ArchiveBadger)
	}
	if cfg.Archive.Path != "" && cfg.Archive.Backend != ArchiveBadger {
		return fmt.Errorf("archive.path is only used with archive.backend=%s", ArchiveBadger)
	}

	if cfg.Sim.Blocks < 0 {
		return fmt.Errorf("sim.blocks must not be negative")
	}
	if cfg.Sim.Miners <= 0 {
		return fmt.Errorf("sim.miners must be at least 1")
	}
	if cfg.Sim.ForkRate < 0 || cfg.Sim.ForkRate > 1 {
		return fmt.Errorf("sim.forkrate must be in range [0, 1]")
	}
	for key, v := range map[string]int{
		"sim.txs":         cfg.Sim.TxsPerBlock,
		"sim.prune_every": cfg.Sim.PruneEvery,
		"sim.forkdepth":   cfg.Sim.MaxForkDepth,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	if cfg.Sim.Mnemonic != "" && !keys.ValidateMnemonic(cfg.Sim.Mnemonic) {
		return fmt.Errorf("sim.mnemonic is not a valid BIP-39 phrase")
	}
	return nil
}
