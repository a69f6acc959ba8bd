// Package config handles ledgersim configuration.
//
// Values come from three layers, later ones winning: built-in defaults, the
// .conf file in the data directory, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Archive backends.
const (
	ArchiveNone   = "none"
	ArchiveMemory = "memory"
	ArchiveBadger = "badger"
)

// Config holds the runtime configuration of a simulation host.
type Config struct {
	DataDir string `conf:"datadir"`

	Log     LogConfig
	Chain   ChainConfig
	Archive ArchiveConfig
	Sim     SimConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `conf:"log.level"`
	File       string `conf:"log.file"`
	JSON       bool   `conf:"log.json"`
	MaxSizeMB  int    `conf:"log.maxsize"`
	MaxBackups int    `conf:"log.maxbackups"`
	MaxAgeDays int    `conf:"log.maxage"`
}

// ChainConfig holds block store settings.
type ChainConfig struct {
	FinalityDepth uint64 `conf:"chain.finality"`     // 0 disables pruning
	GenesisTime   uint64 `conf:"chain.genesis_time"` // 0 uses the default genesis
	MerkleHash    string `conf:"chain.merkle_hash"`  // blake3 or sha256
}

// ArchiveConfig selects where pruned blocks go.
type ArchiveConfig struct {
	Backend string `conf:"archive.backend"`
	Path    string `conf:"archive.path"`  // badger only; empty keeps it in memory
	Reset   bool   `conf:"archive.reset"` // drop blocks archived by earlier runs
}

// SimConfig holds simulation settings.
type SimConfig struct {
	Blocks       int     `conf:"sim.blocks"`
	Miners       int     `conf:"sim.miners"`
	ForkRate     float64 `conf:"sim.forkrate"`
	MaxForkDepth int     `conf:"sim.forkdepth"`
	TxsPerBlock  int     `conf:"sim.txs"`
	PruneEvery   int     `conf:"sim.prune_every"`
	Seed         int64   `conf:"sim.seed"`
	Mnemonic     string  `conf:"sim.mnemonic"` // empty generates a fresh one
	Passphrase   string  `conf:"sim.passphrase"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-ledger
//	macOS:   ~/Library/Application Support/KlingnetLedger
//	Windows: %APPDATA%\KlingnetLedger
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-ledger"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetLedger")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "KlingnetLedger")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetLedger")
	default:
		return filepath.Join(home, ".klingnet-ledger")
	}
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ArchiveDir returns the badger archive directory. An explicit
// archive.path wins; a relative one is resolved against the data dir.
func (c *Config) ArchiveDir() string {
	if c.Archive.Path == "" {
		return ""
	}
	if filepath.IsAbs(c.Archive.Path) {
		return c.Archive.Path
	}
	return filepath.Join(c.DataDir, c.Archive.Path)
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "ledgersim.conf")
}
