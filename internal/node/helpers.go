package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// genesisFor returns the configured genesis block.
func genesisFor(cfg *config.Config) *block.Block {
	if cfg.Chain.GenesisTime == 0 {
		return block.Genesis()
	}
	return block.GenesisAt(cfg.Chain.GenesisTime)
}

// openArchiveDB opens the backend selected by archive.backend. It returns
// nil for "none".
func openArchiveDB(cfg *config.Config) (storage.DB, error) {
	switch cfg.Archive.Backend {
	case config.ArchiveNone, "":
		return nil, nil
	case config.ArchiveMemory:
		return storage.NewMemory(), nil
	case config.ArchiveBadger:
		dir := expandHome(cfg.ArchiveDir())
		if dir == "" {
			return storage.NewBadgerInMemory()
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating archive dir: %w", err)
		}
		return storage.NewBadger(dir)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

// closeDB closes db if it is set. A close error is logged, not returned,
// since it only happens on teardown.
func closeDB(logger zerolog.Logger, db storage.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close archive database")
	}
}
