package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	Help    bool
	Version bool

	DataDir string
	Config  string

	LogLevel string
	LogFile  string
	LogJSON  bool

	Finality    uint64
	MerkleHash  string
	GenesisTime uint64

	Archive      string
	ArchivePath  string
	ArchiveReset bool

	Blocks     int
	Miners     int
	ForkRate   float64
	Txs        int
	PruneEvery int
	Seed       int64
	Mnemonic   string

	Args []string

	// Explicitly-set flags whose zero value is meaningful.
	SetLogJSON    bool
	SetFinality   bool
	SetForkRate   bool
	SetPruneEvery bool
	SetSeed       bool
	SetTxs        bool
}

// ParseFlags parses command-line arguments (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("ledgersim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Uint64Var(&f.Finality, "finality", 0, "Pruning depth below the tip (0 = never prune)")
	fs.StringVar(&f.MerkleHash, "merkle-hash", "", "Merkle audit hash (blake3 or sha256)")
	fs.Uint64Var(&f.GenesisTime, "genesis-time", 0, "Genesis timestamp")

	fs.StringVar(&f.Archive, "archive", "", "Pruned block archive: none, memory or badger")
	fs.StringVar(&f.ArchivePath, "archive-path", "", "Badger archive directory")
	fs.BoolVar(&f.ArchiveReset, "archive-reset", false, "Clear the archive before the run")

	fs.IntVar(&f.Blocks, "blocks", 0, "Blocks to produce")
	fs.IntVar(&f.Miners, "miners", 0, "Competing block producers")
	fs.Float64Var(&f.ForkRate, "forkrate", 0, "Probability a block forks off the tip")
	fs.IntVar(&f.Txs, "txs", 0, "Transactions per block")
	fs.IntVar(&f.PruneEvery, "prune-every", 0, "Prune every N blocks (0 = never)")
	fs.Int64Var(&f.Seed, "seed", 0, "Random seed")
	fs.StringVar(&f.Mnemonic, "mnemonic", "", "BIP-39 mnemonic for producer keys")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.SetFinality = isFlagSet(fs, "finality")
	f.SetForkRate = isFlagSet(fs, "forkrate")
	f.SetPruneEvery = isFlagSet(fs, "prune-every")
	f.SetSeed = isFlagSet(fs, "seed")
	f.SetTxs = isFlagSet(fs, "txs")
	f.Args = fs.Args()

	// A positional argument stops flag parsing; catch the flags it swallowed.
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}
	return f, nil
}

// ApplyFlags applies command-line flags to cfg.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}

	if f.SetFinality {
		cfg.Chain.FinalityDepth = f.Finality
	}
	if f.MerkleHash != "" {
		cfg.Chain.MerkleHash = strings.ToLower(f.MerkleHash)
	}
	if f.GenesisTime != 0 {
		cfg.Chain.GenesisTime = f.GenesisTime
	}

	if f.Archive != "" {
		cfg.Archive.Backend = strings.ToLower(f.Archive)
	}
	if f.ArchivePath != "" {
		cfg.Archive.Path = f.ArchivePath
	}
	if f.ArchiveReset {
		cfg.Archive.Reset = true
	}

	if f.Blocks != 0 {
		cfg.Sim.Blocks = f.Blocks
	}
	if f.Miners != 0 {
		cfg.Sim.Miners = f.Miners
	}
	if f.SetForkRate {
		cfg.Sim.ForkRate = f.ForkRate
	}
	if f.SetTxs {
		cfg.Sim.TxsPerBlock = f.Txs
	}
	if f.SetPruneEvery {
		cfg.Sim.PruneEvery = f.PruneEvery
	}
	if f.SetSeed {
		cfg.Sim.Seed = f.Seed
	}
	if f.Mnemonic != "" {
		cfg.Sim.Mnemonic = f.Mnemonic
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the help text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, `ledgersim - longest-chain block store under fork-heavy load

Usage:
  ledgersim [options]

Core Options:
  --datadir       Data directory (default: ~/.klingnet-ledger)
  --config, -c    Config file path (default: <datadir>/ledgersim.conf)

Chain Options:
  --finality      Prune side branches forking this far below the tip (0 = never)
  --merkle-hash   Hash for the Merkle audit: blake3 (default) or sha256
  --genesis-time  Genesis timestamp (default: built-in genesis)

Archive Options:
  --archive       Where pruned blocks go: none, memory (default) or badger
  --archive-path  Badger directory (default: in memory)
  --archive-reset Clear blocks archived by earlier runs

Simulation Options:
  --blocks        Blocks to produce
  --miners        Competing block producers
  --forkrate      Probability in [0,1] that a block forks off the tip
  --txs           Transactions per block
  --prune-every   Prune every N blocks (0 = never)
  --seed          Random seed
  --mnemonic      BIP-39 mnemonic for producer keys (default: fresh)

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path, rotated by size
  --log-json      Output logs as JSON
`)
}

// Load builds the configuration from defaults, the config file and args.
// Help and version requests are returned in Flags for the caller to act on.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	cfg := Default()
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory layout and a default config
// file if missing. Safe to call on every start.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
