package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads configuration values from a .conf file.
// Format: key = value (one per line, # for comments). A missing file yields
// no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file values to cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "datadir":
		cfg.DataDir = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)
	case "log.maxsize":
		cfg.Log.MaxSizeMB, err = strconv.Atoi(value)
	case "log.maxbackups":
		cfg.Log.MaxBackups, err = strconv.Atoi(value)
	case "log.maxage":
		cfg.Log.MaxAgeDays, err = strconv.Atoi(value)

	// Chain
	case "chain.finality":
		cfg.Chain.FinalityDepth, err = strconv.ParseUint(value, 10, 64)
	case "chain.genesis_time":
		cfg.Chain.GenesisTime, err = strconv.ParseUint(value, 10, 64)
	case "chain.merkle_hash":
		cfg.Chain.MerkleHash = strings.ToLower(value)

	// Archive
	case "archive.backend", "archive":
		cfg.Archive.Backend = strings.ToLower(value)
	case "archive.path":
		cfg.Archive.Path = value
	case "archive.reset":
		cfg.Archive.Reset = parseBool(value)

	// Simulation
	case "sim.blocks":
		cfg.Sim.Blocks, err = strconv.Atoi(value)
	case "sim.miners":
		cfg.Sim.Miners, err = strconv.Atoi(value)
	case "sim.forkrate":
		cfg.Sim.ForkRate, err = strconv.ParseFloat(value, 64)
	case "sim.forkdepth":
		cfg.Sim.MaxForkDepth, err = strconv.Atoi(value)
	case "sim.txs":
		cfg.Sim.TxsPerBlock, err = strconv.Atoi(value)
	case "sim.prune_every":
		cfg.Sim.PruneEvery, err = strconv.Atoi(value)
	case "sim.seed":
		cfg.Sim.Seed, err = strconv.ParseInt(value, 10, 64)
	case "sim.mnemonic":
		cfg.Sim.Mnemonic = value
	case "sim.passphrase":
		cfg.Sim.Passphrase = value

	default:
		// Unknown keys are ignored
	}
	return err
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a commented default configuration file.
func WriteDefaultConfig(path string) error {
	d := Default()
	content := `# Klingnet ledger simulator configuration

# ============================================================================
# Chain
# ============================================================================

# Side branches forking more than this many blocks below the tip are pruned.
# 0 keeps every block forever.
chain.finality = ` + strconv.FormatUint(d.Chain.FinalityDepth, 10) + `

# Genesis timestamp (0 = built-in genesis)
# chain.genesis_time = 0

# Hash used by the Merkle audit: blake3 or sha256
chain.merkle_hash = ` + d.Chain.MerkleHash + `

# ============================================================================
# Archive for pruned blocks: none, memory or badger
# ============================================================================

archive.backend = ` + d.Archive.Backend + `
# archive.path = archive

# Drop blocks archived by earlier runs at startup
# archive.reset = false

# ============================================================================
# Simulation
# ============================================================================

sim.blocks = ` + strconv.Itoa(d.Sim.Blocks) + `
sim.miners = ` + strconv.Itoa(d.Sim.Miners) + `
sim.forkrate = ` + strconv.FormatFloat(d.Sim.ForkRate, 'f', -1, 64) + `
sim.forkdepth = ` + strconv.Itoa(d.Sim.MaxForkDepth) + `
sim.txs = ` + strconv.Itoa(d.Sim.TxsPerBlock) + `
sim.prune_every = ` + strconv.Itoa(d.Sim.PruneEvery) + `
sim.seed = ` + strconv.FormatInt(d.Sim.Seed, 10) + `
# sim.mnemonic =

# ============================================================================
# Logging
# ============================================================================

log.level = ` + d.Log.Level + `
# log.file =
log.json = false
log.maxsize = ` + strconv.Itoa(d.Log.MaxSizeMB) + `
log.maxbackups = ` + strconv.Itoa(d.Log.MaxBackups) + `
log.maxage = ` + strconv.Itoa(d.Log.MaxAgeDays) + `
`
	return os.WriteFile(path, []byte(content), 0644)
}
