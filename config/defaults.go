package config

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Chain: ChainConfig{
			FinalityDepth: 64,
			MerkleHash:    "blake3",
		},
		Archive: ArchiveConfig{
			Backend: ArchiveMemory,
		},
		Sim: SimConfig{
			Blocks:       1000,
			Miners:       4,
			ForkRate:     0.2,
			MaxForkDepth: 3,
			TxsPerBlock:  16,
			PruneEvery:   100,
			Seed:         1,
		},
	}
}
