package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"podledger/config"
	"podledger/core"
	"podledger/core/state"
	"podledger/observability/logging"
	"podledger/observability/metrics"
	"podledger/rpc"
	"podledger/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := config.Validate(cfg); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	logger := logging.Setup(cfg.ServiceName, cfg.Environment, cfg.LogFile)

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	owner, err := cfg.Owner()
	if err != nil {
		logger.Error("Failed to parse owner address", slog.Any("error", err))
		os.Exit(1)
	}
	vault, err := cfg.Vault()
	if err != nil {
		logger.Error("Failed to parse vault address", slog.Any("error", err))
		os.Exit(1)
	}

	node := core.NewNode(state.NewManager(db), core.NodeConfig{
		Owner:         owner,
		Vault:         vault,
		DefaultFeeBps: cfg.FeeBps,
		Logger:        logger,
		Metrics:       metrics.Podcast(),
	})

	logger.Info("Ledger initialized",
		slog.String("backend", cfg.Backend),
		slog.String("owner", cfg.OwnerAddress),
		slog.String("vault", cfg.VaultAddress),
		slog.Uint64("feeBps", uint64(cfg.FeeBps)),
	)

	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendLevelDB:
		return storage.NewLevelDB(cfg.DataDir)
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "podledger.db"))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
