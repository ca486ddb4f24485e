package config

import (
	"fmt"
	"strings"

	"podledger/core/types"
	"podledger/native/podcast"
)

// Validate checks the configuration for values the daemon cannot start with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress required")
	}
	switch cfg.Backend {
	case BackendMemory:
	case BackendLevelDB, BackendBolt:
		if strings.TrimSpace(cfg.DataDir) == "" {
			return fmt.Errorf("config: DataDir required for backend %q", cfg.Backend)
		}
	default:
		return fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}
	owner, err := types.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		return fmt.Errorf("config: OwnerAddress: %w", err)
	}
	if types.IsZeroAddress(owner) {
		return fmt.Errorf("config: OwnerAddress must not be the zero address")
	}
	vault, err := types.ParseAddress(cfg.VaultAddress)
	if err != nil {
		return fmt.Errorf("config: VaultAddress: %w", err)
	}
	if types.IsZeroAddress(vault) {
		return fmt.Errorf("config: VaultAddress must not be the zero address")
	}
	if vault == owner {
		return fmt.Errorf("config: VaultAddress must differ from OwnerAddress")
	}
	if cfg.FeeBps > podcast.MaxFeeBps {
		return fmt.Errorf("config: FeeBps %d exceeds maximum %d", cfg.FeeBps, podcast.MaxFeeBps)
	}
	return nil
}

// Owner returns the parsed owner address. Call Validate first.
func (c *Config) Owner() ([types.AddressLength]byte, error) {
	return types.ParseAddress(c.OwnerAddress)
}

// Vault returns the parsed vault address. Call Validate first.
func (c *Config) Vault() ([types.AddressLength]byte, error) {
	return types.ParseAddress(c.VaultAddress)
}
