package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"podledger/core/types"

	"github.com/BurntSushi/toml"
)

const (
	// BackendMemory keeps all state in process memory. Data is lost on exit.
	BackendMemory = "memory"
	// BackendLevelDB persists state in a LevelDB directory under DataDir.
	BackendLevelDB = "leveldb"
	// BackendBolt persists state in a single Bolt file under DataDir.
	BackendBolt = "bolt"
)

type Config struct {
	RPCAddress   string `toml:"RPCAddress"`
	DataDir      string `toml:"DataDir"`
	Backend      string `toml:"Backend"`
	OwnerAddress string `toml:"OwnerAddress"`
	VaultAddress string `toml:"VaultAddress"`
	FeeBps       uint32 `toml:"FeeBps"`
	LogFile      string `toml:"LogFile"`
	ServiceName  string `toml:"ServiceName"`
	Environment  string `toml:"Environment"`
}

// Load loads the configuration from the given path, creating a default file
// with freshly generated owner and vault addresses when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s contains unknown field %s", path, undecoded[0].String())
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "podledgerd"
	}
	if cfg.Environment == "" {
		cfg.Environment = "local"
	}

	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	owner, err := randomAddress()
	if err != nil {
		return nil, err
	}
	vault, err := randomAddress()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:   ":8080",
		DataDir:      "./podledger-data",
		Backend:      BackendLevelDB,
		OwnerAddress: owner,
		VaultAddress: vault,
		FeeBps:       250,
		ServiceName:  "podledgerd",
		Environment:  "local",
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func randomAddress() (string, error) {
	var addr [types.AddressLength]byte
	if _, err := rand.Read(addr[:]); err != nil {
		return "", err
	}
	return types.FormatAddress(addr), nil
}
