package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/viper"
)

// Defaults for the keys read below.
const (
	DefaultDatabasePath   = "~/.local/share/bazaar/bazaar.db"
	DefaultRPCURL         = "http://127.0.0.1:8545"
	DefaultConfirmTimeout = 5 * time.Minute
	DefaultKeystoreDir    = "~/.config/bazaar/keystore"
	DefaultBoardAddr      = "localhost:5000"
)

// SetDefaults registers default values for every key this package reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("ledger.rpc_url", DefaultRPCURL)
	v.SetDefault("ledger.confirm_timeout", DefaultConfirmTimeout)
	v.SetDefault("wallet.keystore_dir", DefaultKeystoreDir)
	v.SetDefault("wallet.network_poll_interval", wallet.DefaultPollInterval)
	v.SetDefault("board.addr", DefaultBoardAddr)
}

// DatabasePath returns the expanded SQLite path.
func DatabasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = DefaultDatabasePath
	}
	return ExpandPath(path)
}

// LedgerConfig locates the marketplace contract.
type LedgerConfig struct {
	RPCURL          string
	ContractAddress string
	ConfirmTimeout  time.Duration
}

// LoadLedgerConfig reads the ledger.* keys.
func LoadLedgerConfig() (LedgerConfig, error) {
	cfg := LedgerConfig{
		RPCURL:          viper.GetString("ledger.rpc_url"),
		ContractAddress: strings.TrimSpace(viper.GetString("ledger.contract_address")),
		ConfirmTimeout:  viper.GetDuration("ledger.confirm_timeout"),
	}
	if cfg.RPCURL == "" {
		cfg.RPCURL = DefaultRPCURL
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if err := cfg.Validate(); err != nil {
		return LedgerConfig{}, err
	}
	return cfg, nil
}

// Validate checks that the contract address is a 20-byte hex address.
func (c LedgerConfig) Validate() error {
	if c.ContractAddress == "" {
		return fmt.Errorf("%w: ledger.contract_address", common.ErrMissingConfig)
	}
	b, err := hexutil.Decode(c.ContractAddress)
	if err != nil || len(b) != 20 {
		return fmt.Errorf("%w: ledger.contract_address %q is not an address", common.ErrInvalidConfig, c.ContractAddress)
	}
	return nil
}

// WalletConfig locates the local keystore.
type WalletConfig struct {
	KeystoreDir  string
	PollInterval time.Duration
}

// LoadWalletConfig reads the wallet.* keys.
func LoadWalletConfig() WalletConfig {
	cfg := WalletConfig{
		KeystoreDir:  viper.GetString("wallet.keystore_dir"),
		PollInterval: viper.GetDuration("wallet.network_poll_interval"),
	}
	if cfg.KeystoreDir == "" {
		cfg.KeystoreDir = DefaultKeystoreDir
	}
	cfg.KeystoreDir = filepath.Clean(ExpandPath(cfg.KeystoreDir))
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = wallet.DefaultPollInterval
	}
	return cfg
}

// BoardAddr returns the listen address of the auxiliary board.
func BoardAddr() string {
	if addr := viper.GetString("board.addr"); addr != "" {
		return addr
	}
	return DefaultBoardAddr
}
