package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDataDir           = "./fiattoken-data"
	DefaultValidityPeriod    = "120h"
	DefaultApprovalThreshold = uint32(2)
	DefaultPassphraseEnv     = "FIATTOKEN_KEYSTORE_PASS"
	DefaultWebhookSecretEnv  = "FIATTOKEN_WEBHOOK_SECRET"
)

type Config struct {
	DataDir     string    `toml:"DataDir"`
	GenesisFile string    `toml:"GenesisFile"`
	AddressBook string    `toml:"AddressBook"`
	Storage     Storage   `toml:"Storage"`
	Multisig    Multisig  `toml:"Multisig"`
	Logging     Logging   `toml:"Logging"`
	Telemetry   Telemetry `toml:"Telemetry"`
	Audit       Audit     `toml:"Audit"`
	Keystore    Keystore  `toml:"Keystore"`
	Webhook     Webhook   `toml:"Webhook"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0].String())
	}

	applyDefaults(cfg, path)
	if err := ValidateConfig(*cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config, configPath string) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.Multisig.ApprovalThreshold == 0 && strings.TrimSpace(cfg.Multisig.ValidityPeriod) == "" {
		cfg.Multisig.ApprovalThreshold = DefaultApprovalThreshold
	}
	if strings.TrimSpace(cfg.Multisig.ValidityPeriod) == "" {
		cfg.Multisig.ValidityPeriod = DefaultValidityPeriod
	}
	if strings.TrimSpace(cfg.Keystore.Dir) == "" {
		cfg.Keystore.Dir = defaultKeystoreDir(configPath)
	}
	if strings.TrimSpace(cfg.Keystore.PassphraseEnv) == "" {
		cfg.Keystore.PassphraseEnv = DefaultPassphraseEnv
	}
	if strings.TrimSpace(cfg.Webhook.SecretEnv) == "" {
		cfg.Webhook.SecretEnv = DefaultWebhookSecretEnv
	}
	if strings.TrimSpace(cfg.AddressBook) == "" {
		cfg.AddressBook = filepath.Join(cfg.DataDir, "addressbook.db")
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:     DefaultDataDir,
		GenesisFile: "genesis.yaml",
		Multisig: Multisig{
			ApprovalThreshold: DefaultApprovalThreshold,
			ValidityPeriod:    DefaultValidityPeriod,
		},
		Logging: Logging{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
	}
	applyDefaults(cfg, path)

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

func defaultKeystoreDir(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "keystore")
}

// ResolvePath interprets relative paths against the directory holding the
// config file.
func ResolvePath(configPath, target string) string {
	if target == "" || filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(configPath), target)
}
