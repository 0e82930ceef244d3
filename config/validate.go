package config

import (
	"fmt"
	"strings"
	"time"

	"fiattoken/native/multisig"
	"fiattoken/observability/logging"
)

// ValidateConfig rejects settings the runtime cannot honour.
func ValidateConfig(cfg Config) error {
	if _, err := cfg.Multisig.Policy(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if cfg.Storage.CacheMB < 0 || cfg.Storage.Handles < 0 {
		return fmt.Errorf("storage: cache and handles must not be negative")
	}
	if dsn := strings.TrimSpace(cfg.Audit.DSN); dsn != "" {
		if !strings.HasPrefix(dsn, "sqlite://") && !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return fmt.Errorf("audit: unsupported dsn scheme")
		}
	}
	if url := strings.TrimSpace(cfg.Webhook.URL); url != "" {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("webhook: URL must use http or https")
		}
	}
	if cfg.Webhook.MaxAttempts < 0 {
		return fmt.Errorf("webhook: MaxAttempts must not be negative")
	}
	if cfg.Webhook.RatePerSecond < 0 || cfg.Webhook.Burst < 0 {
		return fmt.Errorf("webhook: RatePerSecond and Burst must not be negative")
	}
	return nil
}

// Policy converts the TOML section into the approval policy.
func (m Multisig) Policy() (multisig.Config, error) {
	if m.ApprovalThreshold == 0 {
		return multisig.Config{}, fmt.Errorf("multisig: ApprovalThreshold must be positive")
	}
	raw := strings.TrimSpace(m.ValidityPeriod)
	if raw == "" {
		raw = DefaultValidityPeriod
	}
	validity, err := time.ParseDuration(raw)
	if err != nil {
		return multisig.Config{}, fmt.Errorf("multisig: invalid ValidityPeriod %q: %w", m.ValidityPeriod, err)
	}
	cfg := multisig.Config{ApprovalThreshold: m.ApprovalThreshold, ValidityPeriod: validity}
	if err := cfg.Validate(); err != nil {
		return multisig.Config{}, err
	}
	return cfg, nil
}
