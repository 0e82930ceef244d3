package fiattoken

import (
	"fmt"
	"strings"

	fterrors "fiattoken/core/errors"
)

// MetadataSpec is the fungible token metadata version this ledger reports.
const MetadataSpec = "ft-1.0.0"

// Metadata describes the token to wallets and explorers.
type Metadata struct {
	Spec     string `json:"spec" yaml:"spec"`
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Icon     string `json:"icon,omitempty" yaml:"icon"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// Validate checks the metadata, defaulting an empty spec.
func (m *Metadata) Validate() error {
	if strings.TrimSpace(m.Spec) == "" {
		m.Spec = MetadataSpec
	}
	if m.Spec != MetadataSpec {
		return fmt.Errorf("fiattoken: unsupported metadata spec %q", m.Spec)
	}
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Symbol) == "" {
		return fmt.Errorf("fiattoken: metadata name and symbol are required")
	}
	return nil
}

// Metadata returns the token metadata recorded at initialisation.
func (e *Engine) Metadata() (Metadata, error) {
	if err := e.ready(); err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	ok, err := e.state.KVGet(metadataKey(), &meta)
	if err != nil {
		return Metadata{}, fmt.Errorf("fiattoken: load metadata: %w", err)
	}
	if !ok {
		return Metadata{}, fterrors.ErrNotInitialized
	}
	return meta, nil
}
