package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"fiattoken/crypto"
	"fiattoken/native/fiattoken"
)

// GenesisFile is the YAML document naming the initial role holders. Accounts
// use the bech32 form or 0x-prefixed hex.
type GenesisFile struct {
	Admins        []string `yaml:"admins"`
	MasterMinters []string `yaml:"master_minters"`
	Owners        []string `yaml:"owners"`
	Pausers       []string `yaml:"pausers"`
	Blocklister   string   `yaml:"blocklister"`

	Metadata fiattoken.Metadata `yaml:"metadata"`
}

// LoadGenesis reads and resolves the genesis document at path.
func LoadGenesis(path string) (fiattoken.Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fiattoken.Genesis{}, fmt.Errorf("read genesis: %w", err)
	}
	return ParseGenesis(raw)
}

// ParseGenesis decodes a YAML genesis document.
func ParseGenesis(raw []byte) (fiattoken.Genesis, error) {
	var doc GenesisFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fiattoken.Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}
	return doc.Resolve()
}

// Resolve parses every account and checks that each governance group, the
// blocklister and the token metadata are present.
func (g GenesisFile) Resolve() (fiattoken.Genesis, error) {
	var out fiattoken.Genesis
	groups := []struct {
		name string
		src  []string
		dst  *[][20]byte
	}{
		{"admins", g.Admins, &out.Admins},
		{"master_minters", g.MasterMinters, &out.MasterMinters},
		{"owners", g.Owners, &out.Owners},
		{"pausers", g.Pausers, &out.Pausers},
	}
	for _, group := range groups {
		if len(group.src) == 0 {
			return fiattoken.Genesis{}, fmt.Errorf("genesis: %s must list at least one account", group.name)
		}
		seen := make(map[[20]byte]struct{}, len(group.src))
		for _, value := range group.src {
			account, err := crypto.ParseAccount(strings.TrimSpace(value))
			if err != nil {
				return fiattoken.Genesis{}, fmt.Errorf("genesis: %s: %w", group.name, err)
			}
			if _, dup := seen[account]; dup {
				return fiattoken.Genesis{}, fmt.Errorf("genesis: %s lists %s twice", group.name, value)
			}
			seen[account] = struct{}{}
			*group.dst = append(*group.dst, account)
		}
	}
	if strings.TrimSpace(g.Blocklister) == "" {
		return fiattoken.Genesis{}, fmt.Errorf("genesis: blocklister required")
	}
	blocklister, err := crypto.ParseAccount(strings.TrimSpace(g.Blocklister))
	if err != nil {
		return fiattoken.Genesis{}, fmt.Errorf("genesis: blocklister: %w", err)
	}
	out.Blocklister = blocklister
	out.Metadata = g.Metadata
	if err := out.Metadata.Validate(); err != nil {
		return fiattoken.Genesis{}, fmt.Errorf("genesis: %w", err)
	}
	return out, nil
}
