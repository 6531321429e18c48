package service

import (
	"sort"
	"strings"

	"wallet-cluster-analyzer/internal/domain/entity"
)

// AddressLabelMap resolves wallet and program addresses to human-readable names.
// It is immutable after construction and safe to share across concurrent runs.
type AddressLabelMap struct {
	wallets  map[string]string
	programs map[string]string
}

// NewAddressLabelMap merges the label sources into one canonical lookup.
// Later overlays win on collision, giving curated > graph intelligence > known accounts.
// The input maps are never modified.
func NewAddressLabelMap(sources entity.LabelSources) *AddressLabelMap {
	wallets := make(map[string]string,
		len(sources.KnownAccounts)+len(sources.GraphIntel)+len(sources.Curated))

	overlay(wallets, sources.KnownAccounts)
	overlay(wallets, sources.GraphIntel)
	overlay(wallets, sources.Curated)

	programs := make(map[string]string, len(sources.KnownPrograms))
	overlay(programs, sources.KnownPrograms)

	return &AddressLabelMap{
		wallets:  wallets,
		programs: programs,
	}
}

// overlay copies src into dst with lowercased keys. Entries with an empty name are skipped
// so that a blank label never shadows a real one. Keys are visited in sorted order, so when
// two keys of one source differ only by case the lexically greater one wins on every run.
func overlay(dst, src map[string]string) {
	keys := make([]string, 0, len(src))
	for addr := range src {
		keys = append(keys, addr)
	}
	sort.Strings(keys)

	for _, addr := range keys {
		key := entity.NormalizeLabelKey(addr)
		name := strings.TrimSpace(src[addr])
		if key == "" || name == "" {
			continue
		}
		dst[key] = name
	}
}

// ResolveWallet returns the name for a wallet address, or UnknownAddress
func (m *AddressLabelMap) ResolveWallet(address string) string {
	if m == nil {
		return entity.UnknownAddress
	}
	if name, ok := m.wallets[entity.NormalizeLabelKey(address)]; ok {
		return name
	}
	return entity.UnknownAddress
}

// ResolveProgram returns the name for a program id, or UnknownProgram
func (m *AddressLabelMap) ResolveProgram(programID string) string {
	if m == nil {
		return entity.UnknownProgram
	}
	if name, ok := m.programs[entity.NormalizeLabelKey(programID)]; ok {
		return name
	}
	return entity.UnknownProgram
}

// IsKnownWallet reports whether any source labels the address
func (m *AddressLabelMap) IsKnownWallet(address string) bool {
	if m == nil {
		return false
	}
	_, ok := m.wallets[entity.NormalizeLabelKey(address)]
	return ok
}

// WalletCount returns the number of labeled wallet addresses
func (m *AddressLabelMap) WalletCount() int {
	if m == nil {
		return 0
	}
	return len(m.wallets)
}

// ProgramCount returns the number of labeled program ids
func (m *AddressLabelMap) ProgramCount() int {
	if m == nil {
		return 0
	}
	return len(m.programs)
}
