package entity

import (
	"strings"
)

const (
	// UnknownAddress is the name given to wallets absent from every label source
	UnknownAddress = "Unknown Address"
	// UnknownProgram is the name given to program ids absent from the program source
	UnknownProgram = "Unknown Program"
)

// LabelSources holds the raw address -> name mappings a run is labeled from.
// Keys may use any letter case; the resolver normalizes them.
type LabelSources struct {
	// Curated holds labels from static reference tables (exchange, dapp, defi, admin lists)
	Curated map[string]string `json:"curated"`
	// KnownAccounts holds account labels from the identity service
	KnownAccounts map[string]string `json:"known_accounts"`
	// KnownPrograms holds program labels from the identity service
	KnownPrograms map[string]string `json:"known_programs"`
	// GraphIntel holds labels from the graph-intelligence investigation service
	GraphIntel map[string]string `json:"graph_intel"`
}

// Size returns the total number of entries across all sources
func (s LabelSources) Size() int {
	return len(s.Curated) + len(s.KnownAccounts) + len(s.KnownPrograms) + len(s.GraphIntel)
}

// NormalizeLabelKey is the canonical form addresses are stored and looked up under
func NormalizeLabelKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
