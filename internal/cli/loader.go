package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/infrastructure/config"
	"wallet-cluster-analyzer/internal/infrastructure/logger"
)

// LabelFlags are per-invocation overrides of the configured label files
type LabelFlags struct {
	Curated       []string
	GraphIntel    string
	KnownAccounts string
	KnownPrograms string
}

// apply overrides cfg with every flag that was set
func (l LabelFlags) apply(cfg *config.LabelsConfig) {
	if len(l.Curated) > 0 {
		cfg.CuratedFiles = l.Curated
	}
	if l.GraphIntel != "" {
		cfg.GraphIntelFile = l.GraphIntel
	}
	if l.KnownAccounts != "" {
		cfg.KnownAccountsFile = l.KnownAccounts
	}
	if l.KnownPrograms != "" {
		cfg.KnownProgramsFile = l.KnownPrograms
	}
}

// loadEnvironment reads config and builds the CLI logger
func loadEnvironment(opts *RootOptions, labels LabelFlags) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	labels.apply(&cfg.Labels)

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(level)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to create logger", err)
	}
	return cfg, log, nil
}

// readRows decodes a JSON array of transaction rows from path, or stdin when path is "-"
func readRows(path string, stdin io.Reader) ([]entity.TransactionRow, error) {
	var src io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open rows file", err)
		}
		defer f.Close()
		src = f
	}

	var rows []entity.TransactionRow
	if err := json.NewDecoder(src).Decode(&rows); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to decode rows from %s", path), err)
	}
	return rows, nil
}

func addLabelFlags(flags interface {
	StringSliceVar(*[]string, string, []string, string)
	StringVar(*string, string, string, string)
}, l *LabelFlags) {
	flags.StringSliceVar(&l.Curated, "curated", nil, "curated ADDRESS,ADDRESS_NAME csv files")
	flags.StringVar(&l.GraphIntel, "graph-intel", "", "graph intelligence label json file")
	flags.StringVar(&l.KnownAccounts, "known-accounts", "", "known accounts json file")
	flags.StringVar(&l.KnownPrograms, "known-programs", "", "known programs json file")
}
