package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/service"
	"wallet-cluster-analyzer/internal/infrastructure/labels"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	Program bool
	Labels  LabelFlags
}

// Resolution is one resolved address.
type Resolution struct {
	Address  string          `json:"address"`
	Name     string          `json:"name"`
	Category entity.Category `json:"category"`
	Known    bool            `json:"known"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:           "resolve <address>...",
		Short:         "Resolve addresses to entity names and categories",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Program, "program", false, "resolve program ids instead of wallets")
	addLabelFlags(cmd.Flags(), &opts.Labels)

	return cmd
}

func runResolve(rootOpts *RootOptions, opts *ResolveOptions, addresses []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	cfg, log, err := loadEnvironment(rootOpts, opts.Labels)
	if err != nil {
		return err
	}
	defer log.Sync()

	sources, err := labels.NewFileLabelRepository(&cfg.Labels, log).Load(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load labels", err)
	}
	formatter.VerboseLog("loaded %d label entries", sources.Size())

	labelMap := service.NewAddressLabelMap(sources)
	classifier := service.NewCategoryClassifier(cfg.Classifier.Rules...)

	out := make([]Resolution, 0, len(addresses))
	for _, addr := range addresses {
		name := labelMap.ResolveWallet(addr)
		sentinel := entity.UnknownAddress
		if opts.Program {
			name = labelMap.ResolveProgram(addr)
			sentinel = entity.UnknownProgram
		}
		out = append(out, Resolution{
			Address:  addr,
			Name:     name,
			Category: classifier.Classify(name),
			Known:    name != sentinel,
		})
	}

	return formatter.Write(out, func(w io.Writer) error {
		for _, r := range out {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Address, r.Name, r.Category)
		}
		return nil
	})
}
