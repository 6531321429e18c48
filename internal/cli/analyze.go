package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	app_service "wallet-cluster-analyzer/internal/application/service"
	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/infrastructure/labels"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	Address      string
	Clean        bool
	ClustersOnly bool
	FailOnFlags  bool
	Labels       LabelFlags
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <rows.json|->",
		Short: "Label, graph and cluster the transfers of one wallet",
		Long: `Read a JSON array of transaction rows for one wallet, resolve entity names,
aggregate wallet behavior, build the transfer graph and report its clusters.

Use "-" to read rows from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Address, "address", "a", "", "analyzed wallet address (required)")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "dedupe signatures and keep successful rows only")
	cmd.Flags().BoolVar(&opts.ClustersOnly, "clusters-only", false, "output cluster reports only")
	cmd.Flags().BoolVar(&opts.FailOnFlags, "fail-on-flags", false, "exit 1 when any cluster is flagged")
	addLabelFlags(cmd.Flags(), &opts.Labels)
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func runAnalyze(rootOpts *RootOptions, opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
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

	rows, err := readRows(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	formatter.VerboseLog("read %d rows from %s", len(rows), path)

	ctx := cmd.Context()
	labeler, err := app_service.NewEntityLabeler(ctx, labels.NewFileLabelRepository(&cfg.Labels, log), cfg, nil, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load labels", err)
	}

	analysis := app_service.NewAnalysisPipeline(labeler, cfg, nil, nil, log)
	result, err := analysis.Analyze(ctx, &entity.AnalysisRequest{
		Address: opts.Address,
		Rows:    rows,
		Clean:   opts.Clean,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "analysis failed", err)
	}

	var data any = result
	if opts.ClustersOnly {
		data = result.Clusters
	}
	if err := formatter.Write(data, func(w io.Writer) error {
		return writeAnalysisText(w, result)
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if opts.FailOnFlags && len(result.FlaggedClusters()) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d flagged clusters", len(result.FlaggedClusters())))
	}
	return nil
}

func writeAnalysisText(w io.Writer, result *entity.AnalysisResult) error {
	p := result.Profile
	fmt.Fprintf(w, "Wallet:   %s (%s)\n", result.Address, p.EntityLabel)
	fmt.Fprintf(w, "Rows:     %d labeled, %d wallets, %d transfers\n",
		len(result.Rows), result.Graph.NodeCount(), result.Graph.EdgeCount())
	fmt.Fprintf(w, "Activity: %d tx over %d days, %.2f tx/day, net flow %.4f SOL\n",
		p.History.NumTransactions, p.Patterns.ActivePeriodDays, p.Patterns.AvgTxPerDay, p.Patterns.NativeNetFlow)
	if len(p.Risk.RiskSummary) > 0 {
		fmt.Fprintf(w, "Risks:    %s\n", strings.Join(p.Risk.RiskSummary, "; "))
	}
	fmt.Fprintf(w, "Digest:   %s\n\n", result.Digest)

	return writeClusterTable(w, result.Clusters)
}

func writeClusterTable(w io.Writer, clusters []entity.ClusterReport) error {
	fmt.Fprintf(w, "%-4s %-6s %-8s %-10s %-8s %-16s %s\n",
		"ID", "SIZE", "TXS", "DENSITY", "AVG_DEG", "TYPE", "FLAGS")
	for _, c := range clusters {
		flags := make([]string, len(c.RiskFlags))
		for i, f := range c.RiskFlags {
			flags[i] = string(f)
		}
		fmt.Fprintf(w, "%-4d %-6d %-8d %-10.4f %-8.2f %-16s %s\n",
			c.ClusterID, c.ClusterSize, c.TotalTransactions, c.Density, c.AvgDegree,
			c.ClusterType, strings.Join(flags, ", "))
	}
	return nil
}
