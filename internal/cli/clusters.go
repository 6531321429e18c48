package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/repository"
	"wallet-cluster-analyzer/internal/infrastructure/config"
	"wallet-cluster-analyzer/internal/infrastructure/database"
	"wallet-cluster-analyzer/internal/infrastructure/logger"
)

// ClusterStoreOpener connects to the store holding persisted cluster reports.
// The returned close function releases the connection.
type ClusterStoreOpener func(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.AnalysisRepository, func(context.Context) error, error)

// ClustersOptions holds flags for the clusters command.
type ClustersOptions struct {
	Address     string
	FlaggedOnly bool
}

// NewClustersCommand creates the clusters command.
func NewClustersCommand(rootOpts *RootOptions, open ClusterStoreOpener) *cobra.Command {
	opts := &ClustersOptions{}

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Show the cluster reports stored for a wallet",
		Long: `Read the cluster reports persisted by the analyzer service for one wallet
from the Neo4J graph store.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClusters(rootOpts, opts, open, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Address, "address", "a", "", "analyzed wallet address (required)")
	cmd.Flags().BoolVar(&opts.FlaggedOnly, "flagged-only", false, "show unusual clusters only")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func runClusters(rootOpts *RootOptions, opts *ClustersOptions, open ClusterStoreOpener, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	if err := entity.ValidateSolanaAddress(opts.Address); err != nil {
		return WrapExitError(ExitCommandError, "invalid address", err)
	}

	cfg, log, err := loadEnvironment(rootOpts, LabelFlags{})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	store, closeStore, err := open(ctx, cfg, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open cluster store", err)
	}
	defer closeStore(ctx)

	clusters, err := store.GetClusters(ctx, opts.Address)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read clusters", err)
	}
	formatter.VerboseLog("read %d stored clusters for %s", len(clusters), opts.Address)

	if opts.FlaggedOnly {
		flagged := make([]entity.ClusterReport, 0, len(clusters))
		for _, c := range clusters {
			if c.Unusual {
				flagged = append(flagged, c)
			}
		}
		clusters = flagged
	}

	return formatter.Write(clusters, func(w io.Writer) error {
		if len(clusters) == 0 {
			fmt.Fprintf(w, "No stored clusters for %s\n", opts.Address)
			return nil
		}
		return writeClusterTable(w, clusters)
	})
}

// openNeo4JClusterStore connects to the configured Neo4J database
func openNeo4JClusterStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.AnalysisRepository, func(context.Context) error, error) {
	client := database.NewNeo4JClient(&cfg.Neo4J, log)

	connectCtx := ctx
	if cfg.Neo4J.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Neo4J.ConnectTimeout)
		defer cancel()
	}
	if err := client.Connect(connectCtx); err != nil {
		return nil, nil, err
	}

	return database.NewNeo4JAnalysisRepository(client, cfg.Neo4J.BatchSize, log), client.Close, nil
}
