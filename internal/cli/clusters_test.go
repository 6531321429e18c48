package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/repository"
	"wallet-cluster-analyzer/internal/infrastructure/config"
	"wallet-cluster-analyzer/internal/infrastructure/logger"
)

type storedClusters struct {
	clusters map[string][]entity.ClusterReport
	closed   bool
	err      error
}

func (s *storedClusters) SaveAnalysis(ctx context.Context, result *entity.AnalysisResult) error {
	return nil
}

func (s *storedClusters) GetClusters(ctx context.Context, address string) ([]entity.ClusterReport, error) {
	return s.clusters[address], s.err
}

func (s *storedClusters) opener(openErr error) ClusterStoreOpener {
	return func(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.AnalysisRepository, func(context.Context) error, error) {
		if openErr != nil {
			return nil, nil, openErr
		}
		return s, func(context.Context) error {
			s.closed = true
			return nil
		}, nil
	}
}

func runClustersCommand(t *testing.T, opts *RootOptions, open ClusterStoreOpener, args ...string) (string, error) {
	t.Helper()
	cmd := NewClustersCommand(opts, open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testStore() *storedClusters {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return &storedClusters{clusters: map[string][]entity.ClusterReport{
		subject: {
			{
				ClusterID: 1, Wallets: []string{subject, "B", "C"}, ClusterSize: 3, TotalTransactions: 2,
				ClusterStartTime: start, ClusterEndTime: start.Add(10 * time.Minute), ClusterType: "Normal User",
				Density: 2.0 / 3, AvgDegree: 4.0 / 3, RiskFlags: []entity.RiskFlag{entity.RiskFlagDenseSmallCluster}, Unusual: true,
			},
			{
				ClusterID: 2, Wallets: []string{"D", "E"}, ClusterSize: 2, TotalTransactions: 1,
				ClusterType: entity.ClusterTypeUnknown, RiskFlags: []entity.RiskFlag{entity.RiskFlagNormal},
			},
		},
	}}
}

func TestClustersCommand_JSON(t *testing.T) {
	_, _, configPath := testEnv(t)
	store := testStore()

	out, err := runClustersCommand(t, &RootOptions{ConfigFile: configPath, Format: "json"}, store.opener(nil), "--address", subject)
	require.NoError(t, err)

	var clusters []entity.ClusterReport
	require.NoError(t, json.Unmarshal([]byte(out), &clusters))
	assert.Equal(t, store.clusters[subject], clusters)
	assert.True(t, store.closed)
}

func TestClustersCommand_FlaggedOnlyText(t *testing.T) {
	_, _, configPath := testEnv(t)

	out, err := runClustersCommand(t, &RootOptions{ConfigFile: configPath, Format: "text"}, testStore().opener(nil),
		"-a", subject, "--flagged-only")
	require.NoError(t, err)

	assert.Contains(t, out, "Dense Small Cluster")
	assert.NotContains(t, out, "Normal\n")
}

func TestClustersCommand_NoneStored(t *testing.T) {
	_, _, configPath := testEnv(t)

	out, err := runClustersCommand(t, &RootOptions{ConfigFile: configPath, Format: "text"}, (&storedClusters{}).opener(nil),
		"-a", "11111111111111111111111111111111")
	require.NoError(t, err)

	assert.Equal(t, "No stored clusters for 11111111111111111111111111111111\n", out)
}

func TestClustersCommand_Errors(t *testing.T) {
	_, _, configPath := testEnv(t)
	opts := &RootOptions{ConfigFile: configPath, Format: "json"}

	tests := []struct {
		name  string
		store *storedClusters
		open  error
		addr  string
	}{
		{"invalid address", testStore(), nil, "nope"},
		{"store unavailable", testStore(), errors.New("connection refused"), subject},
		{"read failure", &storedClusters{err: errors.New("query failed")}, nil, subject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runClustersCommand(t, opts, tt.store.opener(tt.open), "-a", tt.addr)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}
