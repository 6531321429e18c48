package labels

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-cluster-analyzer/internal/infrastructure/config"
	"wallet-cluster-analyzer/internal/infrastructure/logger"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFileLabelRepository_Load(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LabelsConfig{
		CuratedFiles: []string{
			writeFile(t, dir, "exchanges.csv", "ADDRESS,ADDRESS_NAME\naddrA,Coinbase 1\naddrB,\"Binance, Hot\"\nbroken\n"),
			writeFile(t, dir, "defi.csv", "LABEL,ADDRESS_NAME,ADDRESS\ndefi,Kamino Lend,addrC\n"),
		},
		GraphIntelFile:    writeFile(t, dir, "intel.json", `[{"address":"addrD","main_entity":"Tensor"},{"address":"addrE","main_entity":""}]`),
		KnownAccountsFile: writeFile(t, dir, "accounts.json", `{"accounts":[{"ownerAddress":"addrF","name":"Jupiter Treasury","labels":["defi"]}]}`),
		KnownProgramsFile: writeFile(t, dir, "programs.json", `{"programs":[{"programId":"progA","name":"Raydium AMM"}]}`),
	}

	sources, err := NewFileLabelRepository(cfg, logger.NewNop()).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"addra": "Coinbase 1",
		"addrb": "Binance, Hot",
		"addrc": "Kamino Lend",
	}, sources.Curated)
	assert.Equal(t, map[string]string{"addrd": "Tensor", "addre": ""}, sources.GraphIntel)
	assert.Equal(t, map[string]string{"addrf": "Jupiter Treasury"}, sources.KnownAccounts)
	assert.Equal(t, map[string]string{"proga": "Raydium AMM"}, sources.KnownPrograms)
	assert.Equal(t, 7, sources.Size())
}

func TestFileLabelRepository_CaseCollisionLastEntryWins(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LabelsConfig{
		CuratedFiles: []string{
			writeFile(t, dir, "exchanges.csv", "ADDRESS,ADDRESS_NAME\nSo1anaAbc,Raydium Pool\nso1anaabc,Rug Deployer\n"),
		},
		KnownAccountsFile: writeFile(t, dir, "accounts.json",
			`{"accounts":[{"ownerAddress":"so1anaabc","name":"First"},{"ownerAddress":"SO1ANAABC","name":"Second"}]}`),
	}

	for i := 0; i < 20; i++ {
		sources, err := NewFileLabelRepository(cfg, logger.NewNop()).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"so1anaabc": "Rug Deployer"}, sources.Curated)
		assert.Equal(t, map[string]string{"so1anaabc": "Second"}, sources.KnownAccounts)
	}
}

func TestFileLabelRepository_MissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LabelsConfig{
		CuratedFiles:   []string{filepath.Join(dir, "absent.csv")},
		GraphIntelFile: filepath.Join(dir, "absent.json"),
	}

	sources, err := NewFileLabelRepository(cfg, logger.NewNop()).Load(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sources.Size())
	assert.NotNil(t, sources.Curated)
	assert.NotNil(t, sources.KnownPrograms)
}

func TestFileLabelRepository_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  *config.LabelsConfig
		want string
	}{
		{
			name: "csv without required columns",
			cfg:  &config.LabelsConfig{CuratedFiles: []string{writeFile(t, dir, "bad.csv", "ADDR,NAME\na,b\n")}},
			want: ErrMissingColumns.Error(),
		},
		{
			name: "malformed json",
			cfg:  &config.LabelsConfig{KnownProgramsFile: writeFile(t, dir, "bad.json", `{"programs":`)},
			want: "bad.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileLabelRepository(tt.cfg, logger.NewNop()).Load(context.Background())
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestFileLabelRepository_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileLabelRepository(&config.LabelsConfig{CuratedFiles: []string{"x.csv"}}, logger.NewNop()).Load(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
