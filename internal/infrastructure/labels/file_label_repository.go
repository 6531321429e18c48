package labels

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/repository"
	"wallet-cluster-analyzer/internal/infrastructure/config"
	"wallet-cluster-analyzer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

const (
	curatedAddressColumn = "ADDRESS"
	curatedNameColumn    = "ADDRESS_NAME"
)

// ErrMissingColumns is returned when a curated CSV lacks the address or name header
var ErrMissingColumns = errors.New("curated csv: missing ADDRESS or ADDRESS_NAME column")

type graphIntelEntry struct {
	Address    string `json:"address"`
	MainEntity string `json:"main_entity"`
}

type knownAccountsFile struct {
	Accounts []struct {
		OwnerAddress string `json:"ownerAddress"`
		Name         string `json:"name"`
	} `json:"accounts"`
}

type knownProgramsFile struct {
	Programs []struct {
		ProgramID string `json:"programId"`
		Name      string `json:"name"`
	} `json:"programs"`
}

// FileLabelRepository loads label sources from local CSV and JSON exports
type FileLabelRepository struct {
	config *config.LabelsConfig
	logger *logger.Logger
}

// NewFileLabelRepository creates a new file-backed label repository
func NewFileLabelRepository(cfg *config.LabelsConfig, logger *logger.Logger) repository.LabelSourceRepository {
	return &FileLabelRepository{
		config: cfg,
		logger: logger.WithComponent("label-repo"),
	}
}

// Load reads every configured file. Keys are normalized as they are read, so the last
// entry of a file wins over earlier ones that differ only by case. A missing file leaves
// its source empty; a file that exists but cannot be parsed is an error.
func (r *FileLabelRepository) Load(ctx context.Context) (entity.LabelSources, error) {
	sources := entity.LabelSources{
		Curated:       make(map[string]string),
		KnownAccounts: make(map[string]string),
		KnownPrograms: make(map[string]string),
		GraphIntel:    make(map[string]string),
	}

	for _, path := range r.config.CuratedFiles {
		if err := ctx.Err(); err != nil {
			return sources, err
		}
		if err := r.loadFile(path, func(f io.Reader) error {
			return readCuratedCSV(f, sources.Curated)
		}); err != nil {
			return sources, err
		}
	}

	loaders := []struct {
		path string
		read func(io.Reader) error
	}{
		{r.config.GraphIntelFile, func(f io.Reader) error { return readGraphIntel(f, sources.GraphIntel) }},
		{r.config.KnownAccountsFile, func(f io.Reader) error { return readKnownAccounts(f, sources.KnownAccounts) }},
		{r.config.KnownProgramsFile, func(f io.Reader) error { return readKnownPrograms(f, sources.KnownPrograms) }},
	}
	for _, l := range loaders {
		if err := ctx.Err(); err != nil {
			return sources, err
		}
		if err := r.loadFile(l.path, l.read); err != nil {
			return sources, err
		}
	}

	r.logger.Info("Loaded label sources",
		zap.Int("curated", len(sources.Curated)),
		zap.Int("graph_intel", len(sources.GraphIntel)),
		zap.Int("known_accounts", len(sources.KnownAccounts)),
		zap.Int("known_programs", len(sources.KnownPrograms)))

	return sources, nil
}

func (r *FileLabelRepository) loadFile(path string, read func(io.Reader) error) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("Label file not found, source left empty", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open label file %s: %w", path, err)
	}
	defer f.Close()

	if err := read(f); err != nil {
		return fmt.Errorf("failed to read label file %s: %w", path, err)
	}
	return nil
}

// readCuratedCSV reads an ADDRESS,ADDRESS_NAME table. Rows with a wrong field count are skipped.
func readCuratedCSV(src io.Reader, dst map[string]string) error {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	addrCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))) {
		case curatedAddressColumn:
			addrCol = i
		case curatedNameColumn:
			nameCol = i
		}
	}
	if addrCol < 0 || nameCol < 0 {
		return ErrMissingColumns
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return err
		}
		if len(record) != len(header) {
			continue
		}
		dst[entity.NormalizeLabelKey(record[addrCol])] = record[nameCol]
	}
}

func readGraphIntel(src io.Reader, dst map[string]string) error {
	var entries []graphIntelEntry
	if err := json.NewDecoder(src).Decode(&entries); err != nil {
		return err
	}
	for _, e := range entries {
		dst[entity.NormalizeLabelKey(e.Address)] = e.MainEntity
	}
	return nil
}

func readKnownAccounts(src io.Reader, dst map[string]string) error {
	var file knownAccountsFile
	if err := json.NewDecoder(src).Decode(&file); err != nil {
		return err
	}
	for _, a := range file.Accounts {
		dst[entity.NormalizeLabelKey(a.OwnerAddress)] = a.Name
	}
	return nil
}

func readKnownPrograms(src io.Reader, dst map[string]string) error {
	var file knownProgramsFile
	if err := json.NewDecoder(src).Decode(&file); err != nil {
		return err
	}
	for _, p := range file.Programs {
		dst[entity.NormalizeLabelKey(p.ProgramID)] = p.Name
	}
	return nil
}
