// Package loader discovers and parses the raw tabular log sources. One CSV
// export exists per logical sheet: the remote-control operation history and
// the status-change history, paired by a shared stamp in the file name.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fujit1113/ValueFromLog/internal/config"
	"github.com/fujit1113/ValueFromLog/internal/models"
)

// File naming of the source exports. The stamp embeds the export date in MMDD
// form, so lexicographic order is chronological order and the last stamp is
// the latest export.
const (
	sourcePrefix    = "equipment_log_"
	operationSuffix = "_operation.csv"
	stateSuffix     = "_state.csv"

	sheetOperation = "operation"
	sheetState     = "state"

	deletedColumn = "Deleted"
)

// Loader parses source CSV files into typed event slices.
type Loader struct {
	dataDir       string
	operationCols []string
	stateCols     []string
	log           zerolog.Logger
}

// Source identifies one discovered export pair. Paths and modification times
// feed the cache fingerprint.
type Source struct {
	Stamp            string
	OperationPath    string
	StatePath        string
	OperationModTime time.Time
	StateModTime     time.Time
}

// New creates a Loader from the configured column lists. Both lists must have
// exactly as many entries as the sheet has logical fields: overrides rename
// columns, they do not add or remove them.
func New(cfg *config.Config, log zerolog.Logger) (*Loader, error) {
	if len(cfg.OperationCols) != len(config.DefaultOperationCols) {
		return nil, &models.ConfigurationError{
			Key:    "OPERATION_COLS",
			Reason: fmt.Sprintf("expected %d columns, got %d", len(config.DefaultOperationCols), len(cfg.OperationCols)),
		}
	}
	if len(cfg.StateCols) != len(config.DefaultStateCols) {
		return nil, &models.ConfigurationError{
			Key:    "STATE_COLS",
			Reason: fmt.Sprintf("expected %d columns, got %d", len(config.DefaultStateCols), len(cfg.StateCols)),
		}
	}

	return &Loader{
		dataDir:       cfg.DataDir,
		operationCols: cfg.OperationCols,
		stateCols:     cfg.StateCols,
		log:           log.With().Str("component", "loader").Logger(),
	}, nil
}

// DiscoverLatest finds the export pair with the lexicographically-last stamp
// for which both sheet files exist.
func (l *Loader) DiscoverLatest() (*Source, error) {
	opFiles, err := filepath.Glob(filepath.Join(l.dataDir, sourcePrefix+"*"+operationSuffix))
	if err != nil {
		return nil, fmt.Errorf("scanning data directory: %w", err)
	}

	var stamps []string
	for _, path := range opFiles {
		name := filepath.Base(path)
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, sourcePrefix), operationSuffix)
		statePath := filepath.Join(l.dataDir, sourcePrefix+stamp+stateSuffix)
		if _, err := os.Stat(statePath); err == nil {
			stamps = append(stamps, stamp)
		}
	}
	if len(stamps) == 0 {
		return nil, fmt.Errorf("%w: no %s*%s/%s pair in %s",
			models.ErrSourceNotFound, sourcePrefix, operationSuffix, stateSuffix, l.dataDir)
	}
	sort.Strings(stamps)
	stamp := stamps[len(stamps)-1]

	src := &Source{
		Stamp:         stamp,
		OperationPath: filepath.Join(l.dataDir, sourcePrefix+stamp+operationSuffix),
		StatePath:     filepath.Join(l.dataDir, sourcePrefix+stamp+stateSuffix),
	}
	opInfo, err := os.Stat(src.OperationPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", src.OperationPath, err)
	}
	stateInfo, err := os.Stat(src.StatePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", src.StatePath, err)
	}
	src.OperationModTime = opInfo.ModTime()
	src.StateModTime = stateInfo.ModTime()

	l.log.Debug().Str("stamp", stamp).Msg("discovered latest export pair")
	return src, nil
}

// Load parses both sheets of a discovered source.
func (l *Loader) Load(src *Source) ([]models.OperationEvent, []models.StateChangeEvent, error) {
	ops, err := l.parseOperations(src.OperationPath)
	if err != nil {
		return nil, nil, err
	}
	states, err := l.parseStates(src.StatePath)
	if err != nil {
		return nil, nil, err
	}
	l.log.Info().
		Str("stamp", src.Stamp).
		Int("operations", len(ops)).
		Int("states", len(states)).
		Msg("parsed source files")
	return ops, states, nil
}

func (l *Loader) parseOperations(path string) ([]models.OperationEvent, error) {
	rows, idx, delIdx, err := readSheet(path, sheetOperation, l.operationCols)
	if err != nil {
		return nil, err
	}

	events := make([]models.OperationEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, models.OperationEvent{
			ContractID:      cell(row, idx[0]),
			Timestamp:       parseTimestamp(cell(row, idx[1])),
			TimerDiv:        cell(row, idx[2]),
			FloorCode:       cell(row, idx[3]),
			RoomName:        cell(row, idx[4]),
			EquipmentTypeID: cell(row, idx[5]),
			EquipmentName:   cell(row, idx[6]),
			PropertyCode:    cell(row, idx[7]),
			PropertyName:    cell(row, idx[8]),
			PropertyValue:   cell(row, idx[9]),
			Deleted:         parseFlag(cell(row, delIdx)),
		})
	}
	return events, nil
}

func (l *Loader) parseStates(path string) ([]models.StateChangeEvent, error) {
	rows, idx, delIdx, err := readSheet(path, sheetState, l.stateCols)
	if err != nil {
		return nil, err
	}

	events := make([]models.StateChangeEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, models.StateChangeEvent{
			MessageName:     cell(row, idx[0]),
			ContractID:      cell(row, idx[1]),
			Timestamp:       parseTimestamp(cell(row, idx[2])),
			FloorCode:       cell(row, idx[3]),
			RoomName:        cell(row, idx[4]),
			EquipmentTypeID: cell(row, idx[5]),
			EquipmentName:   cell(row, idx[6]),
			PropertyCode:    cell(row, idx[7]),
			PropertyName:    cell(row, idx[8]),
			PropertyValue:   cell(row, idx[9]),
			Deleted:         parseFlag(cell(row, delIdx)),
		})
	}
	return events, nil
}

// readSheet reads a CSV file with a header row and resolves the configured
// columns to field indexes, in configured order. Returns the data rows, the
// index per required column, and the index of the optional Deleted column
// (-1 when absent).
func readSheet(path, sheet string, cols []string) ([][]string, []int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, -1, fmt.Errorf("opening %s sheet: %w", sheet, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, -1, &models.SchemaError{Sheet: sheet, Column: cols[0]}
	}
	if err != nil {
		return nil, nil, -1, fmt.Errorf("reading %s header: %w", sheet, err)
	}

	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.TrimSpace(name)] = i
	}

	idx := make([]int, len(cols))
	for i, name := range cols {
		pos, ok := byName[name]
		if !ok {
			return nil, nil, -1, &models.SchemaError{Sheet: sheet, Column: name}
		}
		idx[i] = pos
	}

	// Deleted has a declared default, so its absence is not a schema error.
	delIdx := -1
	if pos, ok := byName[deletedColumn]; ok {
		delIdx = pos
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, -1, fmt.Errorf("reading %s rows: %w", sheet, err)
		}
		rows = append(rows, row)
	}
	return rows, idx, delIdx, nil
}

// cell returns the trimmed value at pos, or "" when pos is out of range or -1.
// Missing attributes normalize to the empty string so composite keys compare
// equal on jointly-missing fields.
func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// timestampLayouts are tried in order. All parsed instants are UTC.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02 15:04:05",
}

// parseTimestamp converts a raw cell into a UTC instant. Failures yield the
// zero time, the in-memory null marker, rather than an error.
func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

// parseFlag reads the Deleted column: blank or unparseable means false.
func parseFlag(raw string) bool {
	switch strings.ToUpper(raw) {
	case "TRUE", "1", "YES", "ON":
		return true
	}
	return false
}
