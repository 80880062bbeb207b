// Package ingest loads source tables from CSV files into the engine's
// RawTable contract, and writes an integrated Table back out to CSV.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/galindo-legaria/alite/pkg/types"
)

// Config holds loader concurrency settings.
type Config struct {
	// Workers is the number of files loaded concurrently.
	Workers int

	// ChannelBuffer is the buffer size for the internal path/result channels.
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults for loading.
func DefaultConfig() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		ChannelBuffer: 16,
	}
}

// Loader reads RawTables from CSV files.
type Loader struct {
	cfg   Config
	stats Stats
}

// Stats tracks loading metrics.
type Stats struct {
	FilesRequested int64
	FilesLoaded    int64
	FilesFailed    int64
	RowsLoaded     int64
	StartTime      time.Time
	EndTime        time.Time
}

// Duration returns the total loading duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// NewLoader creates a new CSV loader.
func NewLoader(cfg Config) *Loader {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 16
	}
	return &Loader{cfg: cfg}
}

// ProgressCallback is called periodically with current stats.
type ProgressCallback func(stats Stats)

// loadResult pairs a path with its parsed table or error, so results can be
// reassembled in input order after concurrent loading.
type loadResult struct {
	index int
	table *types.RawTable
	err   error
}

// LoadFiles loads every CSV file concurrently, one table per file, and
// returns them in the same order as paths. A single bad file fails the
// whole batch: outer union across tables needs every source table present,
// so there is no meaningful partial result to return.
func (l *Loader) LoadFiles(ctx context.Context, paths []string, progress ProgressCallback) ([]*types.RawTable, *Stats, error) {
	l.stats = Stats{StartTime: time.Now(), FilesRequested: int64(len(paths))}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pathCh := make(chan int, l.cfg.ChannelBuffer)
	resultCh := make(chan loadResult, l.cfg.ChannelBuffer)

	var wg sync.WaitGroup
	workers := l.cfg.Workers
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers == 0 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pathCh {
				select {
				case <-ctx.Done():
					resultCh <- loadResult{index: idx, err: ctx.Err()}
					continue
				default:
				}

				table, err := l.LoadFile(ctx, paths[idx])
				if err != nil {
					atomic.AddInt64(&l.stats.FilesFailed, 1)
					cancel()
				} else {
					atomic.AddInt64(&l.stats.FilesLoaded, 1)
					atomic.AddInt64(&l.stats.RowsLoaded, int64(len(table.Rows)))
				}
				resultCh <- loadResult{index: idx, table: table, err: err}
			}
		}()
	}

	go func() {
		defer close(pathCh)
		for i := range paths {
			select {
			case pathCh <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	if progress != nil {
		go func() {
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					progress(l.GetStats())
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	tables := make([]*types.RawTable, len(paths))
	var firstErr error
	for res := range resultCh {
		if res.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("loading %q: %w", paths[res.index], res.err)
			continue
		}
		tables[res.index] = res.table
	}

	l.stats.EndTime = time.Now()
	if firstErr != nil {
		return nil, l.GetStatsPtr(), firstErr
	}
	return tables, l.GetStatsPtr(), nil
}

// LoadFile reads one CSV file into a RawTable. The first row is the header;
// column types are inferred by scanning every cell in that column with
// inferColumnTypes, falling back to ColumnStr if any row disagrees.
func (l *Loader) LoadFile(ctx context.Context, path string) (*types.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	name := tableNameFromPath(path)
	return ReadCSV(name, f)
}

// ReadCSV parses CSV content from r into a RawTable named name.
func ReadCSV(name string, r io.Reader) (*types.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return &types.RawTable{Name: name}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rawRows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rawRows = append(rawRows, record)
	}

	types_ := inferColumnTypes(header, rawRows)

	columns := make([]types.RawColumn, len(header))
	for i, h := range header {
		columns[i] = types.RawColumn{Name: h, Type: types_[i]}
	}

	rows := make([][]types.Value, len(rawRows))
	for i, record := range rawRows {
		row := make([]types.Value, len(header))
		for j := range header {
			if j >= len(record) {
				row[j] = types.Null
				continue
			}
			row[j] = parseValue(record[j], types_[j])
		}
		rows[i] = row
	}

	return &types.RawTable{Name: name, Columns: columns, Rows: rows}, nil
}

// WriteCSV writes an integrated table to w. Labeled and ordinary nulls both
// render as an empty field, since the labeled-null identity has no meaning
// outside the pipeline run that minted it.
func WriteCSV(w io.Writer, t *types.Table) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	cols := t.SortedColumns()
	header := make([]string, len(cols))
	for i, id := range cols {
		header[i] = t.ColumnNames[id]
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range t.Rows {
		record := make([]string, len(cols))
		for i, id := range cols {
			record[i] = row[id].String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return cw.Error()
}

// GetStats returns current statistics.
func (l *Loader) GetStats() Stats {
	return Stats{
		FilesRequested: atomic.LoadInt64(&l.stats.FilesRequested),
		FilesLoaded:    atomic.LoadInt64(&l.stats.FilesLoaded),
		FilesFailed:    atomic.LoadInt64(&l.stats.FilesFailed),
		RowsLoaded:     atomic.LoadInt64(&l.stats.RowsLoaded),
		StartTime:      l.stats.StartTime,
		EndTime:        l.stats.EndTime,
	}
}

// GetStatsPtr returns a pointer to current statistics.
func (l *Loader) GetStatsPtr() *Stats {
	s := l.GetStats()
	return &s
}

func tableNameFromPath(path string) string {
	name := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			name = path[i+1:]
			break
		}
	}
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}

// inferColumnTypes scans every cell in each column and picks the narrowest
// type every non-empty cell parses as: ColumnInt, else ColumnReal, else
// ColumnStr.
func inferColumnTypes(header []string, rows [][]string) []types.ColumnType {
	result := make([]types.ColumnType, len(header))
	for i := range header {
		result[i] = types.ColumnInt
	}

	for _, record := range rows {
		for j := range header {
			if result[j] == types.ColumnStr {
				continue
			}
			if j >= len(record) || record[j] == "" {
				continue
			}
			cell := record[j]
			switch result[j] {
			case types.ColumnInt:
				if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
					continue
				}
				if _, err := strconv.ParseFloat(cell, 64); err == nil {
					result[j] = types.ColumnReal
					continue
				}
				result[j] = types.ColumnStr
			case types.ColumnReal:
				if _, err := strconv.ParseFloat(cell, 64); err == nil {
					continue
				}
				result[j] = types.ColumnStr
			}
		}
	}

	return result
}

func parseValue(cell string, t types.ColumnType) types.Value {
	if cell == "" {
		return types.Null
	}
	switch t {
	case types.ColumnInt:
		if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return types.Int(i)
		}
	case types.ColumnReal:
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return types.Real(f)
		}
	}
	return types.Str(cell)
}
