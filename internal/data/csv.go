package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/karanvs/vega/internal/core"
	"go.uber.org/zap"
)

// CSVProvider loads bars from one CSV file per symbol under a base
// directory, named <SYMBOL>.csv. The expected header is
// timestamp,open,high,low,close,volume; timestamps parse as RFC 3339 or
// as bare dates (2006-01-02).
type CSVProvider struct {
	dir string
	log *zap.Logger
}

// NewCSVProvider creates a provider reading from the given directory.
func NewCSVProvider(dir string, log *zap.Logger) *CSVProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSVProvider{dir: dir, log: log}
}

// Load reads the symbol's file and returns bars within [start, end]
// inclusive, sorted ascending with duplicate timestamps dropped (first
// occurrence wins). A missing file yields no bars, not an error.
func (p *CSVProvider) Load(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Bar, error) {
	path := filepath.Join(p.dir, symbol+".csv")

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		p.log.Warn("no data file for symbol",
			zap.String("symbol", symbol),
			zap.String("path", path),
		)
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrNoData, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	records, err := r.ReadAll()
	if err != nil {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("parsing %s: %w", path, err))
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Tolerate files with or without a header row.
	if strings.EqualFold(records[0][0], "timestamp") {
		records = records[1:]
	}

	bars := make([]core.Bar, 0, len(records))
	for i, rec := range records {
		bar, err := parseRecord(rec, symbol, interval)
		if err != nil {
			return nil, core.WrapError(core.ErrNoData, fmt.Errorf("%s row %d: %w", path, i+1, err))
		}
		bars = append(bars, bar)
	}

	return Normalize(bars, start, end), nil
}

func parseRecord(rec []string, symbol, interval string) (core.Bar, error) {
	ts, err := parseTimestamp(rec[0])
	if err != nil {
		return core.Bar{}, err
	}

	fields := make([]float64, 4)
	for i, raw := range rec[1:5] {
		fields[i], err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return core.Bar{}, fmt.Errorf("parsing price field %q: %w", raw, err)
		}
	}
	volume, err := strconv.ParseInt(strings.TrimSpace(rec[5]), 10, 64)
	if err != nil {
		return core.Bar{}, fmt.Errorf("parsing volume %q: %w", rec[5], err)
	}

	return core.Bar{
		Symbol:   symbol,
		Interval: interval,
		Time:     ts,
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   volume,
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

// Normalize sorts bars ascending by time, drops duplicate timestamps
// keeping the first occurrence, and filters to [start, end] inclusive.
// Every provider funnels through this so the simulator can rely on clean
// chronological input.
func Normalize(bars []core.Bar, start, end time.Time) []core.Bar {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	out := bars[:0]
	var prev time.Time
	for _, b := range bars {
		if len(out) > 0 && b.Time.Equal(prev) {
			continue
		}
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
		prev = b.Time
	}
	return out
}
