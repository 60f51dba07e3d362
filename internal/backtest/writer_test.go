package backtest

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// memStore is an in-memory archive.Storage for tests.
type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Write(_ context.Context, path string, data []byte) error {
	m.objects[path] = data
	return nil
}

func (m *memStore) Read(_ context.Context, path string) ([]byte, error) {
	return m.objects[path], nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]string, error) {
	var paths []string
	for p := range m.objects {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func (m *memStore) Delete(_ context.Context, path string) error {
	delete(m.objects, path)
	return nil
}

func (m *memStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

func sampleResult() *Result {
	return &Result{
		Strategy:       "ma_crossover",
		Symbol:         "NIFTY50",
		StartDate:      time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital: 100000,
		FinalCapital:   104500,
		TotalTrades:    12,
		WinningTrades:  7,
		LosingTrades:   5,
		TotalPnL:       4500,
		WinRate:        58.33,
	}
}

func TestWriter_Save(t *testing.T) {
	store := newMemStore()
	w := NewWriter(store, nil)
	w.now = func() time.Time {
		return time.Date(2023, 6, 15, 14, 30, 45, 0, time.UTC)
	}

	jsonPath, textPath, err := w.Save(context.Background(), sampleResult())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if jsonPath != "backtest_ma_crossover_20230615_143045.json" {
		t.Errorf("jsonPath = %q", jsonPath)
	}
	if textPath != "backtest_ma_crossover_20230615_143045.txt" {
		t.Errorf("textPath = %q", textPath)
	}

	var decoded Result
	if err := json.Unmarshal(store.objects[jsonPath], &decoded); err != nil {
		t.Fatalf("stored JSON invalid: %v", err)
	}
	if decoded.Strategy != "ma_crossover" || decoded.TotalPnL != 4500 {
		t.Errorf("stored result mismatch: %+v", decoded)
	}

	report := string(store.objects[textPath])
	for _, section := range []string{
		"BACKTEST RESULTS", "TRADE STATISTICS", "P&L METRICS",
		"COSTS", "RISK METRICS", "OTHER STATISTICS",
	} {
		if !strings.Contains(report, section) {
			t.Errorf("report missing section %q", section)
		}
	}
	if !strings.Contains(report, "Strategy:          ma_crossover") {
		t.Errorf("report missing strategy line:\n%s", report)
	}
}

func TestFormatReport_Values(t *testing.T) {
	report := FormatReport(sampleResult())

	for _, want := range []string{
		"Total Trades:      12",
		"Winning Trades:    7",
		"Win Rate:          58.33%",
		"Return:            4500.00 (4.50%)",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
