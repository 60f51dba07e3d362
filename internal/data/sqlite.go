package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/karanvs/vega/internal/core"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const barsSchema = `
CREATE TABLE IF NOT EXISTS historical_bars (
    symbol    TEXT    NOT NULL,
    interval  TEXT    NOT NULL,
    ts        INTEGER NOT NULL,
    open      REAL    NOT NULL,
    high      REAL    NOT NULL,
    low       REAL    NOT NULL,
    close     REAL    NOT NULL,
    volume    INTEGER NOT NULL,
    PRIMARY KEY (symbol, interval, ts)
);
CREATE INDEX IF NOT EXISTS idx_bars_symbol_ts ON historical_bars (symbol, ts);
`

// SQLiteProvider loads bars from a local SQLite database. It doubles as
// the ingest path: SaveBars upserts downloaded history into the same
// table Load reads from.
type SQLiteProvider struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLiteProvider opens (or creates) the database at path and ensures
// the bars schema exists.
func NewSQLiteProvider(path string, log *zap.Logger) (*SQLiteProvider, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(barsSchema); err != nil {
		_ = db.Close()
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}

	return &SQLiteProvider{db: db, log: log}, nil
}

// Close closes the underlying database.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// SaveBars upserts bars for later replay. Duplicate (symbol, interval,
// timestamp) rows are overwritten, so re-ingesting a range is safe.
func (p *SQLiteProvider) SaveBars(ctx context.Context, bars []core.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO historical_bars (symbol, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, interval, ts) DO UPDATE SET
		    open=excluded.open,
		    high=excluded.high,
		    low=excluded.low,
		    close=excluded.close,
		    volume=excluded.volume`)
	if err != nil {
		_ = tx.Rollback()
		return core.WrapError(core.ErrStoreFailed, err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.Symbol, b.Interval, b.Time.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			_ = tx.Rollback()
			return core.WrapError(core.ErrStoreFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}

	p.log.Debug("bars ingested", zap.Int("count", len(bars)))
	return nil
}

// Load returns bars for the symbol and interval within [start, end]
// inclusive, ascending. No rows yields no bars, not an error.
func (p *SQLiteProvider) Load(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Bar, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM historical_bars
		WHERE symbol = ? AND interval = ? AND ts BETWEEN ? AND ?
		ORDER BY ts ASC`,
		symbol, interval, start.Unix(), end.Unix())
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	var bars []core.Bar
	for rows.Next() {
		var ts int64
		b := core.Bar{Symbol: symbol, Interval: interval}
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		b.Time = time.Unix(ts, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}

	return bars, nil
}
