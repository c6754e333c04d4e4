package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"RSRadar/internal/logger"
	"RSRadar/internal/model"

	"go.uber.org/zap"
)

// SQLiteRecorder persists scan and spot history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so report queries can run while a scan is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_uuid     TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			model_version TEXT,
			symbol        TEXT NOT NULL,
			sector        TEXT,
			rank          INTEGER,
			composite     REAL,
			aligned       INTEGER,
			weekly_score  REAL,
			weekly_bias   INTEGER,
			daily_score   REAL,
			daily_bias    INTEGER,
			hourly_score  REAL,
			hourly_bias   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_symbol ON scans(symbol, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_uuid ON scans(scan_uuid)`,

		`CREATE TABLE IF NOT EXISTS sector_scores (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_uuid TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			sector    TEXT NOT NULL,
			score     REAL,
			members   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sector_ts ON sector_scores(timestamp)`,

		`CREATE TABLE IF NOT EXISTS watchlists (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_uuid TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			side      TEXT NOT NULL,
			composite REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlists_symbol ON watchlists(symbol)`,

		`CREATE TABLE IF NOT EXISTS spot_scans (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp             INTEGER NOT NULL,
			symbol                TEXT NOT NULL,
			sector                TEXT,
			price                 REAL,
			momentum              REAL,
			momentum_bias         INTEGER,
			momentum_aligned      INTEGER,
			weekly_atr            REAL,
			daily_atr             REAL,
			hourly_atr            REAL,
			daily_range_consumed  REAL,
			weekly_range_consumed REAL,
			rvol_daily            REAL,
			pct_from_day_high     REAL,
			pct_from_day_low      REAL,
			pct_from_20d_high     REAL,
			pct_from_20d_low      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spot_symbol ON spot_scans(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN to NULL so undefined metrics persist as null scores.
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// RecordScan writes one row per ranked symbol plus the sector rollup and
// the strong/weak watchlists, all stamped with the scan's uuid.
func (r *SQLiteRecorder) RecordScan(ranked *model.RankedUniverse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin scan tx: %w", err)
	}
	defer tx.Rollback()

	ts := ranked.Timestamp.Unix()
	for i, row := range ranked.Rows {
		tfCols := make(map[model.Timeframe][2]interface{})
		for _, tf := range []model.Timeframe{model.TimeframeWeekly, model.TimeframeDaily, model.TimeframeHourly} {
			if res, ok := row.Timeframes[tf]; ok {
				tfCols[tf] = [2]interface{}{nullable(res.Score), res.Bias}
			} else {
				tfCols[tf] = [2]interface{}{nil, nil}
			}
		}
		w, d, h := tfCols[model.TimeframeWeekly], tfCols[model.TimeframeDaily], tfCols[model.TimeframeHourly]

		if _, err := tx.Exec(`INSERT INTO scans
			(scan_uuid, timestamp, model_version, symbol, sector, rank, composite, aligned,
			 weekly_score, weekly_bias, daily_score, daily_bias, hourly_score, hourly_bias)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			ranked.ScanID, ts, ranked.ModelVersion, row.Symbol, row.Sector, i+1,
			nullable(row.Composite), row.Aligned,
			w[0], w[1], d[0], d[1], h[0], h[1],
		); err != nil {
			return fmt.Errorf("insert scan row %s: %w", row.Symbol, err)
		}
	}

	for _, sec := range ranked.Sectors {
		if _, err := tx.Exec(`INSERT INTO sector_scores
			(scan_uuid, timestamp, sector, score, members) VALUES (?,?,?,?,?)`,
			ranked.ScanID, ts, sec.Sector, nullable(sec.Score), sec.Members,
		); err != nil {
			return fmt.Errorf("insert sector %s: %w", sec.Sector, err)
		}
	}

	insertWatchlist := func(rows []model.SymbolScore, side string) error {
		for _, row := range rows {
			if _, err := tx.Exec(`INSERT INTO watchlists
				(scan_uuid, timestamp, symbol, side, composite) VALUES (?,?,?,?,?)`,
				ranked.ScanID, ts, row.Symbol, side, nullable(row.Composite),
			); err != nil {
				return fmt.Errorf("insert watchlist %s: %w", row.Symbol, err)
			}
		}
		return nil
	}
	if err := insertWatchlist(ranked.Strong, "STRONG"); err != nil {
		return err
	}
	if err := insertWatchlist(ranked.Weak, "WEAK"); err != nil {
		return err
	}

	return tx.Commit()
}

// RecordSpot writes one row per spot result.
func (r *SQLiteRecorder) RecordSpot(results []*model.SpotMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin spot tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range results {
		if _, err := tx.Exec(`INSERT INTO spot_scans
			(timestamp, symbol, sector, price, momentum, momentum_bias, momentum_aligned,
			 weekly_atr, daily_atr, hourly_atr, daily_range_consumed, weekly_range_consumed,
			 rvol_daily, pct_from_day_high, pct_from_day_low, pct_from_20d_high, pct_from_20d_low)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			m.Timestamp.Unix(), m.Symbol, m.Sector, nullable(m.Price),
			nullable(m.Momentum), m.MomentumBias, m.MomentumAligned,
			nullable(m.WeeklyATR), nullable(m.DailyATR), nullable(m.HourlyATR),
			nullable(m.DailyRangeConsumed), nullable(m.WeeklyRangeConsumed),
			nullable(m.RVolDaily),
			nullable(m.PctFromDayHigh), nullable(m.PctFromDayLow),
			nullable(m.PctFrom20DHigh), nullable(m.PctFrom20DLow),
		); err != nil {
			return fmt.Errorf("insert spot row %s: %w", m.Symbol, err)
		}
	}
	return tx.Commit()
}

// StockHistory returns the most recent scan entries for a symbol, newest first.
func (r *SQLiteRecorder) StockHistory(symbol string, limit int) ([]StockHistoryRow, error) {
	rows, err := r.db.Query(`SELECT timestamp, scan_uuid, composite, rank, aligned
		FROM scans WHERE symbol = ? AND composite IS NOT NULL
		ORDER BY timestamp DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query stock history: %w", err)
	}
	defer rows.Close()

	var out []StockHistoryRow
	for rows.Next() {
		var row StockHistoryRow
		var ts int64
		if err := rows.Scan(&ts, &row.ScanID, &row.Composite, &row.Rank, &row.Aligned); err != nil {
			return nil, fmt.Errorf("scan stock history: %w", err)
		}
		row.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

// RankingHistory pivots the composites of the last scans per symbol,
// columns oldest first, rows sorted by the most recent composite.
func (r *SQLiteRecorder) RankingHistory(scans int) (*RankingPivot, error) {
	scanRows, err := r.db.Query(`SELECT scan_uuid, MAX(timestamp) AS ts
		FROM scans GROUP BY scan_uuid ORDER BY ts DESC LIMIT ?`, scans)
	if err != nil {
		return nil, fmt.Errorf("query recent scans: %w", err)
	}
	defer scanRows.Close()

	var uuids []string
	var times []time.Time
	for scanRows.Next() {
		var uuid string
		var ts int64
		if err := scanRows.Scan(&uuid, &ts); err != nil {
			return nil, fmt.Errorf("scan recent scans: %w", err)
		}
		uuids = append(uuids, uuid)
		times = append(times, time.Unix(ts, 0).UTC())
	}
	if err := scanRows.Err(); err != nil {
		return nil, err
	}
	// newest-first → oldest-first
	for i, j := 0, len(uuids)-1; i < j; i, j = i+1, j-1 {
		uuids[i], uuids[j] = uuids[j], uuids[i]
		times[i], times[j] = times[j], times[i]
	}
	pivot := &RankingPivot{ScanTimes: times}
	if len(uuids) == 0 {
		return pivot, nil
	}

	col := make(map[string]int, len(uuids))
	args := make([]interface{}, len(uuids))
	marks := make([]string, len(uuids))
	for i, u := range uuids {
		col[u] = i
		args[i] = u
		marks[i] = "?"
	}
	rows, err := r.db.Query(`SELECT scan_uuid, symbol, composite FROM scans
		WHERE composite IS NOT NULL AND scan_uuid IN (`+strings.Join(marks, ",")+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query ranking history: %w", err)
	}
	defer rows.Close()

	bySymbol := make(map[string][]float64)
	for rows.Next() {
		var uuid, symbol string
		var composite float64
		if err := rows.Scan(&uuid, &symbol, &composite); err != nil {
			return nil, fmt.Errorf("scan ranking history: %w", err)
		}
		series, ok := bySymbol[symbol]
		if !ok {
			series = make([]float64, len(uuids))
			for i := range series {
				series[i] = math.NaN()
			}
			bySymbol[symbol] = series
		}
		series[col[uuid]] = composite
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for symbol, series := range bySymbol {
		pivot.Rows = append(pivot.Rows, RankingPivotRow{Symbol: symbol, Composites: series})
	}
	last := len(uuids) - 1
	sort.Slice(pivot.Rows, func(i, j int) bool {
		a, b := pivot.Rows[i].Composites[last], pivot.Rows[j].Composites[last]
		aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
		switch {
		case aNaN != bNaN:
			return !aNaN
		case !aNaN && a != b:
			return a > b
		default:
			return pivot.Rows[i].Symbol < pivot.Rows[j].Symbol
		}
	})
	return pivot, nil
}

// WatchlistFrequency counts watchlist appearances per symbol for one side
// ("STRONG" or "WEAK"), most frequent first.
func (r *SQLiteRecorder) WatchlistFrequency(side string, limit int) ([]WatchlistFreqRow, error) {
	rows, err := r.db.Query(`SELECT symbol, COUNT(*) AS n
		FROM watchlists WHERE side = ?
		GROUP BY symbol ORDER BY n DESC, symbol ASC LIMIT ?`, side, limit)
	if err != nil {
		return nil, fmt.Errorf("query watchlist frequency: %w", err)
	}
	defer rows.Close()

	var out []WatchlistFreqRow
	for rows.Next() {
		var row WatchlistFreqRow
		if err := rows.Scan(&row.Symbol, &row.Count); err != nil {
			return nil, fmt.Errorf("scan watchlist frequency: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SectorTrend returns the most recent sector rollup rows, newest first.
func (r *SQLiteRecorder) SectorTrend(limit int) ([]SectorTrendRow, error) {
	rows, err := r.db.Query(`SELECT timestamp, sector, score
		FROM sector_scores WHERE score IS NOT NULL
		ORDER BY timestamp DESC, score DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sector trend: %w", err)
	}
	defer rows.Close()

	var out []SectorTrendRow
	for rows.Next() {
		var row SectorTrendRow
		var ts int64
		if err := rows.Scan(&ts, &row.Sector, &row.Score); err != nil {
			return nil, fmt.Errorf("scan sector trend: %w", err)
		}
		row.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

// SectorChange compares each sector's latest score with its score from the
// most recent scan at least days old, biggest improvement first. Sectors
// with no scan that old come back with a NaN previous/delta.
func (r *SQLiteRecorder) SectorChange(days int) ([]SectorChangeRow, error) {
	var latest sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(timestamp) FROM sector_scores`).Scan(&latest); err != nil {
		return nil, fmt.Errorf("query latest sector scan: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}

	current, err := r.sectorScoresAt(latest.Int64)
	if err != nil {
		return nil, err
	}

	cutoff := latest.Int64 - int64(days)*86400
	var prevTS sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(timestamp) FROM sector_scores
		WHERE timestamp <= ? AND timestamp < ?`, cutoff, latest.Int64).Scan(&prevTS); err != nil {
		return nil, fmt.Errorf("query previous sector scan: %w", err)
	}
	previous := map[string]float64{}
	if prevTS.Valid {
		if previous, err = r.sectorScoresAt(prevTS.Int64); err != nil {
			return nil, err
		}
	}

	out := make([]SectorChangeRow, 0, len(current))
	for sector, score := range current {
		row := SectorChangeRow{Sector: sector, Current: score, Previous: math.NaN(), Delta: math.NaN()}
		if prev, ok := previous[sector]; ok {
			row.Previous = prev
			row.Delta = score - prev
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Delta, out[j].Delta
		aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
		switch {
		case aNaN != bNaN:
			return !aNaN
		case !aNaN && a != b:
			return a > b
		default:
			return out[i].Sector < out[j].Sector
		}
	})
	return out, nil
}

func (r *SQLiteRecorder) sectorScoresAt(ts int64) (map[string]float64, error) {
	rows, err := r.db.Query(`SELECT sector, score FROM sector_scores
		WHERE timestamp = ? AND score IS NOT NULL`, ts)
	if err != nil {
		return nil, fmt.Errorf("query sector scores: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var sector string
		var score float64
		if err := rows.Scan(&sector, &score); err != nil {
			return nil, fmt.Errorf("scan sector scores: %w", err)
		}
		out[sector] = score
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("closing sqlite recorder")
	return r.db.Close()
}
