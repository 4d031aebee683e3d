package recorder

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/model"
)

type dialect struct {
	name     string
	driver   string
	idColumn string
	float    string
	boolean  string
}

var (
	sqliteDialect   = dialect{"sqlite", "sqlite", "INTEGER PRIMARY KEY AUTOINCREMENT", "REAL", "INTEGER"}
	postgresDialect = dialect{"postgres", "postgres", "BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION", "BOOLEAN"}
)

// SQLRecorder persists screening history to SQLite or PostgreSQL.
type SQLRecorder struct {
	db      *sqlx.DB
	dialect dialect
	mu      sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLRecorder, error) {
	db, err := sqlx.Open(sqliteDialect.driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL lets dashboards read while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return openRecorder(db, sqliteDialect, dbPath)
}

// NewPostgresRecorder connects to PostgreSQL and runs migrations.
func NewPostgresRecorder(dsn string) (*SQLRecorder, error) {
	db, err := sqlx.Connect(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return openRecorder(db, postgresDialect, "postgres")
}

func openRecorder(db *sqlx.DB, d dialect, target string) (*SQLRecorder, error) {
	r := &SQLRecorder{db: db, dialect: d}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Named("recorder").Info("sql recorder opened",
		zap.String("dialect", d.name), zap.String("target", target))
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	d := r.dialect
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screen_runs (
			id          TEXT PRIMARY KEY,
			name        TEXT,
			mode        TEXT,
			as_of       TEXT NOT NULL,
			started_at  BIGINT NOT NULL,
			finished_at BIGINT,
			tickers     INTEGER,
			candidates  INTEGER,
			failures    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON screen_runs(started_at)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS screen_results (
			id              %[1]s,
			run_id          TEXT NOT NULL,
			symbol          TEXT NOT NULL,
			as_of           TEXT NOT NULL,
			mode            TEXT,
			signal          %[3]s,
			error           TEXT,
			current_price   %[2]s,
			sma50           %[2]s,
			sma150          %[2]s,
			sma200          %[2]s,
			trend_passed    %[3]s,
			volume_ratio    %[2]s,
			volume_passed   %[3]s,
			position_52w    %[2]s,
			position_passed %[3]s,
			pivot_good      %[3]s,
			support         %[2]s,
			resistance      %[2]s,
			correction_deep %[3]s,
			demand_dry      %[3]s,
			legs            INTEGER,
			footprint       TEXT,
			elapsed_ms      BIGINT
		)`, d.idColumn, d.float, d.boolean),
		`CREATE INDEX IF NOT EXISTS idx_results_run ON screen_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_symbol ON screen_results(symbol, as_of)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLRecorder) BeginRun(run *RunInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(r.db.Rebind(`INSERT INTO screen_runs
		(id, name, mode, as_of, started_at, tickers)
		VALUES (?,?,?,?,?,?)`),
		run.ID, run.Name, string(run.Mode), model.FormatDate(run.AsOf),
		run.StartedAt.Unix(), run.Tickers,
	)
	return err
}

// resultRow is one screen_results row.
type resultRow struct {
	RunID          string  `db:"run_id"`
	Symbol         string  `db:"symbol"`
	AsOf           string  `db:"as_of"`
	Mode           string  `db:"mode"`
	Signal         bool    `db:"signal"`
	Error          string  `db:"error"`
	CurrentPrice   float64 `db:"current_price"`
	SMA50          float64 `db:"sma50"`
	SMA150         float64 `db:"sma150"`
	SMA200         float64 `db:"sma200"`
	TrendPassed    bool    `db:"trend_passed"`
	VolumeRatio    float64 `db:"volume_ratio"`
	VolumePassed   bool    `db:"volume_passed"`
	Position52w    float64 `db:"position_52w"`
	PositionPassed bool    `db:"position_passed"`
	PivotGood      bool    `db:"pivot_good"`
	Support        float64 `db:"support"`
	Resistance     float64 `db:"resistance"`
	CorrectionDeep bool    `db:"correction_deep"`
	DemandDry      bool    `db:"demand_dry"`
	Legs           int     `db:"legs"`
	Footprint      string  `db:"footprint"`
	ElapsedMs      int64   `db:"elapsed_ms"`
}

const insertResult = `INSERT INTO screen_results
	(run_id, symbol, as_of, mode, signal, error, current_price,
	 sma50, sma150, sma200, trend_passed,
	 volume_ratio, volume_passed, position_52w, position_passed,
	 pivot_good, support, resistance, correction_deep, demand_dry,
	 legs, footprint, elapsed_ms)
	VALUES (:run_id, :symbol, :as_of, :mode, :signal, :error, :current_price,
	 :sma50, :sma150, :sma200, :trend_passed,
	 :volume_ratio, :volume_passed, :position_52w, :position_passed,
	 :pivot_good, :support, :resistance, :correction_deep, :demand_dry,
	 :legs, :footprint, :elapsed_ms)`

func (r *SQLRecorder) RecordResult(runID string, res *model.ScreenResult) error {
	footprint, err := json.Marshal(res.Footprint)
	if err != nil {
		return fmt.Errorf("encode footprint: %w", err)
	}
	current := res.Trend.CurrentPrice
	if current == 0 {
		current = res.Position.Current
	}
	row := resultRow{
		RunID:          runID,
		Symbol:         res.Symbol,
		AsOf:           model.FormatDate(res.AsOf),
		Mode:           string(res.Mode),
		Signal:         res.Signal,
		Error:          res.Error,
		CurrentPrice:   current,
		SMA50:          res.Trend.SMA50,
		SMA150:         res.Trend.SMA150,
		SMA200:         res.Trend.SMA200,
		TrendPassed:    res.Trend.Passed,
		VolumeRatio:    res.Volume.Ratio,
		VolumePassed:   res.Volume.Passed,
		Position52w:    res.Position.Position,
		PositionPassed: res.Position.Passed,
		PivotGood:      res.Pivot.Good,
		Support:        res.Pivot.Support,
		Resistance:     res.Pivot.Resistance,
		CorrectionDeep: res.CorrectionDeep,
		DemandDry:      res.DemandDry.IsDry,
		Legs:           len(res.Legs),
		Footprint:      string(footprint),
		ElapsedMs:      res.Elapsed.Milliseconds(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = r.db.NamedExec(insertResult, row)
	return err
}

func (r *SQLRecorder) FinishRun(run *RunInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(r.db.Rebind(`UPDATE screen_runs
		SET finished_at = ?, tickers = ?, candidates = ?, failures = ?
		WHERE id = ?`),
		run.FinishedAt.Unix(), run.Tickers, run.Candidates, run.Failures, run.ID,
	)
	return err
}

type candidateRow struct {
	RunID      string  `db:"run_id"`
	Symbol     string  `db:"symbol"`
	AsOf       string  `db:"as_of"`
	Mode       string  `db:"mode"`
	Price      float64 `db:"current_price"`
	Support    float64 `db:"support"`
	Resistance float64 `db:"resistance"`
	Position   float64 `db:"position_52w"`
	VolRatio   float64 `db:"volume_ratio"`
}

// LatestCandidates returns the signals of the most recent run that produced any.
func (r *SQLRecorder) LatestCandidates(limit int) ([]CandidateRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rows []candidateRow
	err := r.db.Select(&rows, r.db.Rebind(`SELECT res.run_id, res.symbol, res.as_of, res.mode,
			res.current_price, res.support, res.resistance, res.position_52w, res.volume_ratio
		FROM screen_results res
		WHERE res.signal AND res.run_id = (
			SELECT r2.run_id FROM screen_results r2
			JOIN screen_runs sr ON sr.id = r2.run_id
			WHERE r2.signal
			ORDER BY sr.started_at DESC LIMIT 1)
		ORDER BY res.symbol
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}

	out := make([]CandidateRow, 0, len(rows))
	for _, row := range rows {
		asOf, err := time.Parse(model.DateLayout, row.AsOf)
		if err != nil {
			return nil, err
		}
		out = append(out, CandidateRow{
			RunID:      row.RunID,
			Symbol:     row.Symbol,
			AsOf:       asOf,
			Mode:       model.ScreenMode(row.Mode),
			Price:      row.Price,
			Support:    row.Support,
			Resistance: row.Resistance,
			Position:   row.Position,
			VolRatio:   row.VolRatio,
		})
	}
	return out, nil
}

func (r *SQLRecorder) Close() error {
	logger.Named("recorder").Info("closing sql recorder", zap.String("dialect", r.dialect.name))
	return r.db.Close()
}
