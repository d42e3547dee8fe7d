package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the trading journal to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the status endpoint and ad-hoc queries read while the trader writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			horizon        TEXT NOT NULL,
			symbol         TEXT NOT NULL,
			baseline       REAL,
			latest         REAL,
			change_percent REAL,
			skipped        INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_ts ON evaluations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS executions (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			order_id          TEXT NOT NULL,
			exchange_order_id INTEGER,
			horizon           TEXT,
			side              TEXT,
			symbol            TEXT,
			quantity          REAL,
			reference_price   REAL,
			executed_qty      REAL,
			quote_qty         REAL,
			commission        REAL,
			commission_asset  TEXT,
			asset_delta       REAL,
			usdt_delta        REAL,
			asset_after       REAL,
			usdt_after        REAL,
			status            TEXT,
			error_class       TEXT,
			error             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_ts ON executions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS stop_events (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp          INTEGER NOT NULL,
			valuation          REAL,
			initial_investment REAL,
			balances           TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordEvaluation(evt *EvaluationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO evaluations
		(timestamp, horizon, symbol, baseline, latest, change_percent, skipped)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Horizon, evt.Symbol,
		evt.Baseline, evt.Latest, evt.ChangePercent, evt.Skipped,
	)
	return err
}

func (r *SQLiteRecorder) RecordExecution(evt *ExecutionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO executions
		(timestamp, order_id, exchange_order_id, horizon, side, symbol, quantity, reference_price,
		 executed_qty, quote_qty, commission, commission_asset,
		 asset_delta, usdt_delta, asset_after, usdt_after, status, error_class, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.OrderID, evt.ExchangeOrderID, evt.Horizon, evt.Side, evt.Symbol,
		evt.Quantity, evt.ReferencePrice, evt.ExecutedQty, evt.QuoteQty, evt.Commission, evt.CommissionAsset,
		evt.AssetDelta, evt.USDTDelta,
		evt.AssetAfter, evt.USDTAfter, evt.Status, evt.ErrorClass, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordStop(evt *StopEvent) error {
	balances, err := sonic.ConfigStd.MarshalToString(evt.Balances)
	if err != nil {
		return fmt.Errorf("encode balances: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO stop_events
		(timestamp, valuation, initial_investment, balances)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.Valuation, evt.InitialInvestment, balances,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
