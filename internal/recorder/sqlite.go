package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"SignalSentinel/internal/model"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists signal records to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the API can read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "sqlite").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id               TEXT PRIMARY KEY,
			symbol           TEXT NOT NULL,
			interval_minutes INTEGER NOT NULL,
			strategy_id      TEXT NOT NULL,
			kind             TEXT NOT NULL,
			reason           TEXT,
			entry_price      REAL NOT NULL,
			emitted_at       INTEGER NOT NULL,
			result           TEXT,
			exit_price       REAL,
			pnl              REAL,
			verified_at      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_emitted ON signals(emitted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_pending ON signals(result, emitted_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_signals_bar ON signals(strategy_id, emitted_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

const signalColumns = `id, symbol, interval_minutes, strategy_id, kind, reason, entry_price,
	emitted_at, result, exit_price, pnl, verified_at`

func (r *SQLiteRecorder) RecordSignal(ctx context.Context, rec model.SignalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// either the id or the (strategy_id, emitted_at) index may conflict
	res, err := r.db.ExecContext(ctx, `INSERT INTO signals
		(id, symbol, interval_minutes, strategy_id, kind, reason, entry_price, emitted_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT DO NOTHING`,
		rec.ID, rec.Symbol, rec.IntervalMinutes, rec.StrategyID,
		string(rec.Kind), rec.Reason, rec.EntryPrice, rec.EmittedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert signal %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert signal %s: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("signal %s: %w", rec.ID, model.ErrDuplicateSignal)
	}
	return nil
}

func (r *SQLiteRecorder) GetSignal(ctx context.Context, id string) (model.SignalRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+signalColumns+` FROM signals WHERE id = ?`, id)
	rec, err := scanSignal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SignalRecord{}, fmt.Errorf("signal %s: %w", id, model.ErrNotFound)
	}
	return rec, err
}

func (r *SQLiteRecorder) OldestPending(ctx context.Context) (model.SignalRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+signalColumns+` FROM signals
		WHERE result IS NULL ORDER BY emitted_at ASC, id ASC LIMIT 1`)
	rec, err := scanSignal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SignalRecord{}, fmt.Errorf("pending signal: %w", model.ErrNotFound)
	}
	return rec, err
}

func (r *SQLiteRecorder) ListSignals(ctx context.Context, f Filter) ([]model.SignalRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.PendingOnly {
		where = append(where, "result IS NULL")
	}

	q := `SELECT ` + signalColumns + ` FROM signals`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY emitted_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	var out []model.SignalRecord
	for rows.Next() {
		rec, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ResolveSignal writes the terminal fields only if the row is still pending.
func (r *SQLiteRecorder) ResolveSignal(ctx context.Context, rec model.SignalRecord) error {
	if err := terminal(rec); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `UPDATE signals
		SET result = ?, exit_price = ?, pnl = ?, verified_at = ?
		WHERE id = ? AND result IS NULL`,
		string(rec.Result), rec.ExitPrice, rec.PnL, rec.VerifiedAt.UnixNano(), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("resolve signal %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve signal %s: %w", rec.ID, err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals WHERE id = ?`, rec.ID).Scan(&exists); err != nil {
		return fmt.Errorf("resolve signal %s: %w", rec.ID, err)
	}
	if exists == 0 {
		return fmt.Errorf("signal %s: %w", rec.ID, model.ErrNotFound)
	}
	return fmt.Errorf("signal %s: %w", rec.ID, model.ErrAlreadyResolved)
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSignal(s scanner) (model.SignalRecord, error) {
	var (
		rec        model.SignalRecord
		kind       string
		reason     sql.NullString
		emitted    int64
		result     sql.NullString
		exitPrice  sql.NullFloat64
		pnl        sql.NullFloat64
		verifiedAt sql.NullInt64
	)
	err := s.Scan(&rec.ID, &rec.Symbol, &rec.IntervalMinutes, &rec.StrategyID, &kind, &reason,
		&rec.EntryPrice, &emitted, &result, &exitPrice, &pnl, &verifiedAt)
	if err != nil {
		return model.SignalRecord{}, err
	}
	rec.Kind = model.SignalKind(kind)
	rec.Reason = reason.String
	rec.EmittedAt = time.Unix(0, emitted).UTC()
	rec.Result = model.Result(result.String)
	rec.ExitPrice = exitPrice.Float64
	rec.PnL = pnl.Float64
	if verifiedAt.Valid {
		rec.VerifiedAt = time.Unix(0, verifiedAt.Int64).UTC()
	}
	return rec, nil
}
