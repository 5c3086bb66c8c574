// Package sqlite implements the ports.TradeRepository interface on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/aurumbot.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from
	// limiting connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "trade history database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trade_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		volume REAL NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		profit_usd REAL NOT NULL,
		close_reason TEXT NOT NULL,
		mode TEXT NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trade_history_symbol_closed
		ON trade_history (symbol, closed_at DESC);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreateTrade saves a new trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trade_history
		(ticket, symbol, direction, volume, entry_price, exit_price, profit_usd, close_reason, mode, opened_at, closed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		trade.Ticket, trade.Symbol, string(trade.Direction), trade.Volume,
		trade.EntryPrice, trade.ExitPrice, trade.ProfitUSD,
		string(trade.Reason), string(trade.Mode), trade.OpenedAt, trade.ClosedAt)
	if err != nil {
		r.logger.Error(ctx, err, "failed to insert trade", map[string]interface{}{"ticket": trade.Ticket})
		return 0, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return id, nil
}

// FindBySymbol retrieves the most recent trades for a symbol, up to a limit.
func (r *Repository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Trade, error) {
	const query = `
	SELECT id, ticket, symbol, direction, volume, entry_price, exit_price, profit_usd, close_reason, mode, opened_at, closed_at
	FROM trade_history
	WHERE symbol = ?
	ORDER BY closed_at DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return trades, nil
}

// CountTodayBySymbol counts the trades closed today for a symbol.
func (r *Repository) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	const query = `
	SELECT COUNT(*)
	FROM trade_history
	WHERE symbol = ? AND date(closed_at) = date('now')`

	var count int
	if err := r.db.QueryRowContext(ctx, query, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return count, nil
}

// TotalProfitBySymbol sums realized profit across all stored trades.
func (r *Repository) TotalProfitBySymbol(ctx context.Context, symbol string) (float64, error) {
	const query = `SELECT COALESCE(SUM(profit_usd), 0) FROM trade_history WHERE symbol = ?`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, symbol).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return total, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(s scanner) (domain.Trade, error) {
	var t domain.Trade
	var direction, reason, mode string
	if err := s.Scan(&t.ID, &t.Ticket, &t.Symbol, &direction, &t.Volume,
		&t.EntryPrice, &t.ExitPrice, &t.ProfitUSD, &reason, &mode,
		&t.OpenedAt, &t.ClosedAt); err != nil {
		return domain.Trade{}, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	t.Direction = domain.Direction(direction)
	t.Reason = domain.CloseReason(reason)
	t.Mode = domain.Mode(mode)
	return t, nil
}
