package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at dbPath and
// ensures the schema exists.
func OpenSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer; serializing through one connection
	// avoids SQLITE_BUSY between the monitor and the command layer.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			target_price REAL NOT NULL,
			condition TEXT NOT NULL,
			triggered INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS portfolio_holdings (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			amount REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			metric_name TEXT PRIMARY KEY,
			metric_value REAL NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateAlert(ctx context.Context, alert types.Alert) (types.Alert, error) {
	alert.ID = uuid.NewString()
	alert.Symbol = strings.ToUpper(alert.Symbol)
	alert.Triggered = false
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO alerts (id, chat_id, symbol, target_price, condition, triggered, created_at)
	VALUES (?, ?, ?, ?, ?, 0, ?);`

	_, err := s.db.ExecContext(ctx, query,
		alert.ID, int64(alert.ChatID), alert.Symbol, alert.TargetPrice, string(alert.Condition), alert.CreatedAt)
	if err != nil {
		return types.Alert{}, fmt.Errorf("failed to insert alert: %w", err)
	}
	return alert, nil
}

func (s *SQLite) ListActiveAlerts(ctx context.Context) ([]types.Alert, error) {
	query := `
	SELECT id, chat_id, symbol, target_price, condition, triggered, created_at
	FROM alerts WHERE triggered = 0;`

	return s.queryAlerts(ctx, query)
}

func (s *SQLite) ListAlertsByChat(ctx context.Context, chatID types.ChatID) ([]types.Alert, error) {
	query := `
	SELECT id, chat_id, symbol, target_price, condition, triggered, created_at
	FROM alerts WHERE chat_id = ? ORDER BY created_at;`

	return s.queryAlerts(ctx, query, int64(chatID))
}

func (s *SQLite) queryAlerts(ctx context.Context, query string, args ...any) ([]types.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var (
			a         types.Alert
			chatID    int64
			condition string
		)
		if err := rows.Scan(&a.ID, &chatID, &a.Symbol, &a.TargetPrice, &condition, &a.Triggered, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		a.ChatID = types.ChatID(chatID)
		a.Condition = types.Condition(condition)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertTriggered commits the one-way active -> triggered transition.
// The WHERE clause is the compare-and-set: a second call, or a call for an
// id that no longer exists, updates zero rows and returns nil.
func (s *SQLite) MarkAlertTriggered(ctx context.Context, id string) error {
	query := `UPDATE alerts SET triggered = 1 WHERE id = ? AND triggered = 0;`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	return nil
}

func (s *SQLite) RemoveAlert(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) ListHoldings(ctx context.Context, chatID types.ChatID) ([]types.PortfolioHolding, error) {
	query := `SELECT id, chat_id, symbol, amount FROM portfolio_holdings WHERE chat_id = ?;`

	rows, err := s.db.QueryContext(ctx, query, int64(chatID))
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []types.PortfolioHolding
	for rows.Next() {
		var (
			h      types.PortfolioHolding
			chatID int64
		)
		if err := rows.Scan(&h.ID, &chatID, &h.Symbol, &h.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan holding row: %w", err)
		}
		h.ChatID = types.ChatID(chatID)
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (s *SQLite) AddHolding(ctx context.Context, holding types.PortfolioHolding) (types.PortfolioHolding, error) {
	holding.ID = uuid.NewString()
	holding.Symbol = strings.ToUpper(holding.Symbol)

	query := `INSERT INTO portfolio_holdings (id, chat_id, symbol, amount) VALUES (?, ?, ?, ?);`
	_, err := s.db.ExecContext(ctx, query, holding.ID, int64(holding.ChatID), holding.Symbol, holding.Amount)
	if err != nil {
		return types.PortfolioHolding{}, fmt.Errorf("failed to insert holding: %w", err)
	}
	return holding, nil
}

func (s *SQLite) RemoveHolding(ctx context.Context, chatID types.ChatID, symbol string) (bool, error) {
	query := `DELETE FROM portfolio_holdings WHERE chat_id = ? AND symbol = ?;`
	res, err := s.db.ExecContext(ctx, query, int64(chatID), strings.ToUpper(symbol))
	if err != nil {
		return false, fmt.Errorf("failed to delete holding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) SaveMetric(ctx context.Context, name string, value float64) error {
	query := `INSERT OR REPLACE INTO metrics (metric_name, metric_value) VALUES (?, ?);`
	if _, err := s.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to save metric: %w", err)
	}
	return nil
}

func (s *SQLite) GetMetric(ctx context.Context, name string) (float64, error) {
	var value float64
	query := `SELECT metric_value FROM metrics WHERE metric_name = ?;`
	err := s.db.QueryRowContext(ctx, query, name).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get metric %s: %w", name, err)
	}
	return value, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
