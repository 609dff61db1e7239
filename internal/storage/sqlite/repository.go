// Package sqlite persists the card collection in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"wallet/internal/core"
	applog "wallet/internal/log"
	"wallet/internal/storage"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ storage.Store = (*Repository)(nil)

// NewRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps writes serialized inside the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements storage.Store.
func (r *Repository) Load(ctx context.Context) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, point_value, default_multiplier FROM cards ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	index := map[string]int{}
	for rows.Next() {
		c := core.Card{Multipliers: map[string]float64{}}
		if err := rows.Scan(&c.Name, &c.PointValue, &c.DefaultMultiplier); err != nil {
			return nil, fmt.Errorf("%w: scan card: %v", storage.ErrCorrupt, err)
		}
		index[c.Name] = len(cards)
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}

	mrows, err := r.db.QueryContext(ctx,
		`SELECT card_name, category, multiplier FROM card_multipliers`)
	if err != nil {
		return nil, fmt.Errorf("query multipliers: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var (
			name, category string
			mult           float64
		)
		if err := mrows.Scan(&name, &category, &mult); err != nil {
			return nil, fmt.Errorf("%w: scan multiplier: %v", storage.ErrCorrupt, err)
		}
		i, ok := index[name]
		if !ok {
			slog.WarnContext(ctx, "Orphan multiplier row ignored",
				applog.FieldCardName, name,
				applog.FieldCategory, category,
				applog.FieldComponent, applog.ComponentStorage)
			continue
		}
		cards[i].Multipliers[category] = mult
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate multipliers: %w", err)
	}

	return cards, nil
}

// Save implements storage.Store. All rows are replaced in one transaction.
func (r *Repository) Save(ctx context.Context, cards []core.Card) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM card_multipliers`); err != nil {
		return fmt.Errorf("clear multipliers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}

	cardStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cards (name, position, point_value, default_multiplier) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare card insert: %w", err)
	}
	defer cardStmt.Close()

	multStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO card_multipliers (card_name, category, multiplier) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare multiplier insert: %w", err)
	}
	defer multStmt.Close()

	for i, c := range cards {
		if _, err := cardStmt.ExecContext(ctx, c.Name, i, c.PointValue, c.DefaultMultiplier); err != nil {
			return fmt.Errorf("insert card %s: %w", c.Name, err)
		}
		for category, mult := range c.Multipliers {
			if _, err := multStmt.ExecContext(ctx, c.Name, category, mult); err != nil {
				return fmt.Errorf("insert multiplier %s/%s: %w", c.Name, category, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "Cards saved to SQLite", "count", len(cards))
	return nil
}
