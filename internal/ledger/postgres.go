package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/preshare/internal/common"
	"github.com/dmitrijs2005/preshare/internal/dbx"
	"github.com/dmitrijs2005/preshare/internal/ledger/migrations"
)

// PostgresLedger stores ledger entries in a single PostgreSQL table. Per-key
// serialization of Update comes from SELECT ... FOR UPDATE row locks.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger opens the database, runs the embedded migrations, and
// returns a ready ledger.
func NewPostgresLedger(dsn string) (*PostgresLedger, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	l := &PostgresLedger{db: db}
	if err := l.runMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return l, nil
}

// NewPostgresLedgerWithDB wraps an existing connection without running
// migrations. Used by tests.
func NewPostgresLedgerWithDB(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.UpContext(ctx, l.db, ".")
}

func (l *PostgresLedger) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	query :=
		`INSERT INTO ledger_entries (key, value)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO NOTHING
		 `

	res, err := l.db.ExecContext(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("%w: db: %v", common.ErrUnavailable, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: db: %v", common.ErrUnavailable, err)
	}
	if affected == 0 {
		return common.ErrAlreadyExists
	}
	return nil
}

func (l *PostgresLedger) Get(ctx context.Context, key string) ([]byte, error) {
	query :=
		`SELECT value FROM ledger_entries
		 WHERE key = $1
		 `

	var value []byte
	err := l.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: db: %v", common.ErrUnavailable, err)
	}
	return value, nil
}

func (l *PostgresLedger) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var cur []byte
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM ledger_entries WHERE key = $1 FOR UPDATE`, key).Scan(&cur)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("%w: db: %v", common.ErrUnavailable, err)
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE ledger_entries SET value = $2, updated_at = now() WHERE key = $1`, key, next)
		if err != nil {
			return fmt.Errorf("%w: db: %v", common.ErrUnavailable, err)
		}
		return nil
	})
}

func (l *PostgresLedger) Close() error {
	return l.db.Close()
}
