package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/baely/banksync/pkg/model"
)

// Postgres is the postgres-backed transaction store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a postgres-backed store
func NewPostgres(user, password, host, port, dbname string) (*Postgres, error) {
	connString := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable", user, password, host, port, dbname)
	driver, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}
	return &Postgres{
		db: driver,
	}, nil
}

// EnsureSchema creates the transactions table if it does not exist
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS transaction_record (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		description TEXT NOT NULL,
		merchant_name TEXT NOT NULL DEFAULT '',
		amount NUMERIC(19,4) NOT NULL,
		currency TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		pending BOOLEAN NOT NULL DEFAULT FALSE
	)`
	_, err := p.db.ExecContext(ctx, q)
	return err
}

// Upsert inserts or replaces a transaction keyed by its provider ID
func (p *Postgres) Upsert(ctx context.Context, tx model.Transaction) error {
	q := `INSERT INTO transaction_record (id, account_id, date, description, merchant_name, amount, currency, category, pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			date = EXCLUDED.date,
			description = EXCLUDED.description,
			merchant_name = EXCLUDED.merchant_name,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			category = EXCLUDED.category,
			pending = EXCLUDED.pending`
	_, err := p.db.ExecContext(ctx, q,
		tx.ID, tx.AccountID, tx.Date, tx.Description, tx.MerchantName,
		tx.Amount.String(), tx.Currency, tx.Category, tx.Pending)
	return err
}

// RemoveByID deletes a transaction if present. Deleting an absent record is
// not an error.
func (p *Postgres) RemoveByID(ctx context.Context, id string) error {
	q := `DELETE FROM transaction_record WHERE id = $1`
	_, err := p.db.ExecContext(ctx, q, id)
	return err
}

// Close releases the underlying connection pool
func (p *Postgres) Close() error {
	return p.db.Close()
}
