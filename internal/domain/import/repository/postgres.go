package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
	"github.com/FACorreiaa/statement-ingest/internal/domain/transaction"
)

// DB is the subset of *pgxpool.Pool used by PostgresRepository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository implements TransactionRepository on PostgreSQL.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertTransactionsSQL = `
	INSERT INTO transactions (fingerprint, user_id, date, amount_cents, description, category, simplified_description)
	SELECT * FROM unnest($1::text[], $2::text[], $3::date[], $4::bigint[], $5::text[], $6::text[], $7::text[])
	ON CONFLICT (fingerprint) DO NOTHING`

// InsertMany writes all rows in one unordered statement.
func (r *PostgresRepository) InsertMany(ctx context.Context, rows []transaction.Transaction) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var (
		fingerprints = make([]string, len(rows))
		users        = make([]string, len(rows))
		dates        = make([]time.Time, len(rows))
		amounts      = make([]int64, len(rows))
		descriptions = make([]string, len(rows))
		categories   = make([]string, len(rows))
		simplified   = make([]string, len(rows))
	)
	for i, t := range rows {
		fingerprints[i] = t.Fingerprint
		users[i] = t.UserID
		dates[i] = t.Date
		amounts[i] = t.AmountCents
		descriptions[i] = t.Description
		categories[i] = t.Category
		simplified[i] = t.SimplifiedDescription
	}

	tag, err := r.db.Exec(ctx, insertTransactionsSQL,
		fingerprints,
		users,
		dates,
		amounts,
		descriptions,
		categories,
		simplified,
	)
	if err != nil {
		return 0, &ingesterr.PersistenceError{Op: "insert", Err: err}
	}
	return int(tag.RowsAffected()), nil
}

const findByUserSQL = `
	SELECT fingerprint, user_id, date, amount_cents, description, category, simplified_description
	FROM transactions
	WHERE user_id = $1
	ORDER BY date, fingerprint`

func (r *PostgresRepository) FindByUser(ctx context.Context, userID string) ([]transaction.Transaction, error) {
	rows, err := r.db.Query(ctx, findByUserSQL, userID)
	if err != nil {
		return nil, &ingesterr.PersistenceError{Op: "find", Err: err}
	}
	defer rows.Close()

	var out []transaction.Transaction
	for rows.Next() {
		var t transaction.Transaction
		if err := rows.Scan(
			&t.Fingerprint,
			&t.UserID,
			&t.Date,
			&t.AmountCents,
			&t.Description,
			&t.Category,
			&t.SimplifiedDescription,
		); err != nil {
			return nil, &ingesterr.PersistenceError{Op: "scan", Err: err}
		}
		t.Date = t.Date.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &ingesterr.PersistenceError{Op: "find", Err: err}
	}
	return out, nil
}
