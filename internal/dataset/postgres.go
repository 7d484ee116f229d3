package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crediview/crediview/internal/shared"
	"github.com/crediview/crediview/internal/titles"
)

const pgUndefinedTable = "42P01"

// PostgresLoader reads the title set from the analytical database.
type PostgresLoader struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresLoader builds a loader over the given pool. An empty table
// name defaults to "titles".
func NewPostgresLoader(pool *pgxpool.Pool, table string) *PostgresLoader {
	if table == "" {
		table = "titles"
	}
	return &PostgresLoader{pool: pool, table: table}
}

// Load selects every title row. Nullable dates come back absent, matching
// the optional-field schema of the domain type.
func (l *PostgresLoader) Load(ctx context.Context) ([]titles.Title, error) {
	query := fmt.Sprintf(`SELECT counterparty, branch, category, document_type,
		issue_date, due_date, payment_date, original_amount, outstanding_balance
		FROM %s`, l.table)
	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
			return nil, fmt.Errorf("%w: table %s does not exist", shared.ErrSourceUnavailable, l.table)
		}
		return nil, err
	}
	defer rows.Close()

	var set []titles.Title
	for rows.Next() {
		var (
			t       titles.Title
			issue   pgtype.Date
			due     pgtype.Date
			payment pgtype.Date
		)
		if err := rows.Scan(&t.Counterparty, &t.Branch, &t.Category, &t.DocumentType,
			&issue, &due, &payment, &t.OriginalAmount, &t.OutstandingBalance); err != nil {
			return nil, err
		}
		if issue.Valid {
			t.IssueDate = issue.Time
		}
		if due.Valid {
			d := due.Time
			t.DueDate = &d
		}
		if payment.Valid {
			p := payment.Time
			t.PaymentDate = &p
		}
		set = append(set, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
