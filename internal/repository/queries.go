package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/armyverse/army-number-service/internal/domain"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same queries run
// standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type ClaimParams struct {
	Number        string
	Tier          domain.Tier
	OwnerName     string
	OwnerEmail    string
	Phone         string
	Price         float64
	TransactionID string
	PurchasedAt   time.Time
	IssueDate     time.Time
}

type ListParams struct {
	Search string
	Limit  int
	Offset int
}

const numberColumns = `number, status, tier, owner_name, owner_email, phone, price, transaction_id, purchased_at, issue_date`

// ClaimNumber is the single-winner write: a conditional insert that affects
// zero rows when the number is already sold. Callers must treat zero rows as
// a conflict, never as an error.
func (q *Queries) ClaimNumber(ctx context.Context, arg ClaimParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO army_numbers (`+numberColumns+`)
		VALUES ($1, 'sold', $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (number) DO NOTHING`,
		arg.Number, arg.Tier, arg.OwnerName, arg.OwnerEmail, arg.Phone,
		arg.Price, arg.TransactionID, arg.PurchasedAt, arg.IssueDate,
	)
	if err != nil {
		return 0, fmt.Errorf("claim number: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) GetNumber(ctx context.Context, number string) (domain.ArmyNumber, error) {
	row := q.db.QueryRow(ctx, `SELECT `+numberColumns+` FROM army_numbers WHERE number = $1`, number)
	return scanNumber(row)
}

func (q *Queries) DeleteNumber(ctx context.Context, number string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM army_numbers WHERE number = $1`, number)
	if err != nil {
		return 0, fmt.Errorf("delete number: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListSold(ctx context.Context, arg ListParams) ([]domain.ArmyNumber, error) {
	pattern := "%" + arg.Search + "%"
	rows, err := q.db.Query(ctx, `
		SELECT `+numberColumns+` FROM army_numbers
		WHERE $1 = '' OR number LIKE $2 OR owner_name ILIKE $2 OR owner_email ILIKE $2
		ORDER BY purchased_at DESC
		LIMIT $3 OFFSET $4`,
		arg.Search, pattern, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list sold: %w", err)
	}
	defer rows.Close()
	return scanNumbers(rows)
}

func (q *Queries) CountSold(ctx context.Context, search string) (int64, error) {
	pattern := "%" + search + "%"
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM army_numbers
		WHERE $1 = '' OR number LIKE $2 OR owner_name ILIKE $2 OR owner_email ILIKE $2`,
		search, pattern,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sold: %w", err)
	}
	return count, nil
}

func (q *Queries) ListByOwnerEmail(ctx context.Context, email string) ([]domain.ArmyNumber, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+numberColumns+` FROM army_numbers
		WHERE LOWER(owner_email) = LOWER($1)
		ORDER BY purchased_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("list by owner email: %w", err)
	}
	defer rows.Close()
	return scanNumbers(rows)
}

func (q *Queries) EmailInUse(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM army_numbers WHERE LOWER(owner_email) = LOWER($1))`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email in use: %w", err)
	}
	return exists, nil
}

const (
	settingPricing = "pricing"
	settingEvent   = "launch_event"
)

func (q *Queries) GetSetting(ctx context.Context, key string, out any) error {
	var raw []byte
	err := q.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get setting %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}
	return nil
}

func (q *Queries) PutSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	_, err = q.db.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, raw,
	)
	if err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func scanNumber(row pgx.Row) (domain.ArmyNumber, error) {
	var n domain.ArmyNumber
	err := row.Scan(
		&n.Number, &n.Status, &n.Tier, &n.OwnerName, &n.OwnerEmail, &n.Phone,
		&n.Price, &n.TransactionID, &n.PurchasedAt, &n.IssueDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ArmyNumber{}, domain.ErrNotFound
		}
		return domain.ArmyNumber{}, fmt.Errorf("scan number: %w", err)
	}
	return n, nil
}

func scanNumbers(rows pgx.Rows) ([]domain.ArmyNumber, error) {
	var out []domain.ArmyNumber
	for rows.Next() {
		n, err := scanNumber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate numbers: %w", err)
	}
	return out, nil
}
