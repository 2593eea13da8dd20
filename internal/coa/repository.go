package coa

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists chart of accounts entries.
type Repository struct {
	pool     *pgxpool.Pool
	pageSize int
}

// NewRepository constructs a repo. pageSize bounds each paginated read.
func NewRepository(pool *pgxpool.Pool, pageSize int) *Repository {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Repository{pool: pool, pageSize: pageSize}
}

const accountColumns = `id, company_id, code, name, nature, classification, level, is_active, created_at, updated_at`

// ListByCompany loads the full chart for a company, looping over page limits
// until a short page signals the end.
func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]Account, error) {
	var accounts []Account
	offset := 0
	for {
		rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+`
FROM accounts WHERE company_id=$1 ORDER BY code ASC LIMIT $2 OFFSET $3`, companyID, r.pageSize, offset)
		if err != nil {
			return nil, err
		}
		page, err := scanAccounts(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, page...)
		if len(page) < r.pageSize {
			return accounts, nil
		}
		offset += r.pageSize
	}
}

// Get fetches one account by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

// Insert stores a new account.
func (r *Repository) Insert(ctx context.Context, acc Account) (Account, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO accounts (id, company_id, code, name, nature, classification, level, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING created_at, updated_at`,
		acc.ID, acc.CompanyID, acc.Code, acc.Name, nullableNature(acc.Nature), acc.Classification, acc.Level, acc.Active)
	if err := row.Scan(&acc.CreatedAt, &acc.UpdatedAt); err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_accounts_company_code" {
			return Account{}, ErrCodeTaken
		}
		return Account{}, err
	}
	return acc, nil
}

// SetActive toggles the active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccounts(rows pgx.Rows) ([]Account, error) {
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (Account, error) {
	var acc Account
	var nature *string
	err := row.Scan(&acc.ID, &acc.CompanyID, &acc.Code, &acc.Name, &nature, &acc.Classification,
		&acc.Level, &acc.Active, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	if nature != nil {
		acc.Nature = Nature(*nature)
	}
	return acc, nil
}

func nullableNature(n Nature) any {
	if n == "" {
		return nil
	}
	return string(n)
}
