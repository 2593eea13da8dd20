package budget

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contalibre/contalibre/internal/coa"
)

// Repository persists budget lines.
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

const lineColumns = `id, company_id, account_id, counterparty_id, cost_center_id, concept, quantity, unit_price, starts_at, ends_at, frequency, is_active, position, created_at, updated_at`

// ListByCompany returns all budget lines for a company ordered by position.
func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]Line, error) {
	var lines []Line
	offset := 0
	for {
		rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+` FROM budget_lines
WHERE company_id=$1 ORDER BY position ASC, created_at ASC LIMIT $2 OFFSET $3`, companyID, r.pageSize, offset)
		if err != nil {
			return nil, err
		}
		page, err := scanLines(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, page...)
		if len(page) < r.pageSize {
			return lines, nil
		}
		offset += r.pageSize
	}
}

// Get fetches a single line.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Line, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+lineColumns+` FROM budget_lines WHERE id=$1`, id)
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, ErrLineNotFound
		}
		return Line{}, err
	}
	return line, nil
}

// Insert stores a new line.
func (r *Repository) Insert(ctx context.Context, line Line) (Line, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_lines (id, company_id, account_id, counterparty_id, cost_center_id, concept, quantity, unit_price, starts_at, ends_at, frequency, is_active, position)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING created_at, updated_at`,
		line.ID, line.CompanyID, line.AccountID, line.CounterpartyID, line.CostCenterID, line.Concept,
		line.Quantity, line.UnitPrice, line.Start, line.End, line.Frequency, line.Active, line.Position)
	if err := row.Scan(&line.CreatedAt, &line.UpdatedAt); err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "fk_budget_lines_account" {
			return Line{}, coa.ErrAccountNotFound
		}
		return Line{}, err
	}
	return line, nil
}

// SetActive flips a line's active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budget_lines SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

// Reorder updates display positions in one statement per line.
func (r *Repository) Reorder(ctx context.Context, positions map[uuid.UUID]int) error {
	for id, position := range positions {
		cmd, err := r.pool.Exec(ctx, `UPDATE budget_lines SET position=$2, updated_at=NOW() WHERE id=$1`, id, position)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrLineNotFound
		}
	}
	return nil
}

func scanLines(rows pgx.Rows) ([]Line, error) {
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.CompanyID, &l.AccountID, &l.CounterpartyID, &l.CostCenterID, &l.Concept,
		&l.Quantity, &l.UnitPrice, &l.Start, &l.End, &l.Frequency, &l.Active, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Line{}, err
	}
	return l, nil
}
