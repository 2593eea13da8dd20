package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/contalibre/contalibre/internal/coa"
)

// Repository encapsulates DB operations for the ledger.
type Repository struct {
	pool     *pgxpool.Pool
	pageSize int
}

// NewRepository constructs a repo. pageSize bounds each paginated snapshot read.
func NewRepository(pool *pgxpool.Pool, pageSize int) *Repository {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Repository{pool: pool, pageSize: pageSize}
}

const entryColumns = `id, company_id, entry_date, entry_type, counterparty_id, cost_center_id, number, status, total_debit, total_credit, created_at, updated_at`
const movementColumns = `id, entry_id, account_id, debit, credit, description, position, budget_line_id, created_at, updated_at`

// WithTx runs fn inside a repeatable-read transaction. Entry state
// transitions are serialized per entry by the FOR UPDATE row lock taken in
// GetEntryForUpdate.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetEntry fetches an entry with its movements.
func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM movements WHERE entry_id=$1 ORDER BY position ASC`, id)
	if err != nil {
		return Entry{}, err
	}
	entry.Movements, err = scanMovements(rows)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ListEntries returns a page of entries ordered by number descending.
func (r *Repository) ListEntries(ctx context.Context, companyID int64, page, perPage int) ([]Entry, int, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE company_id=$1`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id=$1 ORDER BY number DESC, created_at DESC LIMIT $2 OFFSET $3`, companyID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// LoadSnapshot assembles the in-memory books for a company. Each collection
// is read with paginated queries looped until a short page; collections load
// concurrently since the pool is safe for concurrent use.
func (r *Repository) LoadSnapshot(ctx context.Context, companyID int64) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := r.loadAccounts(ctx, companyID)
		snap.Accounts = accounts
		return err
	})
	g.Go(func() error {
		entries, err := r.loadEntries(ctx, companyID)
		snap.Entries = entries
		return err
	})
	g.Go(func() error {
		movements, err := r.loadMovements(ctx, companyID)
		snap.Movements = movements
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (r *Repository) loadAccounts(ctx context.Context, companyID int64) ([]coa.Account, error) {
	var accounts []coa.Account
	offset := 0
	for {
		rows, err := r.pool.Query(ctx, `SELECT id, company_id, code, name, nature, classification, level, is_active, created_at, updated_at
FROM accounts WHERE company_id=$1 ORDER BY code ASC LIMIT $2 OFFSET $3`, companyID, r.pageSize, offset)
		if err != nil {
			return nil, err
		}
		page, err := scanSnapshotAccounts(rows)
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

func (r *Repository) loadEntries(ctx context.Context, companyID int64) ([]Entry, error) {
	var entries []Entry
	offset := 0
	for {
		rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id=$1 ORDER BY id ASC LIMIT $2 OFFSET $3`, companyID, r.pageSize, offset)
		if err != nil {
			return nil, err
		}
		page, err := scanEntries(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if len(page) < r.pageSize {
			return entries, nil
		}
		offset += r.pageSize
	}
}

func (r *Repository) loadMovements(ctx context.Context, companyID int64) ([]Movement, error) {
	var movements []Movement
	offset := 0
	for {
		rows, err := r.pool.Query(ctx, `SELECT m.id, m.entry_id, m.account_id, m.debit, m.credit, m.description, m.position, m.budget_line_id, m.created_at, m.updated_at
FROM movements m JOIN journal_entries e ON e.id = m.entry_id
WHERE e.company_id=$1 ORDER BY m.id ASC LIMIT $2 OFFSET $3`, companyID, r.pageSize, offset)
		if err != nil {
			return nil, err
		}
		page, err := scanMovements(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, page...)
		if len(page) < r.pageSize {
			return movements, nil
		}
		offset += r.pageSize
	}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (id, company_id, entry_date, entry_type, counterparty_id, cost_center_id, status, total_debit, total_credit)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at, updated_at`,
		e.ID, e.CompanyID, e.Date, e.Type, e.CounterpartyID, e.CostCenterID, e.Status, e.TotalDebit, e.TotalCredit)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (r *txRepository) InsertMovements(ctx context.Context, entryID uuid.UUID, movements []Movement) error {
	for _, m := range movements {
		if _, err := r.tx.Exec(ctx, `INSERT INTO movements (id, entry_id, account_id, debit, credit, description, position, budget_line_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, m.ID, entryID, m.AccountID, m.Debit, m.Credit, m.Description, m.Position, m.BudgetLineID); err != nil {
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "fk_movements_account" {
				return coa.ErrAccountNotFound
			}
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteMovements(ctx context.Context, entryID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM movements WHERE entry_id=$1`, entryID)
	return err
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) GetMovements(ctx context.Context, entryID uuid.UUID) ([]Movement, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+movementColumns+` FROM movements WHERE entry_id=$1 ORDER BY position ASC`, entryID)
	if err != nil {
		return nil, err
	}
	return scanMovements(rows)
}

func (r *txRepository) ReserveEntryNumber(ctx context.Context, companyID int64) (int64, error) {
	var number int64
	err := r.tx.QueryRow(ctx, `INSERT INTO entry_counters (company_id, last_number) VALUES ($1, 1)
ON CONFLICT (company_id) DO UPDATE SET last_number = entry_counters.last_number + 1
RETURNING last_number`, companyID).Scan(&number)
	return number, err
}

func (r *txRepository) MarkApplied(ctx context.Context, id uuid.UUID, number int64, totalDebit, totalCredit decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, number=$3, total_debit=$4, total_credit=$5, updated_at=NOW() WHERE id=$1`,
		id, StatusApplied, number, totalDebit, totalCredit)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, updated_at=NOW() WHERE id=$1`, id, StatusCancelled)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.CompanyID, &e.Date, &e.Type, &e.CounterpartyID, &e.CostCenterID,
		&e.Number, &e.Status, &e.TotalDebit, &e.TotalCredit, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.EntryID, &m.AccountID, &m.Debit, &m.Credit, &m.Description,
			&m.Position, &m.BudgetLineID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func scanSnapshotAccounts(rows pgx.Rows) ([]coa.Account, error) {
	defer rows.Close()
	var accounts []coa.Account
	for rows.Next() {
		var acc coa.Account
		var nature *string
		if err := rows.Scan(&acc.ID, &acc.CompanyID, &acc.Code, &acc.Name, &nature, &acc.Classification,
			&acc.Level, &acc.Active, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, err
		}
		if nature != nil {
			acc.Nature = coa.Nature(*nature)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}
