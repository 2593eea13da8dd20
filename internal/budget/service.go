package budget

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/ledger"
)

// RepositoryPort abstracts budget line persistence.
type RepositoryPort interface {
	ListByCompany(ctx context.Context, companyID int64) ([]Line, error)
	Get(ctx context.Context, id uuid.UUID) (Line, error)
	Insert(ctx context.Context, line Line) (Line, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Reorder(ctx context.Context, positions map[uuid.UUID]int) error
}

// SnapshotSource provides the books needed to match budget against reality.
type SnapshotSource interface {
	Snapshot(ctx context.Context, companyID int64) (ledger.Snapshot, error)
}

// Service coordinates budget line management, execution matching and
// projection.
type Service struct {
	repo   RepositoryPort
	source SnapshotSource
	now    func() time.Time
}

// NewService constructs the budget service.
func NewService(repo RepositoryPort, source SnapshotSource) *Service {
	return &Service{repo: repo, source: source, now: time.Now}
}

// List returns a company's budget lines in display order.
func (s *Service) List(ctx context.Context, companyID int64) ([]Line, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// Create opens a new budget line.
func (s *Service) Create(ctx context.Context, input CreateLineInput) (Line, error) {
	if err := input.Validate(); err != nil {
		return Line{}, err
	}
	line := Line{
		ID:             uuid.New(),
		CompanyID:      input.CompanyID,
		AccountID:      input.AccountID,
		CounterpartyID: input.CounterpartyID,
		CostCenterID:   input.CostCenterID,
		Concept:        input.Concept,
		Quantity:       input.Quantity,
		UnitPrice:      input.UnitPrice,
		Start:          input.Start,
		End:            input.End,
		Frequency:      input.Frequency,
		Active:         true,
		Position:       input.Position,
	}
	return s.repo.Insert(ctx, line)
}

// SetActive flips a line's active flag.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// Reorder persists a drag-reordered display sequence.
func (s *Service) Reorder(ctx context.Context, positions map[uuid.UUID]int) error {
	return s.repo.Reorder(ctx, positions)
}

// Execution matches every line against realized movements.
func (s *Service) Execution(ctx context.Context, companyID int64) ([]Execution, error) {
	lines, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	snap, err := s.source.Snapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return MatchExecution(lines, coa.NewTree(snap.Accounts), snap.Entries, snap.Movements), nil
}

// Projection distributes the company's lines across the requested years.
func (s *Service) Projection(ctx context.Context, companyID int64, years []int) (Projection, error) {
	lines, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return Projection{}, err
	}
	snap, err := s.source.Snapshot(ctx, companyID)
	if err != nil {
		return Projection{}, err
	}
	return Project(lines, coa.NewTree(snap.Accounts), years), nil
}
