package coa

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryPort abstracts chart persistence for the service.
type RepositoryPort interface {
	ListByCompany(ctx context.Context, companyID int64) ([]Account, error)
	Get(ctx context.Context, id uuid.UUID) (Account, error)
	Insert(ctx context.Context, acc Account) (Account, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// Service coordinates chart of accounts operations.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the registry service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the company chart sorted by code.
func (s *Service) List(ctx context.Context, companyID int64) ([]Account, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Hierarchy builds the code-indexed tree for a company.
func (s *Service) Hierarchy(ctx context.Context, companyID int64) (*Tree, error) {
	accounts, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return NewTree(accounts), nil
}

// Create validates input, normalises the code and derives the level before
// persisting. An empty code asks the registry to suggest the next child under
// the given parent.
func (s *Service) Create(ctx context.Context, input CreateAccountInput, parentCode string) (Account, error) {
	if err := input.Validate(); err != nil {
		return Account{}, err
	}
	code := NormalizeCode(input.Code)
	if input.Code == "" {
		existing, err := s.repo.ListByCompany(ctx, input.CompanyID)
		if err != nil {
			return Account{}, err
		}
		codes := make([]string, len(existing))
		for i, acc := range existing {
			codes[i] = acc.Code
		}
		code, err = SuggestNextChildCode(parentCode, codes)
		if err != nil {
			return Account{}, err
		}
	}
	acc := Account{
		ID:             uuid.New(),
		CompanyID:      input.CompanyID,
		Code:           code,
		Name:           input.Name,
		Nature:         input.Nature,
		Classification: input.Classification,
		Level:          DeriveLevel(code),
		Active:         true,
	}
	return s.repo.Insert(ctx, acc)
}

// Deactivate flags an account inactive. Movements referencing it remain valid;
// the store rejects hard deletes of referenced accounts.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}
