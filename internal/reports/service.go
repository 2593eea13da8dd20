package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/ledger"
)

// SnapshotSource provides the in-memory books a report run computes against.
type SnapshotSource interface {
	Snapshot(ctx context.Context, companyID int64) (ledger.Snapshot, error)
}

// Service composes the financial statements, memoized per company and period
// behind the versioned cache.
type Service struct {
	source SnapshotSource
	cache  *Cache
}

// NewService constructs the reports service. A nil cache disables memoization.
func NewService(source SnapshotSource, cache *Cache) *Service {
	return &Service{source: source, cache: cache}
}

func periodToken(t *time.Time) string {
	if t == nil {
		return "open"
	}
	return t.Format("2006-01-02")
}

func (s *Service) compute(ctx context.Context, companyID int64, periodStart *time.Time, periodEnd time.Time) (*coa.Tree, []ledger.Balance, error) {
	snap, err := s.source.Snapshot(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	balances := ledger.ComputeBalances(snap.Accounts, snap.Entries, snap.Movements, periodStart, periodEnd)
	return coa.NewTree(snap.Accounts), balances, nil
}

// Balances exposes the raw balance run for callers that need account detail.
func (s *Service) Balances(ctx context.Context, companyID int64, periodStart *time.Time, periodEnd time.Time) ([]ledger.Balance, error) {
	_, balances, err := s.compute(ctx, companyID, periodStart, periodEnd)
	return balances, err
}

// TrialBalance builds the filtered trial balance for the period.
func (s *Service) TrialBalance(ctx context.Context, companyID int64, periodStart *time.Time, periodEnd time.Time, filter TrialBalanceFilter) (TrialBalance, error) {
	base := keyReport("tb", companyID, periodToken(periodStart), periodToken(&periodEnd))
	key, err := s.cache.BuildKey(ctx, base, fmt.Sprintf("l%d", filter.MaxLevel), fmt.Sprintf("nz%t", filter.OnlyNonZero))
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (interface{}, error) {
		tree, balances, err := s.compute(ctx, companyID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(tree, balances, filter), nil
	})
	return tb, err
}

// BalanceSheet builds the balance sheet as of the period.
func (s *Service) BalanceSheet(ctx context.Context, companyID int64, periodStart *time.Time, periodEnd time.Time) (BalanceSheet, error) {
	key, err := s.cache.BuildKey(ctx, keyReport("bs", companyID, periodToken(periodStart), periodToken(&periodEnd)))
	if err != nil {
		return BalanceSheet{}, err
	}
	var bs BalanceSheet
	err = s.cache.FetchJSON(ctx, key, &bs, func(ctx context.Context) (interface{}, error) {
		tree, balances, err := s.compute(ctx, companyID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(BuildRollup(tree, balances)), nil
	})
	return bs, err
}

// IncomeStatement builds the income statement for the period.
func (s *Service) IncomeStatement(ctx context.Context, companyID int64, periodStart *time.Time, periodEnd time.Time) (IncomeStatement, error) {
	key, err := s.cache.BuildKey(ctx, keyReport("is", companyID, periodToken(periodStart), periodToken(&periodEnd)))
	if err != nil {
		return IncomeStatement{}, err
	}
	var is IncomeStatement
	err = s.cache.FetchJSON(ctx, key, &is, func(ctx context.Context) (interface{}, error) {
		tree, balances, err := s.compute(ctx, companyID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		return BuildIncomeStatement(BuildRollup(tree, balances)), nil
	})
	return is, err
}

// CashFlow builds the indirect cash flow for the period.
func (s *Service) CashFlow(ctx context.Context, companyID int64, periodStart *time.Time, periodEnd time.Time) (CashFlow, error) {
	key, err := s.cache.BuildKey(ctx, keyReport("cf", companyID, periodToken(periodStart), periodToken(&periodEnd)))
	if err != nil {
		return CashFlow{}, err
	}
	var cf CashFlow
	err = s.cache.FetchJSON(ctx, key, &cf, func(ctx context.Context) (interface{}, error) {
		tree, balances, err := s.compute(ctx, companyID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		is := BuildIncomeStatement(BuildRollup(tree, balances))
		return BuildCashFlow(tree, balances, is.NetProfit), nil
	})
	return cf, err
}

// Warm precomputes the statement set for a period so the first interactive
// request hits warm cache. Used by the background warmup job.
func (s *Service) Warm(ctx context.Context, companyID int64, periodStart *time.Time, periodEnd time.Time) error {
	if _, err := s.TrialBalance(ctx, companyID, periodStart, periodEnd, TrialBalanceFilter{}); err != nil {
		return err
	}
	if _, err := s.BalanceSheet(ctx, companyID, periodStart, periodEnd); err != nil {
		return err
	}
	if _, err := s.IncomeStatement(ctx, companyID, periodStart, periodEnd); err != nil {
		return err
	}
	_, err := s.CashFlow(ctx, companyID, periodStart, periodEnd)
	return err
}
