package coa

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rubro enumerates top-level statement classifications.
type Rubro string

const (
	RubroAsset     Rubro = "ASSET"
	RubroLiability Rubro = "LIABILITY"
	RubroEquity    Rubro = "EQUITY"
	RubroRevenue   Rubro = "REVENUE"
	RubroCost      Rubro = "COST"
	RubroExpense   Rubro = "EXPENSE"
	RubroOther     Rubro = "OTHER"
)

// Rubros lists every classification in statement order.
var Rubros = []Rubro{
	RubroAsset, RubroLiability, RubroEquity,
	RubroRevenue, RubroCost, RubroExpense, RubroOther,
}

// Nature enumerates which side of a movement increases an account's balance.
type Nature string

const (
	NatureDebit  Nature = "DEBIT"
	NatureCredit Nature = "CREDIT"
)

// Classification separates accounts that receive movements from grouping rows.
type Classification string

const (
	// ClassificationPosting marks accounts that may directly receive movements.
	ClassificationPosting Classification = "POSTING"
	// ClassificationHeader marks accounts used only for hierarchical display.
	// Posting to a header account is an upstream contract violation; the
	// engine does not re-validate it.
	ClassificationHeader Classification = "HEADER"
)

// Account models a chart of accounts node.
type Account struct {
	ID             uuid.UUID
	CompanyID      int64
	Code           string
	Name           string
	Nature         Nature
	Classification Classification
	Level          int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPosting reports whether the account may receive movements directly.
func (a Account) IsPosting() bool {
	return a.Classification == ClassificationPosting
}

var (
	// ErrAccountNotFound indicates a missing chart entry.
	ErrAccountNotFound = errors.New("coa: account not found")
	// ErrLeafSegment indicates a code at the deepest segment cannot take children.
	ErrLeafSegment = errors.New("coa: level 4 codes cannot take children")
	// ErrSegmentExhausted indicates the next sibling numeral would exceed 999.
	ErrSegmentExhausted = errors.New("coa: segment numerals exhausted")
	// ErrCodeTaken indicates a duplicate code within a company.
	ErrCodeTaken = errors.New("coa: code already in use")
)

// CreateAccountInput captures the fields needed to add a chart entry.
type CreateAccountInput struct {
	CompanyID      int64
	Code           string
	Name           string
	Nature         Nature
	Classification Classification
}

// Validate ensures account input meets minimum criteria.
func (in CreateAccountInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("coa: company required")
	}
	if in.Name == "" {
		return errors.New("coa: name required")
	}
	switch in.Nature {
	case NatureDebit, NatureCredit, "":
	default:
		return errors.New("coa: invalid nature")
	}
	switch in.Classification {
	case ClassificationPosting, ClassificationHeader:
	default:
		return errors.New("coa: invalid classification")
	}
	return nil
}
