package budget

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/shared"
)

// Frequency is the recurrence rule of a budget line.
type Frequency string

const (
	FrequencyWeekly     Frequency = "WEEKLY"
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyBimonthly  Frequency = "BIMONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiannual Frequency = "SEMIANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
)

// PeriodMonths returns the recurrence period in months, or zero for weekly
// which repeats inside a single month.
func (f Frequency) PeriodMonths() int {
	switch f {
	case FrequencyBimonthly:
		return 2
	case FrequencyQuarterly:
		return 3
	case FrequencySemiannual:
		return 6
	case FrequencyAnnual:
		return 12
	default:
		return 0
	}
}

// Valid reports whether the frequency is one of the recognized values.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyBimonthly, FrequencyQuarterly, FrequencySemiannual, FrequencyAnnual:
		return true
	}
	return false
}

// ExecutionStatus buckets a line by realized percentage.
type ExecutionStatus string

const (
	StatusOverrun  ExecutionStatus = "OVERRUN"
	StatusWarning  ExecutionStatus = "WARNING"
	StatusOnTrack  ExecutionStatus = "ON_TRACK"
	StatusInactive ExecutionStatus = "INACTIVE"
)

// Line is one budgeted concept tied to an account, optionally windowed and
// recurring.
type Line struct {
	ID             uuid.UUID
	CompanyID      int64
	AccountID      uuid.UUID
	CounterpartyID *int64
	CostCenterID   *int64
	Concept        string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	Start          *time.Time
	End            *time.Time
	Frequency      Frequency
	Active         bool
	Position       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Budgeted is the line's planned amount per occurrence.
func (l Line) Budgeted() decimal.Decimal {
	return shared.Round2(l.Quantity.Mul(l.UnitPrice))
}

var (
	// ErrLineNotFound indicates a missing budget line.
	ErrLineNotFound = errors.New("budget: line not found")
	// ErrInvalidFrequency indicates an unrecognized recurrence rule.
	ErrInvalidFrequency = errors.New("budget: invalid frequency")
	// ErrInvalidWindow indicates end before start.
	ErrInvalidWindow = errors.New("budget: validity window end precedes start")
)

// CreateLineInput groups fields for opening a budget line.
type CreateLineInput struct {
	CompanyID      int64
	AccountID      uuid.UUID
	CounterpartyID *int64
	CostCenterID   *int64
	Concept        string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	Start          *time.Time
	End            *time.Time
	Frequency      Frequency
	Position       int
}

// Validate checks structural input constraints.
func (in CreateLineInput) Validate() error {
	if in.CompanyID == 0 {
		return shared.ErrCompanyRequired
	}
	if in.AccountID == uuid.Nil {
		return errors.New("budget: account required")
	}
	if !in.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if in.Start != nil && in.End != nil && in.End.Before(*in.Start) {
		return ErrInvalidWindow
	}
	if in.Quantity.IsNegative() || in.UnitPrice.IsNegative() {
		return errors.New("budget: negative amounts not allowed")
	}
	return nil
}
