package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrCompanyRequired indicates a missing company scope on a query.
	ErrCompanyRequired = errors.New("company required")
)
