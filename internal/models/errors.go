package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation marks bad input; no state was changed.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownPerson is returned when a button press names nobody we know.
	ErrUnknownPerson = fmt.Errorf("%w: unknown person", ErrValidation)
	// ErrConsistency means a mutation would break a ledger invariant and was refused.
	ErrConsistency = errors.New("consistency violation")
	// ErrConflict is a transient write conflict; the transaction may be retried.
	ErrConflict = errors.New("write conflict")
	ErrNotFound = errors.New("not found")
)

// ValidationErrors maps a field name to the problem with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrValidation }
