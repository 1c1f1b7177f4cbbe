package curation

import (
	"fmt"
	"net/http"

	"github.com/x-consortia/donor-curator/internal/platform/remote"
)

// ValidationError is a field-level policy failure: age outside the
// de-identification rules, a selection outside its valueset, a
// non-numeric measurement. Surfaced as a form error, never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// lockedError is the refusal for donors with published datasets. It is the
// same contract the entity API enforces with a 403 on write; checking the
// descendants first gives the user the guidance before a doomed PUT.
func lockedError(donorID string) error {
	return &remote.Error{
		Kind:   remote.KindLocked,
		Status: http.StatusForbidden,
		Message: fmt.Sprintf("donor %s has published datasets and cannot be edited here; "+
			"export to TSV for manual update", donorID),
	}
}
