package core

import "fmt"

var (
	// ErrBaselineNotFound is returned when no baseline document has been
	// created yet.
	ErrBaselineNotFound = fmt.Errorf("baseline not found")

	// ErrBaselineExists is returned when attempting to overwrite the
	// create-once baseline document.
	ErrBaselineExists = fmt.Errorf("baseline already exists")

	// ErrExperimentNotFound is returned for operations on an unknown
	// experiment id.
	ErrExperimentNotFound = fmt.Errorf("experiment not found")
)
