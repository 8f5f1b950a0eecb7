package quickapply

import (
	"errors"
	"sort"
	"strings"

	"quickapply-backend/internal/applications"
	"quickapply-backend/internal/jobs"
	"quickapply-backend/internal/shared/storage/artifact"
)

var (
	// ErrValidation indicates caller input that must be corrected before resubmitting.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates the target job does not exist.
	ErrNotFound = jobs.ErrNotFound

	// ErrStorage indicates the resume could not be stored.
	ErrStorage = artifact.ErrStorage

	// ErrPersistence indicates the application record could not be written.
	ErrPersistence = applications.ErrPersistence
)

// ValidationError lists the offending fields. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
