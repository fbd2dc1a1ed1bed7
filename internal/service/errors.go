package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
)

// Error kinds surfaced by the pipeline. Specific errors below wrap exactly one kind so
// callers can branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrExpired           = errors.New("expired")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDelivery          = errors.New("delivery failed")
	// ErrStoreTimeout is fatal for configuration writes and never retried.
	ErrStoreTimeout = errors.New("store timeout")
)

var (
	ErrProgramNotFound     = fmt.Errorf("program %w", ErrNotFound)
	ErrNoActiveProgram     = fmt.Errorf("active program %w", ErrNotFound)
	ErrStageNotFound       = fmt.Errorf("stage %w", ErrNotFound)
	ErrQuestionNotFound    = fmt.Errorf("question %w", ErrNotFound)
	ErrProfileNotFound     = fmt.Errorf("simulation profile %w", ErrNotFound)
	ErrContentNotFound     = fmt.Errorf("content %w", ErrNotFound)
	ErrTemplateNotFound    = fmt.Errorf("email template %w", ErrNotFound)
	ErrCandidateNotFound   = fmt.Errorf("candidate %w", ErrNotFound)
	ErrResponseNotFound    = fmt.Errorf("response %w", ErrNotFound)
	ErrLinkNotFound        = fmt.Errorf("assessment link %w", ErrNotFound)
	ErrLinkExpired         = fmt.Errorf("assessment link %w", ErrExpired)
	ErrLinkRevoked         = fmt.Errorf("assessment link revoked: %w", ErrExpired)
	ErrDuplicateSlug       = fmt.Errorf("program slug already exists: %w", ErrConflict)
	ErrDuplicateStage      = fmt.Errorf("stage number already used in program: %w", ErrConflict)
	ErrDuplicateCandidate  = fmt.Errorf("candidate already applied: %w", ErrConflict)
	ErrConcurrentUpdate    = fmt.Errorf("candidate status changed concurrently: %w", ErrConflict)
	ErrTokenExhausted      = fmt.Errorf("could not allocate a unique token: %w", ErrConflict)
	ErrAttemptsExhausted   = fmt.Errorf("assessment attempts exhausted: %w", ErrConflict)
	ErrGradingIncomplete   = fmt.Errorf("responses awaiting manual grading: %w", ErrValidation)
	ErrGraderUnavailable   = errors.New("grading assistant not configured")
	ErrProgramMismatch     = fmt.Errorf("token does not belong to program: %w", ErrNotFound)
	ErrAssessmentNotActive = fmt.Errorf("assessment is not in progress: %w", ErrInvalidTransition)
	ErrAlreadyFinalized    = fmt.Errorf("assessment already finalized: %w", ErrConflict)
	ErrNotGradable         = fmt.Errorf("question is graded automatically: %w", ErrValidation)
)

// ValidationError describes malformed input rejected before any write.
type ValidationError struct {
	Fields map[string]string
	Reason string
}

// NewValidationError builds a validation error with a single reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// FieldError returns a validation error attributed to one field.
func FieldError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}, Reason: field + " " + reason}
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return "validation failed: " + e.Reason
	}
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+" "+reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidTransitionError reports a status change that the state machine does not allow.
type InvalidTransitionError struct {
	From models.CandidateStatus
	To   models.CandidateStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// DeliveryError wraps a failed notification send. It is logged, never returned from the
// pipeline operation it accompanies.
type DeliveryError struct {
	Template string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s email: %v", e.Template, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{ErrDelivery, e.Err} }

// validationFailure converts go-playground validator output into a ValidationError.
func validationFailure(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &ValidationError{Reason: err.Error()}
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		reason := fieldErr.Tag()
		if fieldErr.Param() != "" {
			reason += "=" + fieldErr.Param()
		}
		fields[fieldErr.Namespace()] = reason
	}
	return &ValidationError{Fields: fields}
}

// storeError maps repository failures onto the pipeline taxonomy. notFound is the
// specific error returned for missing rows; conflict the one for uniqueness violations.
func storeError(err, notFound, conflict error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	case errors.Is(err, repository.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, repository.ErrDuplicate) && conflict != nil:
		return conflict
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, repository.ErrStaleState):
		return ErrConcurrentUpdate
	default:
		return err
	}
}
