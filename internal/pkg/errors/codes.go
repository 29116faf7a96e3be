package errors

import "fmt"

// Validation error codes.
const (
	CodeValidationFailed         = "VALIDATION_FAILED"
	CodeExceedsRemainingCapacity = "EXCEEDS_REMAINING_CAPACITY"
	CodeMissingStageAssignment   = "MISSING_STAGE_ASSIGNMENT"
	CodeImmutableField           = "IMMUTABLE_FIELD"
	CodeInvalidState             = "INVALID_STATE"
)

// Authorization error codes.
const (
	CodeForbidden      = "FORBIDDEN"
	CodeTenantMismatch = "TENANT_MISMATCH"
)

// Consistency error codes.
const (
	CodeNegativeAmount        = "NEGATIVE_AMOUNT"
	CodeCrossProjectReference = "CROSS_PROJECT_REFERENCE"
	CodeCostSourceBlocked     = "COST_SOURCE_BLOCKED"
)

// Lookup error codes.
const (
	CodeNotFound = "NOT_FOUND"
)

// Convenience constructors using predefined codes.

// ErrExceedsRemainingCapacityf reports the largest delta a ledger can still accept.
func ErrExceedsRemainingCapacityf(maxRegistrable float64) *AppError {
	return Validation(
		CodeExceedsRemainingCapacity,
		fmt.Sprintf("progress exceeds remaining capacity; maximum registrable is %.2f%%", maxRegistrable),
	).WithParams(map[string]interface{}{"max_registrable": maxRegistrable})
}

// ErrMissingStageAssignmentf reports a line that has no stage yet.
func ErrMissingStageAssignmentf(lineID string) *AppError {
	return Validation(
		CodeMissingStageAssignment,
		"budget line must be assigned to a stage before progress can be recorded",
	).WithParams(map[string]interface{}{"line_id": lineID})
}

// ErrForbiddenf reports an operation that needs director/admin privilege.
func ErrForbiddenf(operation string) *AppError {
	return Forbidden(CodeForbidden, "only a director or administrator may "+operation)
}

// ErrCrossProjectf reports a reference to an entity owned by another work.
func ErrCrossProjectf(entity, id string) *AppError {
	return Consistency(
		CodeCrossProjectReference,
		fmt.Sprintf("%s %s does not belong to this work", entity, id),
	).WithParams(map[string]interface{}{"entity": entity, "id": id})
}

// ErrNotFoundf reports a missing entity.
func ErrNotFoundf(entity, id string) *AppError {
	return NotFound(CodeNotFound, entity+" not found").
		WithParams(map[string]interface{}{"entity": entity, "id": id})
}
