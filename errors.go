package loom

import "errors"

var (
	// Store errors.
	ErrNoStore         = errors.New("loom: no store configured")
	ErrStoreClosed     = errors.New("loom: store closed")
	ErrMigrationFailed = errors.New("loom: migration failed")

	// Not found errors.
	ErrDefinitionNotFound = errors.New("loom: definition not found")
	ErrInstanceNotFound   = errors.New("loom: instance not found")

	// Validation errors.
	ErrValidation       = errors.New("loom: validation error")
	ErrInvalidLogLevel  = errors.New("loom: invalid log level")
	ErrMissingName      = errors.New("loom: definition missing name")
	ErrEmptyInjectionID = errors.New("loom: update requires a non-empty instance id")

	// State errors.
	ErrAlreadyCompleted = errors.New("loom: instance already completed")

	// Handler errors.
	ErrHandlerNotFound = errors.New("loom: handler not found")
	ErrHandlerInvalid  = errors.New("loom: handler is not callable")

	// Capability errors.
	ErrCapabilityUnsupported = errors.New("loom: operation unsupported by this backend")
)
