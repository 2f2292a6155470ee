package services

import "errors"

// Shared error taxonomy, mapped to HTTP statuses in the handlers layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules.
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrDeadlineExpired      = errors.New("registration deadline has passed")
	ErrEventFull            = errors.New("event has reached its maximum number of participants")
	ErrAlreadyRegistered    = errors.New("student is already registered for this event")
	ErrTeamNameRequired     = errors.New("team name is required for team events")
	ErrTeamSizeViolation    = errors.New("team size is outside the allowed bounds")
	ErrMissingRequiredField = errors.New("required form field is missing or empty")

	// Event validation.
	ErrEventNameRequired      = errors.New("event name is required")
	ErrEventInvalidCategory   = errors.New("invalid event category")
	ErrEventInvalidDepartment = errors.New("invalid event department")
	ErrEventInvalidFees       = errors.New("event fees must not be negative")
	ErrEventInvalidTeamBounds = errors.New("min team size must be positive and not exceed max team size")
	ErrEventInvalidCapacity   = errors.New("event max participants must be positive")
	ErrEventInvalidMaxSem     = errors.New("max semester must be between 1 and 8 and requires semester control")

	// Poster uploads.
	ErrPosterStorageDisabled = errors.New("poster storage is not configured")
	ErrUnsupportedPosterType = errors.New("poster must be an image")

	// Authentication and authorization.
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific not-founds (more context than the generic ErrNotFound).
	ErrUserNotFound         = errors.New("user not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
)
