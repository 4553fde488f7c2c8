package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrInvalidState) matches any INVALID_STATE error regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict   = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState          = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientInventory = NewDomainError("INSUFFICIENT_INVENTORY", "Insufficient inventory available")
)

// NewNotFoundError creates a NOT_FOUND error carrying the resource kind and key
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(ErrNotFound.Code, message)
}

// NewInvalidStateError creates an INVALID_STATE error with a specific message
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(ErrInvalidState.Code, message)
}

// NewInvalidInputError creates an INVALID_INPUT error with a specific message
func NewInvalidInputError(message string) *DomainError {
	return NewDomainError(ErrInvalidInput.Code, message)
}
