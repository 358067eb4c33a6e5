package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeInvalidRestaurant = "INVALID_RESTAURANT"
	ErrCodeInvalidOfferType  = "INVALID_OFFER_TYPE"
	ErrCodeInvalidValue      = "INVALID_VALUE"
	ErrCodeInvalidSegments   = "INVALID_SEGMENTS"
	ErrCodeInvalidCartValue  = "INVALID_CART_VALUE"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Offer validation errors, reported in the order the rules are checked.
var (
	ErrInvalidRestaurant = NewDomainError(ErrCodeInvalidRestaurant, "Restaurant ID must be greater than zero")
	ErrInvalidOfferType  = NewDomainError(ErrCodeInvalidOfferType, "Offer type must be FLATX or FLATX%")
	ErrInvalidValue      = NewDomainError(ErrCodeInvalidValue, "Offer value must be greater than zero")
	ErrInvalidSegments   = NewDomainError(ErrCodeInvalidSegments, "At least one customer segment is required")
	ErrSegmentTooLong    = NewDomainError(ErrCodeInvalidSegments, "Customer segments must be at most 64 characters")
	ErrInvalidCartValue  = NewDomainError(ErrCodeInvalidCartValue, "Cart value must not be negative")
	ErrInvalidRequest    = NewDomainError(ErrCodeInvalidRequest, "Request body is required")
)
