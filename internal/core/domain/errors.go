package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrSweetNotFound      = errors.New("sweet not found")
	ErrSweetExists        = errors.New("sweet already exists")
	ErrOutOfStock         = errors.New("out of stock")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("access forbidden")
	ErrRoleElevation      = errors.New("admin role can only be granted by an admin")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrRevocationDisabled = errors.New("token revocation is not enabled")
)

// ValidationError is a client input failure carrying a message that is safe
// to return verbatim. It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Msg string
}

// Invalid returns a ValidationError with the given client-facing message.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ErrStockLimit is returned when a restock would overflow the stock counter.
var ErrStockLimit error = &ValidationError{Msg: "Restock would exceed the maximum stock level."}
