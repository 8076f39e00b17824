package purchases

import "errors"

// Purchase error taxonomy. Handlers map these to HTTP status with errors.Is:
// validation errors (400) are fixed by changing the request, conflict errors
// (409) by re-querying availability, transient conflicts (503) by retrying
// the same request unchanged, not-found (404) is fatal to the request.
var (
	ErrProjectNotFound   = errors.New("Project not found")
	ErrUserNotFound      = errors.New("User not found")
	ErrProjectClosed     = errors.New("Project is closed for investment")
	ErrInvalidQuantity   = errors.New("Stock quantity must be at least 1")
	ErrInsufficientStock = errors.New("Not enough stocks available")
	ErrLimitExceeded     = errors.New("Purchase would exceed your stock limit for this project")
	ErrTransientConflict = errors.New("Purchase could not be completed right now, please retry")
)
