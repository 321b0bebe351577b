package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Transport errors surfaced by the service clients
	ErrNetwork = fmt.Errorf("network request failed")
	ErrParse   = fmt.Errorf("unexpected response payload")

	// Relationship mutation errors
	ErrMutationFailed  = fmt.Errorf("relationship update failed")
	ErrPartialMutation = fmt.Errorf("relationship partially applied, records may disagree")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrInvalidTransition = fmt.Errorf("invalid relationship transition")
	ErrUnsupportedKind   = fmt.Errorf("unsupported media kind")
	ErrMissingArgument   = fmt.Errorf("missing required argument")

	// Persistence errors
	ErrNotFound = fmt.Errorf("record not found")
)
