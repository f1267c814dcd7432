package association

import "errors"

// Sentinel errors for association tracking misuse
var (
	// ErrContextUnderflow is returned when leaving an association that was never entered
	ErrContextUnderflow = errors.New("association context underflow")

	// ErrNoActiveRequest is returned when a request has ended or was never started
	ErrNoActiveRequest = errors.New("no active request")

	// ErrDuplicateStart is returned when starting a request while one is already active
	ErrDuplicateStart = errors.New("request already active")

	// ErrUnbalancedContext is returned when a request ends with associations still entered
	ErrUnbalancedContext = errors.New("unbalanced association context")

	// ErrInvalidAssociation is returned for an empty owner type or association name
	ErrInvalidAssociation = errors.New("invalid association")

	// ErrDetectionDisabled is returned when reading a report that is not enabled
	ErrDetectionDisabled = errors.New("detection disabled")
)

// IsContextUnderflow checks if an error is ErrContextUnderflow
func IsContextUnderflow(err error) bool {
	return errors.Is(err, ErrContextUnderflow)
}

// IsNoActiveRequest checks if an error is ErrNoActiveRequest
func IsNoActiveRequest(err error) bool {
	return errors.Is(err, ErrNoActiveRequest)
}

// IsDuplicateStart checks if an error is ErrDuplicateStart
func IsDuplicateStart(err error) bool {
	return errors.Is(err, ErrDuplicateStart)
}
