package gormhook

import "errors"

// Sentinel errors for GORM integration
var (
	// ErrUnknownAssociation is returned when a model has no relationship with the given name
	ErrUnknownAssociation = errors.New("unknown association")

	// ErrNilOwner is returned when an association is read on a nil model
	ErrNilOwner = errors.New("owner cannot be nil")
)

// IsUnknownAssociation checks if an error is ErrUnknownAssociation
func IsUnknownAssociation(err error) bool {
	return errors.Is(err, ErrUnknownAssociation)
}
