package redis

import "errors"

// Sentinel errors for the findings store
var (
	// ErrStoreDisabled is returned when attempting operations on a disabled store
	ErrStoreDisabled = errors.New("findings store is disabled")

	// ErrClientNotInitialized is returned when the Redis client is nil
	ErrClientNotInitialized = errors.New("redis client not initialized")

	// ErrKeyNotFound is returned when a stored summary doesn't exist
	ErrKeyNotFound = errors.New("summary not found")

	// ErrConnectionFailed is returned when Redis connection cannot be established
	ErrConnectionFailed = errors.New("redis connection failed")

	// ErrSerializationFailed is returned when msgpack encoding/decoding fails
	ErrSerializationFailed = errors.New("summary serialization failed")
)

// IsStoreDisabled checks if an error is ErrStoreDisabled
func IsStoreDisabled(err error) bool {
	return errors.Is(err, ErrStoreDisabled)
}

// IsKeyNotFound checks if an error is ErrKeyNotFound
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsConnectionFailed checks if an error is ErrConnectionFailed
func IsConnectionFailed(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}
