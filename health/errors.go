package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrPoolTooLarge indicates a pool reached its critical size.
	ErrPoolTooLarge = errors.New("health: pool exceeds critical size")
)
