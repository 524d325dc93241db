package progress

import "errors"

var (
	// ErrNoStorage is returned when a Store is opened without a KV.
	ErrNoStorage = errors.New("no storage configured")
)
