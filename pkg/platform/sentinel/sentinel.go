package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Loaders and adapters return these
// (usually wrapped) so services can decide how to degrade.
//
// - ErrNotFound: the requested resource does not exist
// - ErrUnavailable: a backing resource (file, broker) cannot be reached right now
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
