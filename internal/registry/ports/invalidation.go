package ports

import "context"

// Invalidator drops the registry index so the next search rebuilds it.
// source names the origin of the request ("http", "redis", "cli") and is used
// as a log field and metric label.
//
// The service implements it directly; the Redis broadcaster wraps it so a
// local invalidation is also announced to other instances.
type Invalidator interface {
	Invalidate(ctx context.Context, source string)
}
