// Package persistence provides the storage abstraction used by the
// recorder and the scheduler. Records are JSON-serializable values stored
// under string keys; the concrete medium is an external concern.
package persistence

import "context"

// Store is a generic key-value store for JSON-serializable records. Keys
// are slash-separated (e.g. "sessions/<id>", "schedules/<id>") so related
// records can be listed by prefix.
type Store interface {
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, out any) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
