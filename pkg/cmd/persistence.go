// Package cmd holds construction helpers shared by the CLI entrypoints.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence/file"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence/postgres"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence/redis"
)

// NewStore builds a store from a database URL, choosing the backend by
// scheme. Anything without a recognized scheme is treated as a file path.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Store, error) {
	provider := parseProvider(databaseURL)

	logger.Debug("Creating store", "provider", provider)

	switch provider {
	case "redis":
		return redis.NewStore(databaseURL)
	case "postgres", "postgresql":
		return postgres.NewStore(ctx, databaseURL)
	default:
		return file.NewStore(databaseURL), nil
	}
}

func parseProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
