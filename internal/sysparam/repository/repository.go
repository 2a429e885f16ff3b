package repository

import "context"

// Repository reads runtime configuration values from the system_parameters table.
type Repository interface {
	// Get returns the value for key, or fallback when the key is missing.
	Get(ctx context.Context, key, fallback string) (string, error)
}
