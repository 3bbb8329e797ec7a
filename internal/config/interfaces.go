package config

import "context"

// SecretProvider resolves secret references to plaintext values.
type SecretProvider interface {
	// GetParametersBatch resolves every key it can and returns key -> value.
	// Keys it cannot find are omitted from the result rather than reported
	// as an error.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
