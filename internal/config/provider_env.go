package config

import (
	"context"
	"os"
)

// EnvVarProvider implements SecretProvider by treating each reference as the
// name of another environment variable. It lets a deployment point
// SUMMARY_API_KEY_SECRET_REF at whichever variable already holds the key
// (for example GEMINI_API_KEY).
type EnvVarProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvVarProvider creates a new EnvVarProvider backed by the process environment.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{lookup: os.LookupEnv}
}

// GetParametersBatch resolves each key via os.LookupEnv. Empty values count
// as missing.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := p.lookup(key); ok && val != "" {
			result[key] = val
		}
	}
	return result, nil
}
