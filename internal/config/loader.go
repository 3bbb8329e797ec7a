// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone.
//  2. Load .env files via godotenv (the default .env is optional).
//  3. Resolve *_SECRET_REF indirections through the SecretProvider.
//  4. Use envconfig to populate the Config struct.
//  5. Populate BuildInfo from linker-injected variables.
//  6. Validate the struct using go-playground/validator.
package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is the diagnostic error type returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// secretRefSuffix marks variables whose value names a secret to resolve.
// SUMMARY_API_KEY_SECRET_REF=GEMINI_API_KEY fills SUMMARY_API_KEY.
const secretRefSuffix = "_SECRET_REF"

const secretResolveTimeout = 10 * time.Second

// loaderDeps holds the injectable environment accessors.
type loaderDeps struct {
	lookupEnv  func(key string) (string, bool)
	setEnv     func(key, value string) error
	environ    func() []string
	loadDotenv func(filenames ...string) error
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv:  os.LookupEnv,
		setEnv:     os.Setenv,
		environ:    os.Environ,
		loadDotenv: godotenv.Load,
	}
}

// LoadConfig loads and validates the configuration.
//
// With no envFiles, a .env in the working directory is loaded when present.
// Explicitly named envFiles must exist. Dotenv values never override
// variables already set in the process environment.
//
// provider resolves *_SECRET_REF variables; it may be nil when none are set.
func LoadConfig(provider SecretProvider, envFiles ...string) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps(), envFiles...)
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps, envFiles ...string) (*Config, error) {
	time.Local = time.UTC

	if len(envFiles) == 0 {
		_ = deps.loadDotenv()
	} else if err := deps.loadDotenv(envFiles...); err != nil {
		return nil, &ConfigError{
			Type:    ErrMissingEnv,
			Message: fmt.Sprintf("failed to load env files %s", strings.Join(envFiles, ", ")),
			Err:     err,
		}
	}

	if err := resolveSecretRefs(provider, deps); err != nil {
		return nil, err
	}

	// The empty prefix makes envconfig honour the exact tag names.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}

// resolveSecretRefs scans the environment for *_SECRET_REF variables, fetches
// the referenced values through provider and sets the target variables.
// A target already present in the environment wins over its reference.
func resolveSecretRefs(provider SecretProvider, deps loaderDeps) error {
	refToTarget := make(map[string]string)
	var targets []string

	for _, entry := range deps.environ() {
		eq := strings.IndexByte(entry, '=')
		if eq < 0 {
			continue
		}
		key, ref := entry[:eq], entry[eq+1:]
		if !strings.HasSuffix(key, secretRefSuffix) || ref == "" {
			continue
		}
		target := strings.TrimSuffix(key, secretRefSuffix)
		if v, exists := deps.lookupEnv(target); exists && v != "" {
			continue
		}
		refToTarget[ref] = target
		targets = append(targets, target)
	}

	if len(refToTarget) == 0 {
		return nil
	}
	sort.Strings(targets)

	if provider == nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("a SecretProvider is required to resolve: %s", strings.Join(targets, ", ")),
		}
	}

	refs := make([]string, 0, len(refToTarget))
	for ref := range refToTarget {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	ctx, cancel := context.WithTimeout(context.Background(), secretResolveTimeout)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, refs)
	if err != nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("failed to resolve %d secret references", len(refs)),
			Err:     err,
		}
	}

	var missing []string
	for _, ref := range refs {
		target := refToTarget[ref]
		value, ok := resolved[ref]
		if !ok {
			missing = append(missing, target)
			continue
		}
		if err := deps.setEnv(target, value); err != nil {
			return &ConfigError{
				Type:    ErrSecretResolution,
				Message: fmt.Sprintf("failed to set resolved value for %s", target),
				Err:     err,
			}
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("secret references not found for: %s", strings.Join(missing, ", ")),
		}
	}

	return nil
}
