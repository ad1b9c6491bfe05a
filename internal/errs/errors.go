// Package errs defines the error taxonomy shared by every layer of the
// pipeline. Low-level clients classify their failures here so that callers can
// distinguish a misconfiguration from bad input from a degraded upstream
// service without matching on message strings.
package errs

import (
	"errors"
	"fmt"
)

// Upstream service names used in UpstreamError.Service.
const (
	ServiceEmbedding   = "embedding"
	ServiceGeneration  = "generation"
	ServiceVectorIndex = "vector index"
)

// ConfigError reports a missing or invalid configuration value, such as an
// absent API credential or index name.
type ConfigError struct {
	Name    string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Name, e.Message)
}

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// UpstreamError wraps a failure from an external capability (embedding,
// generation, or the vector index), preserving the original error for
// diagnosis and recording which service failed.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s service error: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream classifies err as a failure of the named service. If err is already
// an UpstreamError it is returned unchanged so the original stage is kept.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Service: service, Err: err}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
