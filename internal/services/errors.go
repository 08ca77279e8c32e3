package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInput marks failures caused by a required local file or
	// script being absent. No external call is attempted for these.
	ErrMissingInput = errors.New("missing input")
	// ErrExternalTool marks non-zero exits from the packaging subprocess.
	ErrExternalTool = errors.New("external tool error")
	// ErrIO marks disk read/write failures.
	ErrIO = errors.New("io error")
	// ErrIntegrity marks checksum or size disagreements.
	ErrIntegrity = errors.New("integrity mismatch")
	// ErrDuplicateRelease marks a tag collision on the release host.
	ErrDuplicateRelease = errors.New("duplicate release")
	// ErrAuth marks missing or rejected credentials.
	ErrAuth = errors.New("auth error")
	// ErrNetwork marks transport failures against the release host.
	ErrNetwork = errors.New("network error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// ErrTimeout marks transport timeouts. It wraps ErrNetwork so callers that
// only care about the transport class can match either sentinel.
var ErrTimeout = fmt.Errorf("timeout: %w", ErrNetwork)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether the orchestrator may retry the operation that
// produced err. Only transport-level failures qualify; auth rejections,
// duplicate tags, and integrity mismatches will not improve on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrDuplicateRelease) || errors.Is(err, ErrIntegrity) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, ErrNetwork)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
