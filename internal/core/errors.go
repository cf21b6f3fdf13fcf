package core

import (
	"errors"
	"strings"
)

// Error kinds shared across the pipeline. Stages return these wrapped with
// diagnostic context; the orchestrator converts any of them into a Failed job.
var (
	// ErrProviderFailure indicates an external provider returned an error
	// or an empty result.
	ErrProviderFailure = errors.New("provider failure")
	// ErrNotFound indicates a job or artifact was missing when expected.
	ErrNotFound = errors.New("not found")
	// ErrNotConfigured indicates an external provider is missing
	// credentials or endpoint configuration, detected at call time.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrQuotaExhausted indicates a provider-side rate or quota signal.
	// Retrying immediately against an exhausted quota is wasted work, so
	// callers surface it distinctly from ErrProviderFailure.
	ErrQuotaExhausted = errors.New("provider quota exhausted")
	// ErrTimeout indicates a stage exceeded its time budget.
	ErrTimeout = errors.New("stage timed out")
	// ErrSignatureMismatch indicates a payment callback carried an invalid
	// signature.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Markers providers embed in quota/rate-limit error payloads.
var quotaMarkers = []string{
	"quota",
	"rate limit",
	"resource_exhausted",
	"too many requests",
	"429",
}

// IsQuotaSignal reports whether a provider error content indicates an
// exhausted quota rather than a generic failure.
func IsQuotaSignal(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrQuotaExhausted) {
		return true
	}

	message := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}

	return false
}
