package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrProviderTransient = errors.New("provider temporarily unavailable")
	ErrProviderFailure   = errors.New("provider failure")
	ErrDuplicateJob      = errors.New("duplicate job")
)

// transientMarkers are provider error fragments that signal exhausted quota or
// capacity rather than a bad request.
var transientMarkers = []string{
	"FREE_CLOUD_BUDGET_EXCEEDED",
	"RESOURCE_EXHAUSTED",
	"insufficient_quota",
	"rate_limit",
	"overloaded",
}

// ProviderStatusError classifies a failed provider HTTP call. Quota and
// capacity failures wrap ErrProviderTransient; everything else wraps
// ErrProviderFailure.
func ProviderStatusError(provider string, status int, detail string) error {
	detail = strings.TrimSpace(detail)
	kind := ErrProviderFailure
	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable || IsTransientDetail(detail) {
		kind = ErrProviderTransient
	}
	if detail == "" {
		return fmt.Errorf("%s status %d: %w", provider, status, kind)
	}
	return fmt.Errorf("%s status %d: %s: %w", provider, status, detail, kind)
}

// IsTransientDetail reports whether an error message carries a quota marker.
func IsTransientDetail(detail string) bool {
	lower := strings.ToLower(detail)
	for _, marker := range transientMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
