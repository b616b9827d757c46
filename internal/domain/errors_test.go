package domain

import (
	"errors"
	"net/http"
	"testing"
)

func TestProviderStatusError(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		detail    string
		transient bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "unavailable", status: http.StatusServiceUnavailable, detail: "try later", transient: true},
		{name: "budget marker", status: http.StatusForbidden, detail: "FREE_CLOUD_BUDGET_EXCEEDED: stop", transient: true},
		{name: "gemini quota", status: http.StatusBadRequest, detail: "RESOURCE_EXHAUSTED", transient: true},
		{name: "bad request", status: http.StatusBadRequest, detail: "invalid model"},
		{name: "server error", status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ProviderStatusError("gemini", tc.status, tc.detail)
			if got := errors.Is(err, ErrProviderTransient); got != tc.transient {
				t.Fatalf("transient = %v, want %v (%v)", got, tc.transient, err)
			}
			if got := errors.Is(err, ErrProviderFailure); got == tc.transient {
				t.Fatalf("failure = %v, want %v (%v)", got, !tc.transient, err)
			}
		})
	}
}

func TestVisitorContextWithDefaults(t *testing.T) {
	v := VisitorContext{Locale: "nl"}.WithDefaults("en", "NL")
	if v.Locale != "nl" || v.Country != "NL" {
		t.Fatalf("unexpected visitor context: %+v", v)
	}
	if (VisitorContext{}).IsZero() != true {
		t.Fatal("zero visitor context should report IsZero")
	}
}

func TestNormalizeRole(t *testing.T) {
	if NormalizeRole("user") != RoleUser {
		t.Fatal("user role should be preserved")
	}
	for _, r := range []string{"assistant", "bot", ""} {
		if NormalizeRole(r) != RoleAssistant {
			t.Fatalf("role %q should map to assistant", r)
		}
	}
}
