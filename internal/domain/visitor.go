package domain

import "strings"

// VisitorContext carries situational hints about the visitor. It only shapes
// provider prompts and is never merged into the lead record.
type VisitorContext struct {
	EntryPoint string `json:"entry_point,omitempty"`
	Theme      string `json:"theme,omitempty"`
	Intent     string `json:"intent,omitempty"`
	Device     string `json:"device,omitempty"`
	Locale     string `json:"locale,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether no hint is set.
func (v VisitorContext) IsZero() bool {
	return strings.TrimSpace(v.EntryPoint) == "" &&
		strings.TrimSpace(v.Theme) == "" &&
		strings.TrimSpace(v.Intent) == "" &&
		strings.TrimSpace(v.Device) == "" &&
		strings.TrimSpace(v.Locale) == "" &&
		strings.TrimSpace(v.Country) == ""
}

// WithDefaults fills locale and country from request-derived values when the
// client did not send them.
func (v VisitorContext) WithDefaults(locale, country string) VisitorContext {
	if strings.TrimSpace(v.Locale) == "" {
		v.Locale = locale
	}
	if strings.TrimSpace(v.Country) == "" {
		v.Country = country
	}
	return v
}
