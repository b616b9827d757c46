// Package lead holds the structured lead record extracted from a conversation
// and the merge rules that reconcile it across turns.
package lead

import (
	"fmt"
	"strings"
)

// Field names a lead record field. Values double as the JSON keys used by the
// extraction provider.
type Field string

const (
	FieldName      Field = "name"
	FieldEmail     Field = "email"
	FieldBusiness  Field = "business"
	FieldCategory  Field = "type"
	FieldStyle     Field = "vibe"
	FieldLocation  Field = "location"
	FieldOfferings Field = "offerings"
	FieldAudience  Field = "audience"
	FieldNotes     Field = "notes"
)

// Fields lists every record field in a stable order.
var Fields = []Field{
	FieldName,
	FieldEmail,
	FieldBusiness,
	FieldCategory,
	FieldStyle,
	FieldLocation,
	FieldOfferings,
	FieldAudience,
	FieldNotes,
}

const (
	CategoryRestaurant  = "Restaurant"
	CategoryNightlife   = "Nightclub / Bar"
	CategoryOnlineStore = "Online Store"
	CategoryOther       = "Other"
)

const (
	StyleWarmElegant  = "Warm & Elegant"
	StyleDarkBold     = "Dark & Bold"
	StyleCleanMinimal = "Clean & Minimal"
	StyleLoudElectric = "Loud & Electric"
	StylePlayfulFun   = "Playful & Fun"
	StyleRawEdgy      = "Raw & Edgy"
)

// EnumSet is the legal value set of a constrained field. The empty string is
// always legal and never listed.
type EnumSet []string

// Contains reports whether v is a member of the set or empty.
func (s EnumSet) Contains(v string) bool {
	if v == "" {
		return true
	}
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

var (
	Categories = EnumSet{CategoryRestaurant, CategoryNightlife, CategoryOnlineStore, CategoryOther}
	Styles     = EnumSet{StyleWarmElegant, StyleDarkBold, StyleCleanMinimal, StyleLoudElectric, StylePlayfulFun, StyleRawEdgy}
)

// Constrained maps each enumerated field to its legal set.
var Constrained = map[Field]EnumSet{
	FieldCategory: Categories,
	FieldStyle:    Styles,
}

// Record is a field-level snapshot of facts about a visitor's business.
// Unknown values are the empty string.
type Record struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Business  string `json:"business"`
	Category  string `json:"type"`
	Style     string `json:"vibe"`
	Location  string `json:"location"`
	Offerings string `json:"offerings"`
	Audience  string `json:"audience"`
	Notes     string `json:"notes"`
}

func (r *Record) slot(f Field) *string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldEmail:
		return &r.Email
	case FieldBusiness:
		return &r.Business
	case FieldCategory:
		return &r.Category
	case FieldStyle:
		return &r.Style
	case FieldLocation:
		return &r.Location
	case FieldOfferings:
		return &r.Offerings
	case FieldAudience:
		return &r.Audience
	case FieldNotes:
		return &r.Notes
	default:
		return nil
	}
}

// Get returns the value of f, or "" for an unknown field.
func (r Record) Get(f Field) string {
	if p := r.slot(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns v to f. Unknown fields are rejected.
func (r *Record) Set(f Field, v string) error {
	p := r.slot(f)
	if p == nil {
		return fmt.Errorf("lead: unknown field %q", f)
	}
	*p = v
	return nil
}

// Viable reports whether the record satisfies the minimum needed to start a
// generation job: category, business and style are all known.
func (r Record) Viable() bool {
	return r.Category != "" && r.Business != "" && r.Style != ""
}

// ContactCollected reports whether a follow-up address is known.
func (r Record) ContactCollected() bool {
	return r.Email != ""
}

// IsZero reports whether every field is empty.
func (r Record) IsZero() bool {
	return r == Record{}
}

// FromMap builds a record from an untyped provider object. Non-string values
// and unknown keys are ignored; values are trimmed.
func FromMap(m map[string]any) Record {
	var r Record
	for _, f := range Fields {
		s, ok := m[string(f)].(string)
		if !ok {
			continue
		}
		_ = r.Set(f, strings.TrimSpace(s))
	}
	return r
}

// Normalize trims every value so whitespace-only input counts as unknown.
func Normalize(r Record) Record {
	for _, f := range Fields {
		_ = r.Set(f, strings.TrimSpace(r.Get(f)))
	}
	return r
}
