// Package inject swaps placeholder image references in a generated page for
// the assets produced alongside it.
package inject

import "strings"

// Role names the slot an asset is meant for.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// Roles lists asset roles in injection order.
var Roles = []Role{RolePrimary, RoleSecondary}

// Asset is a concrete URL produced for a role.
type Asset struct {
	Role Role
	URL  string
}

// DefaultPlaceholderPrefix is the stock-photo host generated pages point at
// before real assets exist.
const DefaultPlaceholderPrefix = "https://images.unsplash.com/"

// urlTerminators end a placeholder URL inside markup or CSS.
const urlTerminators = "\"' \t\r\n)<>;`"

type span struct{ start, end int }

// Inject replaces the first placeholder with the primary asset and then the
// last remaining placeholder with the secondary asset. Everything else is
// preserved byte for byte. Assets without a matching placeholder are dropped,
// and a nil or empty asset list returns doc unchanged.
func Inject(doc string, assets []Asset, prefix string) string {
	if len(assets) == 0 {
		return doc
	}
	if prefix == "" {
		prefix = DefaultPlaceholderPrefix
	}
	primary, hasPrimary := lookup(assets, RolePrimary)
	secondary, hasSecondary := lookup(assets, RoleSecondary)

	if hasPrimary {
		if spans := find(doc, prefix); len(spans) > 0 {
			doc = replace(doc, spans[0], primary)
		}
	}
	if hasSecondary {
		spans := find(doc, prefix)
		minCount := 1
		if !hasPrimary {
			// the first placeholder stays reserved for the primary slot
			minCount = 2
		}
		if len(spans) >= minCount {
			doc = replace(doc, spans[len(spans)-1], secondary)
		}
	}
	return doc
}

// Count returns how many placeholders doc still contains.
func Count(doc, prefix string) int {
	if prefix == "" {
		prefix = DefaultPlaceholderPrefix
	}
	return len(find(doc, prefix))
}

func lookup(assets []Asset, role Role) (string, bool) {
	for _, a := range assets {
		if a.Role == role && strings.TrimSpace(a.URL) != "" {
			return a.URL, true
		}
	}
	return "", false
}

func find(doc, prefix string) []span {
	var spans []span
	offset := 0
	for {
		idx := strings.Index(doc[offset:], prefix)
		if idx < 0 {
			return spans
		}
		start := offset + idx
		end := start + len(prefix)
		if stop := strings.IndexAny(doc[end:], urlTerminators); stop >= 0 {
			end += stop
		} else {
			end = len(doc)
		}
		spans = append(spans, span{start: start, end: end})
		offset = end
	}
}

func replace(doc string, s span, url string) string {
	return doc[:s.start] + url + doc[s.end:]
}
