// Package theme generates site style themes from a free-text description.
package theme

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Drmedkit/Bouw/internal/catalog"
	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/providers/prompt"
	"github.com/Drmedkit/Bouw/internal/sanitize"
)

// ErrEmptyDescription rejects a blank request.
var ErrEmptyDescription = errors.New("theme: description is required")

const maxDescriptionLength = 2000

// Designer asks a completer for a theme and clamps the answer to the
// catalog's theme schema.
type Designer struct {
	completer prompt.Completer
	catalog   *catalog.Catalog
	schema    sanitize.Schema
}

func NewDesigner(completer prompt.Completer, c *catalog.Catalog) (*Designer, error) {
	if completer == nil {
		return nil, errors.New("theme: completer is required")
	}
	if c == nil {
		return nil, errors.New("theme: catalog is required")
	}
	return &Designer{completer: completer, catalog: c, schema: c.ThemeSchema()}, nil
}

// Design returns a theme object with every required field present and every
// font and overlay drawn from the catalog. Unparseable provider output wraps
// sanitize.ErrMalformedOutput.
func (d *Designer) Design(ctx context.Context, description string) (map[string]any, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}
	description = truncate(description, maxDescriptionLength)
	raw, err := d.completer.Complete(ctx, prompt.Request{
		Purpose:  prompt.PurposeTheme,
		System:   prompt.ThemeInstructions(d.catalog),
		Messages: []domain.Message{{Role: domain.RoleUser, Text: description}},
		JSON:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("theme: %w", err)
	}
	theme, err := sanitize.Object(raw, d.schema)
	if err != nil {
		return nil, fmt.Errorf("theme: %w", err)
	}
	return theme, nil
}

// truncate cuts s to at most limit bytes without splitting a character.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
