// Package catalog holds the tunable constants of page and theme generation:
// placeholder images, the document marker, and the theme schema.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Drmedkit/Bouw/internal/lead"
	"github.com/Drmedkit/Bouw/internal/sanitize"
)

//go:embed default.yaml
var defaultYAML []byte

// Document configures generated page validation and asset injection.
type Document struct {
	Marker             string `yaml:"marker"`
	PlaceholderPrefix  string `yaml:"placeholder_prefix"`
	FeaturePlaceholder string `yaml:"feature_placeholder"`
}

// Theme describes the theme designer's output contract.
type Theme struct {
	Fonts           []string       `yaml:"fonts"`
	FontFallback    string         `yaml:"font_fallback"`
	FontFields      []string       `yaml:"font_fields"`
	Overlays        []string       `yaml:"overlays"`
	OverlayFallback string         `yaml:"overlay_fallback"`
	Defaults        map[string]any `yaml:"defaults"`
}

// Catalog is the decoded catalog file.
type Catalog struct {
	Version      int               `yaml:"version"`
	Document     Document          `yaml:"document"`
	Placeholders map[string]string `yaml:"placeholders"`
	Theme        Theme             `yaml:"theme"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode default: %w", err)
	}
	return &c, c.Validate()
}

// Load returns the embedded catalog with the file at path decoded on top.
// An empty path yields the default.
func Load(path string) (*Catalog, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate checks internal consistency.
func (c *Catalog) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Document.Marker) == "" {
		errs = append(errs, errors.New("document.marker is required"))
	}
	if !strings.HasPrefix(c.Document.PlaceholderPrefix, "http") {
		errs = append(errs, fmt.Errorf("document.placeholder_prefix %q is not a url", c.Document.PlaceholderPrefix))
	}
	if !strings.HasPrefix(c.Document.FeaturePlaceholder, c.Document.PlaceholderPrefix) {
		errs = append(errs, fmt.Errorf("document.feature_placeholder %q does not start with the placeholder prefix", c.Document.FeaturePlaceholder))
	}
	for category, url := range c.Placeholders {
		if category == "" || !lead.Categories.Contains(category) {
			errs = append(errs, fmt.Errorf("placeholders: unknown category %q", category))
		}
		if !strings.HasPrefix(url, c.Document.PlaceholderPrefix) {
			errs = append(errs, fmt.Errorf("placeholders[%s]: %q does not start with the placeholder prefix", category, url))
		}
	}
	if !contains(c.Theme.Fonts, c.Theme.FontFallback) {
		errs = append(errs, fmt.Errorf("theme.font_fallback %q is not a listed font", c.Theme.FontFallback))
	}
	if !contains(c.Theme.Overlays, c.Theme.OverlayFallback) {
		errs = append(errs, fmt.Errorf("theme.overlay_fallback %q is not a listed overlay", c.Theme.OverlayFallback))
	}
	if len(errs) > 0 {
		return fmt.Errorf("catalog: %w", errors.Join(errs...))
	}
	return nil
}

// Placeholder returns the stock image a page for category should reference.
func (c *Catalog) Placeholder(category string) string {
	if url, ok := c.Placeholders[category]; ok {
		return url
	}
	return c.Placeholders[lead.CategoryOther]
}

// ThemeSchema builds the sanitizer schema for theme designer output.
func (c *Catalog) ThemeSchema() sanitize.Schema {
	enums := map[string]sanitize.Enum{
		"overlay": {Allowed: c.Theme.Overlays, Fallback: c.Theme.OverlayFallback},
	}
	for _, field := range c.Theme.FontFields {
		enums[field] = sanitize.Enum{Allowed: c.Theme.Fonts, Fallback: c.Theme.FontFallback}
	}
	return sanitize.Schema{Defaults: c.Theme.Defaults, Enums: enums}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
