// Package image generates the pictures injected into generated pages.
package image

import (
	"context"
	"strings"
)

// Request describes one image to generate. Key is the storage key the
// result is written under.
type Request struct {
	Prompt      string
	AspectRatio string
	Key         string
	RequestID   string
	Locale      string
}

// Asset is a generated image reachable at URL.
type Asset struct {
	URL    string
	Format string
	Width  int
	Height int
}

// Generator is the contract implemented by image providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (Asset, error)
}

// extension maps a MIME type to a file extension.
func extension(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
