package image

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/providers/genai"
	"github.com/Drmedkit/Bouw/internal/storage"
)

// GeminiGenerator renders images through the Gemini client and publishes the
// bytes through the file store.
type GeminiGenerator struct {
	client *genai.Client
	store  *storage.FileStore
}

func NewGeminiGenerator(client *genai.Client, store *storage.FileStore) (*GeminiGenerator, error) {
	if client == nil {
		return nil, errors.New("image: gemini client is required")
	}
	if store == nil {
		return nil, errors.New("image: file store is required")
	}
	return &GeminiGenerator{client: client, store: store}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Asset, error) {
	assets, err := g.client.GenerateImages(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		Quantity:    1,
		AspectRatio: req.AspectRatio,
		Locale:      req.Locale,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return Asset{}, err
	}
	if len(assets) == 0 {
		return Asset{}, fmt.Errorf("image: no asset returned: %w", domain.ErrProviderFailure)
	}
	asset := assets[0]
	out := Asset{Format: asset.Format, Width: asset.Width, Height: asset.Height}
	if len(asset.Data) == 0 {
		if !strings.HasPrefix(asset.URL, "https://") {
			return Asset{}, fmt.Errorf("image: asset has neither data nor public url: %w", domain.ErrProviderFailure)
		}
		out.URL = asset.URL
		return out, nil
	}

	key := strings.TrimSpace(req.Key)
	if key == "" {
		key = path.Join("generated", req.RequestID)
	}
	if path.Ext(key) == "" {
		key += "." + extension(asset.Format)
	}
	stored, err := g.store.Write(ctx, key, asset.Data)
	if err != nil {
		return Asset{}, fmt.Errorf("image: persist asset: %w", err)
	}
	out.URL = g.store.URL(stored)
	return out, nil
}

var _ Generator = (*GeminiGenerator)(nil)
