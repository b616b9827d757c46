package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Drmedkit/Bouw/internal/adapter/repo"
	"github.com/Drmedkit/Bouw/internal/http/handlers"
	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/infra/credentials"
	"github.com/Drmedkit/Bouw/internal/jobs"
	"github.com/Drmedkit/Bouw/internal/providers/genai"
	"github.com/Drmedkit/Bouw/internal/providers/image"
	"github.com/Drmedkit/Bouw/internal/providers/prompt"
	"github.com/Drmedkit/Bouw/internal/storage"
)

// leadStore is what every lead store backend offers.
type leadStore interface {
	jobs.Persister
	handlers.JobArchive
	Migrate(ctx context.Context) error
}

// providerKeys holds the resolved provider credentials.
type providerKeys struct {
	gemini    string
	openai    string
	anthropic string
}

func resolveKeys(ctx context.Context, cfg *infra.Config, creds *credentials.Store) (providerKeys, error) {
	var (
		keys providerKeys
		err  error
	)
	if keys.gemini, err = creds.Resolve(ctx, credentials.ProviderGemini, cfg.GeminiAPIKey); err != nil {
		return keys, err
	}
	if keys.openai, err = creds.Resolve(ctx, credentials.ProviderOpenAI, cfg.OpenAIAPIKey); err != nil {
		return keys, err
	}
	if keys.anthropic, err = creds.Resolve(ctx, credentials.ProviderAnthropic, cfg.AnthropicAPIKey); err != nil {
		return keys, err
	}
	return keys, nil
}

// buildCompleter picks the configured text provider. A provider without a
// key degrades to the static completer so the service still answers.
func buildCompleter(cfg *infra.Config, keys providerKeys, gemini *genai.Client, logger infra.Logger) prompt.Completer {
	var (
		completer prompt.Completer
		err       error
	)
	switch cfg.PromptProvider {
	case "gemini":
		completer, err = prompt.NewGeminiCompleter(gemini)
	case "openai":
		completer, err = prompt.NewOpenAICompleter(prompt.OpenAIOptions{
			APIKey:       keys.openai,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			OnWarning: func(reason, detail string) {
				logger.Warn().Str("provider", "openai").Str("reason", reason).Msg(detail)
			},
		})
	case "anthropic":
		completer, err = prompt.NewAnthropicCompleter(prompt.AnthropicOptions{
			APIKey:        keys.anthropic,
			BaseURL:       cfg.AnthropicBaseURL,
			ChatModel:     cfg.AnthropicChatModel,
			DocumentModel: cfg.AnthropicDocumentModel,
			ThemeModel:    cfg.AnthropicThemeModel,
		})
	case "static":
		return prompt.NewStaticCompleter()
	default:
		err = fmt.Errorf("unknown prompt provider %q", cfg.PromptProvider)
	}
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.PromptProvider).Msg("prompt provider unavailable, using static completer")
		return prompt.NewStaticCompleter()
	}
	logger.Info().Str("provider", cfg.PromptProvider).Msg("prompt provider ready")
	return completer
}

// buildImages returns the asset generator, or nil when images are disabled.
func buildImages(cfg *infra.Config, gemini *genai.Client, files *storage.FileStore) (image.Generator, error) {
	if cfg.ImageProvider == "none" {
		return nil, nil
	}
	gen, err := image.NewGeminiGenerator(gemini, files)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// openLeadStore connects the configured backend and makes sure its table
// exists. It returns nil for LEAD_STORE=none. The closer releases the
// connection.
func openLeadStore(ctx context.Context, cfg *infra.Config, pool *pgxpool.Pool, logger infra.Logger) (leadStore, io.Closer, error) {
	var store leadStore
	var closer io.Closer = nopCloser{}
	switch cfg.LeadStore {
	case infra.LeadStoreNone:
		return nil, closer, nil
	case infra.LeadStorePostgres:
		if pool == nil {
			return nil, closer, fmt.Errorf("postgres lead store needs a pool")
		}
		store = repo.NewLeadRepository(infra.NewSQLRunner(pool, logger))
	case infra.LeadStoreMySQL, infra.LeadStoreSQLite:
		db, err := infra.NewSQLDB(ctx, cfg.LeadStore, cfg.DatabaseURL)
		if err != nil {
			return nil, closer, err
		}
		closer = db
		sqlStore, err := repo.NewLeadSQLRepository(infra.NewDBRunner(db, logger), cfg.LeadStore)
		if err != nil {
			_ = db.Close()
			return nil, nopCloser{}, err
		}
		store = sqlStore
	default:
		return nil, closer, fmt.Errorf("unsupported lead store %q", cfg.LeadStore)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = closer.Close()
		return nil, nopCloser{}, err
	}
	return store, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// staticFiles exposes generated assets only when this process writes them.
func staticFiles(files *storage.FileStore, images image.Generator) http.Handler {
	if files == nil || images == nil {
		return nil
	}
	return files.Handler()
}
