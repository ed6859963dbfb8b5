// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/kbsync-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/kbsync-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/kbsync-cli/internal/chunker"
	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/kbsync-cli/internal/core/services"
	"github.com/custodia-labs/kbsync-cli/internal/logger"
)

// version is the application version, set at build time via ldflags.
var version = "dev"

// Services used by commands. Wired by Execute; tests inject mocks directly.
var (
	syncEngine    driving.SyncEngine
	retriever     driving.Retriever
	documentStore driven.DocumentStore
	metadataStore *sqlite.Store
	aiServices    *ai.InitResult

	promptWatcherStop func()

	// retrievalDefaults come from configuration and apply when the query
	// flags are left at zero.
	retrievalDefaults domain.RetrievalSettings
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "kbsync",
	Short: "Sync documents into a vector index and query them",
	Long: `kbsync keeps a local knowledge base synchronised with a vector index
and answers conversational queries against it.

Documents are chunked, embedded, and upserted into the index; re-syncing an
unchanged document is a no-op, and updates never leave orphaned vectors
behind. Queries are rewritten with conversation context before retrieval.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute wires services and runs the root command.
func Execute() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := initServices(); err != nil {
		return err
	}
	defer closeServices()

	return rootCmd.Execute()
}

// initServices builds the service graph from configuration.
// Skipped when a test has already injected services.
func initServices() error {
	if syncEngine != nil || retriever != nil {
		return nil
	}

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	settings := loadSettings(cfg)
	retrievalDefaults = settings.Retrieval

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	metadataStore = store
	documentStore = store.DocumentStore()

	initResult, err := ai.Initialize(&settings)
	if err != nil {
		// Document management still works without AI services; only sync
		// and query need them.
		logger.Warn("AI services unavailable, sync and query are disabled: %v", err)
		return nil
	}
	aiServices = initResult
	for _, warning := range initResult.Warnings {
		logger.Warn("%s", warning)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("loading prompt store: %w", err)
	}
	if stop, err := prompts.Watch(); err != nil {
		logger.Debug("Prompt watcher unavailable: %v", err)
	} else {
		promptWatcherStop = stop
	}

	splitter := chunker.New(
		chunker.WithMaxTokens(settings.Chunking.MaxTokens),
		chunker.WithOverlap(settings.Chunking.OverlapTokens),
	)

	syncEngine = services.NewSyncEngine(
		store.DocumentStore(), store.SyncStateStore(),
		initResult.VectorIndex, initResult.EmbeddingService,
		splitter, settings.Index.Collection, settings.Index.Metric,
	)

	rewriter := services.NewQueryRewriter(initResult.LLMService, prompts)
	retrievalService := services.NewRetrievalService(
		rewriter, initResult.EmbeddingService, initResult.VectorIndex,
		settings.Index.Collection,
	)
	retrievalService.SetDegradeOnUnavailable(settings.Retrieval.DegradeOnUnavailable)
	retriever = retrievalService

	return nil
}

// closeServices releases resources acquired by initServices.
func closeServices() {
	if promptWatcherStop != nil {
		promptWatcherStop()
	}
	if aiServices != nil {
		aiServices.Close()
	}
	if metadataStore != nil {
		_ = metadataStore.Close()
	}
}

// loadSettings reads settings from the config store, falling back to
// defaults and environment variables for API keys.
func loadSettings(cfg *file.ConfigStore) domain.AppSettings {
	settings := domain.DefaultAppSettings()

	if v := cfg.GetString("embedding.provider"); v != "" {
		settings.Embedding.Provider = domain.AIProvider(v)
	}
	if v := cfg.GetString("embedding.model"); v != "" {
		settings.Embedding.Model = v
	}
	if v := cfg.GetString("embedding.base_url"); v != "" {
		settings.Embedding.BaseURL = v
	}
	if v := cfg.GetString("embedding.api_key"); v != "" {
		settings.Embedding.APIKey = v
	}
	if v := cfg.GetFloat("embedding.requests_per_second"); v > 0 {
		settings.Embedding.RequestsPerSecond = v
	}

	if v := cfg.GetString("llm.provider"); v != "" {
		settings.LLM.Provider = domain.AIProvider(v)
	}
	if v := cfg.GetString("llm.model"); v != "" {
		settings.LLM.Model = v
	}
	if v := cfg.GetString("llm.base_url"); v != "" {
		settings.LLM.BaseURL = v
	}
	if v := cfg.GetString("llm.api_key"); v != "" {
		settings.LLM.APIKey = v
	}

	if v := cfg.GetString("index.url"); v != "" {
		settings.Index.URL = v
	}
	if v := cfg.GetString("index.api_key"); v != "" {
		settings.Index.APIKey = v
	}
	if v := cfg.GetString("index.collection"); v != "" {
		settings.Index.Collection = v
	}
	if v := cfg.GetString("index.metric"); v != "" {
		if metric, ok := domain.ParseMetric(v); ok {
			settings.Index.Metric = metric
		} else {
			logger.Warn("Unknown index.metric %q, keeping %s", v, settings.Index.Metric)
		}
	}

	if v := cfg.GetInt("chunking.max_tokens"); v > 0 {
		settings.Chunking.MaxTokens = v
	}
	if v := cfg.GetInt("chunking.overlap_tokens"); v > 0 {
		settings.Chunking.OverlapTokens = v
	}

	if v := cfg.GetInt("retrieval.top_k"); v > 0 {
		settings.Retrieval.TopK = v
	}
	if v := cfg.GetFloat("retrieval.relevance_threshold"); v > 0 {
		settings.Retrieval.RelevanceThreshold = v
	}
	if _, ok := cfg.Get("retrieval.enable_query_rephrasing"); ok {
		settings.Retrieval.EnableQueryRephrasing = cfg.GetBool("retrieval.enable_query_rephrasing")
	}
	settings.Retrieval.DegradeOnUnavailable = cfg.GetBool("retrieval.degrade_on_unavailable")

	// API keys from environment win over the config file.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && settings.LLM.Provider == domain.AIProviderOpenAI {
		settings.LLM.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && settings.LLM.Provider == domain.AIProviderAnthropic {
		settings.LLM.APIKey = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		settings.Index.APIKey = v
	}

	return settings
}
