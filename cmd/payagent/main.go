package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/payagent/internal/agent"
	"github.com/xxxsen/payagent/internal/ai"
	"github.com/xxxsen/payagent/internal/config"
	"github.com/xxxsen/payagent/internal/db"
	"github.com/xxxsen/payagent/internal/embedcache"
	"github.com/xxxsen/payagent/internal/filestore"
	"github.com/xxxsen/payagent/internal/handler"
	"github.com/xxxsen/payagent/internal/intent"
	"github.com/xxxsen/payagent/internal/job"
	"github.com/xxxsen/payagent/internal/kb"
	"github.com/xxxsen/payagent/internal/middleware"
	"github.com/xxxsen/payagent/internal/model"
	"github.com/xxxsen/payagent/internal/pkg/jwt"
	"github.com/xxxsen/payagent/internal/repo"
	"github.com/xxxsen/payagent/internal/schedule"
	"github.com/xxxsen/payagent/internal/snippet"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "payagent",
		Short: "payment API integration assistant",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the agent server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	var buildProvider string
	var buildDocsDir string
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "build the knowledge index from markdown documentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if buildProvider == "" || buildDocsDir == "" {
				return fmt.Errorf("--provider and --docs are required")
			}
			return buildIndex(cmd.Context(), cfg, buildProvider, buildDocsDir)
		},
	}
	buildCmd.Flags().StringVar(&buildProvider, "provider", "", "provider to index")
	buildCmd.Flags().StringVar(&buildDocsDir, "docs", "", "directory of markdown documentation")

	kbCmd := &cobra.Command{
		Use:   "kb",
		Short: "knowledge base maintenance",
	}
	kbCmd.AddCommand(buildCmd)

	var tokenClientID string
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "mint an API bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("jwt_secret is not configured")
			}
			if tokenClientID == "" {
				return fmt.Errorf("--client-id is required")
			}
			token, err := jwt.GenerateToken(tokenClientID, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tokenClientID, "client-id", "", "client id to embed in the token")

	rootCmd.AddCommand(runCmd, kbCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	if cfg.AI.EmbedProvider == "" {
		return nil, nil
	}
	endpoints := append([]config.AIEndpoint{{
		Provider: cfg.AI.EmbedProvider,
		Data:     cfg.AI.EmbedData,
		Model:    cfg.AI.EmbedModel,
	}}, cfg.AI.EmbedFallbacks...)
	entries := make([]ai.EmbedderEntry, 0, len(endpoints))
	for _, ep := range endpoints {
		provider, err := ai.NewEmbedProvider(ep.Provider, ep.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", ep.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     ep.Provider + "/" + ep.Model,
			Embedder: ai.NewEmbedder(provider, ep.Model),
		})
	}
	embedder := entries[0].Embedder
	if len(entries) > 1 {
		embedder = ai.NewGroupEmbedder(entries)
	}
	if cacheRepo != nil {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLMinute)*time.Minute)
	return embedder, nil
}

func buildGenerator(cfg *config.Config) (ai.IGenerator, error) {
	if cfg.AI.Provider == "" {
		return nil, nil
	}
	endpoints := append([]config.AIEndpoint{{
		Provider: cfg.AI.Provider,
		Data:     cfg.AI.Data,
		Model:    cfg.AI.Model,
	}}, cfg.AI.Fallbacks...)
	entries := make([]ai.GeneratorEntry, 0, len(endpoints))
	for _, ep := range endpoints {
		provider, err := ai.NewProvider(ep.Provider, ep.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", ep.Provider, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      ep.Provider + "/" + ep.Model,
			Generator: ai.NewGenerator(provider, ep.Model),
		})
	}
	if len(entries) == 1 {
		return entries[0].Generator, nil
	}
	return ai.NewGroupGenerator(entries), nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return conn, nil
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("kb_backend", cfg.KB.Backend),
		zap.Strings("providers", cfg.KB.Providers),
	)

	store, err := filestore.New(cfg.KB.Store)
	if err != nil {
		return fmt.Errorf("init kb store: %w", err)
	}

	var (
		conn      *sql.DB
		cacheRepo *repo.EmbeddingCacheRepo
	)
	if cfg.KB.Backend == "postgres" {
		conn, err = openDatabase(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()
		cacheRepo = repo.NewEmbeddingCacheRepo(conn)
	}

	embedder, err := buildEmbedder(cfg, cacheRepo)
	if err != nil {
		return err
	}
	if embedder == nil {
		logutil.GetLogger(ctx).Warn("no embed provider configured, retrieval disabled")
	}

	var indices []*kb.DocumentIndex
	if cfg.KB.Backend == "postgres" {
		indices, err = kb.LoadIndexesFromDB(ctx, repo.NewKBChunkRepo(conn), cfg.KB.Providers)
	} else {
		indices, err = kb.LoadIndexesFromStore(ctx, store, cfg.KB.Providers)
	}
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}

	templates, err := loadTemplates(ctx, store, cfg.KB.TemplatesKey)
	if err != nil {
		return err
	}

	sessions := agent.NewSessionStore()
	ag := agent.New(
		intent.NewRecognizer(),
		kb.NewRetriever(embedder, indices),
		snippet.NewGenerator(templates),
		sessions,
	)
	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}
	if generator != nil {
		ag.WithRephraser(agent.NewRephraser(generator))
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSessionSweepJob(sessions, cfg.Session.MaxIdleMinutes), cfg.Session.SweepCron); err != nil {
		return err
	}
	if cacheRepo != nil {
		if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Session.CacheMaxDays), cfg.Session.CleanupCron); err != nil {
			return err
		}
	}

	deps := handler.RouterDeps{
		Agent:     handler.NewAgentHandler(ag),
		JWTSecret: []byte(cfg.JWTSecret),
		RateLimit: time.Duration(cfg.RateLimitMS) * time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	scheduler.Start(runCtx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	return nil
}

func loadTemplates(ctx context.Context, store filestore.Store, key string) (map[string]model.Template, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open templates: %w", err)
	}
	defer rc.Close()
	templates, err := snippet.LoadTemplates(ctx, rc)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("code templates loaded", zap.Int("count", len(templates)))
	return templates, nil
}

func buildIndex(ctx context.Context, cfg *config.Config, provider string, docsDir string) error {
	if cfg.AI.EmbedProvider == "" {
		return fmt.Errorf("ai.embed_provider is required to build the index")
	}
	store, err := filestore.New(cfg.KB.Store)
	if err != nil {
		return fmt.Errorf("init kb store: %w", err)
	}

	var (
		conn      *sql.DB
		cacheRepo *repo.EmbeddingCacheRepo
	)
	if cfg.KB.Backend == "postgres" {
		conn, err = openDatabase(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()
		cacheRepo = repo.NewEmbeddingCacheRepo(conn)
	}
	embedder, err := buildEmbedder(cfg, cacheRepo)
	if err != nil {
		return err
	}

	builder := kb.NewBuilder(ai.NewChunker(0), embedder)
	chunks, err := builder.BuildChunks(ctx, provider, docsDir)
	if err != nil {
		return err
	}
	if cfg.KB.Backend == "postgres" {
		err = kb.WriteToDB(ctx, repo.NewKBChunkRepo(conn), provider, chunks)
	} else {
		err = kb.WriteToStore(ctx, store, provider, chunks)
	}
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("knowledge index built",
		zap.String("provider", provider),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}
