// Command server runs vecthare as a standalone process: the retrieval
// pipeline and sync engine wired to concrete collaborators (a vector
// backend, Postgres/Redis metadata stores, an embedding/rerank model)
// and exposed over internal/httpapi. Hosts that embed vecthare as a
// library in their own process construct internal/pipeline.Pipeline and
// internal/sync.Engine directly instead of running this binary — this
// command exists for hosts that prefer a sidecar.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vecthare/vecthare/internal/common"
	"github.com/vecthare/vecthare/internal/config"
	"github.com/vecthare/vecthare/internal/errors"
	"github.com/vecthare/vecthare/internal/groups"
	"github.com/vecthare/vecthare/internal/hashing"
	"github.com/vecthare/vecthare/internal/httpapi"
	"github.com/vecthare/vecthare/internal/logger"
	"github.com/vecthare/vecthare/internal/models/embedding"
	"github.com/vecthare/vecthare/internal/models/rerank"
	"github.com/vecthare/vecthare/internal/pipeline"
	"github.com/vecthare/vecthare/internal/registry"
	"github.com/vecthare/vecthare/internal/registry/migrations"
	"github.com/vecthare/vecthare/internal/runtime"
	syncengine "github.com/vecthare/vecthare/internal/sync"
	oteltracing "github.com/vecthare/vecthare/internal/trace"
	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
	"github.com/vecthare/vecthare/internal/vectorbackend/elastic"
	"github.com/vecthare/vecthare/internal/vectorbackend/pgvector"
	"github.com/vecthare/vecthare/internal/vectorbackend/qdrant"

	elasticgo "github.com/elastic/go-elasticsearch/v8"
	neo4jgo "github.com/neo4j/neo4j-go-driver/v6/neo4j"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configFile := os.Getenv("VECTHARE_CONFIG_FILE")
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vecthare: loading config:", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.GetLogger(ctx).Errorf("vecthare: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	container := runtime.GetContainer()

	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return err
	}
	if err := container.Provide(buildRedis); err != nil {
		return err
	}
	if err := container.Provide(buildPostgres); err != nil {
		return err
	}
	if err := container.Provide(buildEmbedder); err != nil {
		return err
	}
	if err := container.Provide(buildReranker); err != nil {
		return err
	}
	if err := container.Provide(buildBackendResolver); err != nil {
		return err
	}
	if err := container.Provide(buildRegistry); err != nil {
		return err
	}
	if err := container.Provide(buildRecorder); err != nil {
		return err
	}
	if err := container.Provide(buildHasher); err != nil {
		return err
	}

	if cfg.Process.PostgresDSN != "" {
		if err := migrations.Up(cfg.Process.PostgresDSN); err != nil {
			logger.GetLogger(ctx).Warnf("vecthare: migrations: %v", err)
		}
	}

	shutdownOTLP, err := oteltracing.InitOTLP(ctx, "vecthare", cfg.Process.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("otel init: %w", err)
	}
	defer shutdownOTLP(ctx)

	var recorder *oteltracing.Recorder
	if err := container.Invoke(func(r *oteltracing.Recorder) { recorder = r }); err != nil {
		return err
	}
	common.RegisterSink(recorder)

	var (
		reg       *registry.Registry
		backendFn pipeline.BackendResolver
		hasher    *hashing.Hasher
		embedder  embedding.Embedder
		reranker  rerank.Reranker
	)
	if err := container.Invoke(func(r *registry.Registry, h *hashing.Hasher, e embedding.Embedder, rr rerank.Reranker) {
		reg, hasher, embedder, reranker = r, h, e, rr
	}); err != nil {
		return err
	}
	if err := container.Invoke(func(fn pipeline.BackendResolver) { backendFn = fn }); err != nil {
		return err
	}

	var redisClient *redis.Client
	if err := container.Invoke(func(rdb *redis.Client) { redisClient = rdb }); err != nil {
		return err
	}

	host := NewNullHost()

	var pipelineReranker pipeline.Reranker
	if reranker != nil {
		pipelineReranker = rerank.PipelineAdapter{Reranker: reranker}
	}

	linkStore, err := buildLinkStore(cfg)
	if err != nil {
		return fmt.Errorf("link store: %w", err)
	}

	pl := pipeline.New(pipeline.Deps{
		Registry:        reg,
		Backend:         backendFn,
		Reranker:        pipelineReranker,
		Hasher:          hasher,
		ActivationStore: registry.NewActivationStore(redisClient),
		LinkStore:       linkStore,
		Host:            host,
		Tag:             "vecthare",
	})
	// A host-specific trigger (chat-message hook, agent turn callback, ...)
	// calls pl.Run per generation event; cmd/server has none of its own, so
	// pl is parked in the container for an embedding host to retrieve.
	if err := container.Provide(func() *pipeline.Pipeline { return pl }); err != nil {
		return err
	}

	syncEngine := syncengine.New(syncengine.Deps{
		Gate:     registry.NewSyncGate(redisClient, 0),
		Backend:  syncengine.BackendResolver(backendFn),
		Hasher:   hasher,
		Embedder: embedder,
	})

	messageSource := func(context.Context, types.CollectionID) ([]types.Message, bool, types.Settings, error) {
		// A host-supplied message store plugs in here; cmd/server runs
		// with no messages of its own until one is wired.
		return nil, false, cfg.Defaults, nil
	}
	syncHandler := httpapi.NewSyncHandler(syncEngine, messageSource)
	debugHandler := httpapi.NewDebugHandler(recorder)
	registryHandler := httpapi.NewRegistryHandler(reg)

	router := httpapi.NewRouter(httpapi.Config{
		JWTSecret:      cfg.Process.JWTSecret,
		AllowedOrigins: nil,
	}, syncHandler, debugHandler, registryHandler)

	scheduler := registry.NewScheduler(reg, registry.NewHeuristicDiscoverer("vecthare", heuristicProbe{backendFn}, nil))
	if err := scheduler.Start(ctx, "@every 5m"); err != nil {
		return fmt.Errorf("discovery scheduler: %w", err)
	}

	srv := &http.Server{Addr: cfg.Process.ListenAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof(ctx, "vecthare: listening on %s", cfg.Process.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRedis(cfg *config.Config) (*redis.Client, error) {
	return redis.NewClient(&redis.Options{Addr: cfg.Process.RedisAddr}), nil
}

func buildPostgres(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Process.PostgresDSN == "" {
		return nil, nil
	}
	return gorm.Open(postgres.Open(cfg.Process.PostgresDSN), &gorm.Config{})
}

func buildHasher() (*hashing.Hasher, error) {
	return hashing.NewHasher(hashing.Default, 10000), nil
}

func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	return embedding.New(embedding.Config{
		Source:    embedding.Source(cfg.Defaults.Source),
		BaseURL:   cfg.Process.EmbeddingBaseURL,
		APIKey:    cfg.Process.EmbeddingAPIKey,
		ModelName: cfg.Defaults.Model,
	})
}

func buildReranker(cfg *config.Config) (rerank.Reranker, error) {
	if !cfg.Defaults.BananabreadRerank {
		return nil, nil
	}
	return rerank.New(rerank.Config{
		BaseURL: cfg.Process.RerankBaseURL,
		APIKey:  cfg.Process.RerankAPIKey,
	}), nil
}

// buildBackendResolver constructs the three vectorbackend.Client
// implementations eagerly and returns a pipeline.BackendResolver closing
// over them, since settings.vector_backend may name any of them at
// request time.
func buildBackendResolver(cfg *config.Config, db *gorm.DB, emb embedding.Embedder) (pipeline.BackendResolver, error) {
	clients := map[types.VectorBackendKind]vectorbackend.Client{}

	if cfg.Process.QdrantAddr != "" {
		host, port, err := splitHostPort(cfg.Process.QdrantAddr)
		if err != nil {
			return nil, fmt.Errorf("qdrant addr: %w", err)
		}
		backend, err := qdrant.New(host, port, false, emb)
		if err != nil {
			return nil, fmt.Errorf("qdrant client: %w", err)
		}
		clients[types.BackendQdrant] = backend
	}

	if db != nil {
		clients[types.BackendPgvector] = pgvector.New(db, emb)
	}

	if len(cfg.Process.ElasticAddrs) > 0 {
		backend, err := elastic.New(elasticgo.Config{Addresses: cfg.Process.ElasticAddrs}, emb)
		if err != nil {
			return nil, fmt.Errorf("elastic client: %w", err)
		}
		clients[types.BackendElastic] = backend
	}

	return func(kind types.VectorBackendKind) (vectorbackend.Client, error) {
		client, ok := clients[kind]
		if !ok {
			return nil, errors.New(errors.KindConfigMissing, fmt.Sprintf("vector backend %q not configured", kind))
		}
		return client, nil
	}, nil
}

func buildRegistry(db *gorm.DB) (*registry.Registry, error) {
	if db == nil {
		return nil, errors.New(errors.KindConfigMissing, "process.postgres_dsn is required for the metadata store")
	}
	return registry.New(registry.NewPostgresStore(db)), nil
}

// buildLinkStore wires an optional Neo4j-backed groups.LinkStore when a
// graph database is configured; absent one, the pipeline's force-include
// boost step simply has no links to traverse.
func buildLinkStore(cfg *config.Config) (groups.LinkStore, error) {
	if cfg.Process.Neo4jURI == "" {
		return nil, nil
	}
	driver, err := neo4jgo.NewDriverWithContext(cfg.Process.Neo4jURI,
		neo4jgo.BasicAuth(cfg.Process.Neo4jUser, cfg.Process.Neo4jPassword, ""))
	if err != nil {
		return nil, err
	}
	return groups.NewNeo4jLinkStore(driver, "neo4j"), nil
}

func buildRecorder(cfg *config.Config) (*oteltracing.Recorder, error) {
	var sink oteltracing.Sink
	if cfg.Process.TraceDir != "" {
		sink = oteltracing.NewParquetSink(cfg.Process.TraceDir, oteltracing.DefaultFlushSize)
	}
	return oteltracing.NewRecorder(sink), nil
}

// heuristicProbe adapts a pipeline.BackendResolver into
// registry.HeuristicProbe, probing a collection's existence via
// ListHashes and treating vectorbackend.ErrCollectionNotFound as "does
// not exist" rather than an error.
type heuristicProbe struct {
	resolve pipeline.BackendResolver
}

func (p heuristicProbe) CollectionExists(ctx context.Context, collectionID string) (bool, error) {
	client, err := p.resolve(types.BackendQdrant)
	if err != nil {
		return false, nil
	}
	_, err = client.ListHashes(ctx, collectionID)
	if err == vectorbackend.ErrCollectionNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("port %q: %w", portStr, err)
	}
	return host, port, nil
}
