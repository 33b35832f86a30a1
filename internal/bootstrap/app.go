// Package bootstrap assembles a SymptomSense process from configuration:
// the extraction and prediction pipeline, the recommendation service, the
// optional stores behind them and the HTTP surface.
package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymptomSense/internal/application/prediction"
	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/config"
	neo4jrepo "github.com/turtacn/SymptomSense/internal/infrastructure/database/neo4j/repositories"
	pgrepo "github.com/turtacn/SymptomSense/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/SymptomSense/internal/infrastructure/database/redis"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/prometheus"
	minioclient "github.com/turtacn/SymptomSense/internal/infrastructure/storage/minio"
	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
	httpserver "github.com/turtacn/SymptomSense/internal/interfaces/http"
	"github.com/turtacn/SymptomSense/internal/interfaces/http/handlers"
	"github.com/turtacn/SymptomSense/internal/interfaces/http/middleware"
)

const (
	// EventSource identifies this service in published events.
	EventSource = "symsense"

	flushTimeout = 10 * time.Second
)

// Options adjust New.
type Options struct {
	// Version is reported by /healthz.
	Version string
	// Logger replaces the logger built from the log section.
	Logger logging.Logger
	// Catalog replaces the configured medication catalog.
	Catalog recommendation.MedicationCatalog
	// Models replaces the configured artifact source.
	Models *disease.ModelLoader
}

// App is a fully wired process.  Fields are read-only after New.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Tables    symptom.TableProvider
	Extractor *symptom.Extractor
	Models    *disease.ModelLoader
	Pipeline  *prediction.Pipeline
	// Predictor is Pipeline behind the configured cache and event layers.
	Predictor   prediction.Predictor
	Recommender *recommendation.Recommender
	Service     recommendation.Service
	// Histories is nil unless Postgres is enabled.
	Histories *pgrepo.PatientHistoryRepo

	version   string
	infra     *infrastructure
	watcher   *symptom.TableWatcher
	cache     redisclient.Cache
	closeOnce sync.Once
}

// New connects the enabled dependencies and wires every component.  On
// error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		l, err := logging.NewLogger(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: logger: %w", err)
		}
		logger = l
	}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: cfg.Metrics.Enabled,
		EnableGoMetrics:      cfg.Metrics.Enabled,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: metrics: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Collector: collector,
		Metrics:   prometheus.NewAppMetrics(collector),
		version:   opts.Version,
	}

	infra, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.infra = infra

	if err := app.initExtractor(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initPrediction(ctx, opts.Models); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initRecommendation(opts.Catalog); err != nil {
		app.Close()
		return nil, err
	}

	logger.Info("symsense assembled",
		logging.String("version", opts.Version),
		logging.String("model_source", cfg.Model.Source),
		logging.String("parser", cfg.NLP.Parser),
		logging.Bool("semantic_matching", cfg.NLP.VectorsPath != ""),
		logging.Bool("recommendations", app.Recommender != nil))
	return app, nil
}

func (a *App) initExtractor() error {
	cfg := a.Config

	switch {
	case cfg.Synonyms.Path == "":
		a.Tables = symptom.DefaultSynonymTable()
	case cfg.Synonyms.Watch:
		w, err := symptom.NewTableWatcher(cfg.Synonyms.Path, a.Logger)
		if err != nil {
			return err
		}
		w.OnReload = func(*symptom.SynonymTable) { a.flushPredictions() }
		a.watcher = w
		a.Tables = w
	default:
		t, err := symptom.LoadSynonymTable(cfg.Synonyms.Path)
		if err != nil {
			return err
		}
		a.Tables = t
	}

	var parser symptom.Parser = symptom.NewRuleParser()
	if cfg.NLP.Parser == "http" {
		p, err := symptom.NewHTTPParser(symptom.HTTPParserConfig{
			Endpoint: cfg.NLP.Endpoint,
			Timeout:  cfg.NLP.Timeout,
		}, nil)
		if err != nil {
			return err
		}
		parser = p
	}

	var embedder symptom.Embedder
	if cfg.NLP.VectorsPath != "" {
		vectors, err := symptom.LoadWordVectors(cfg.NLP.VectorsPath)
		if err != nil {
			return err
		}
		embedder = symptom.NewCachedEmbedder(vectors, cfg.NLP.EmbeddingCacheSize)
	} else {
		a.Logger.Warn("semantic symptom matching disabled: nlp.vectors_path is not set")
	}

	a.Extractor = symptom.NewExtractor(a.Tables, symptom.NewNegationDetector(parser, a.Tables), embedder,
		symptom.ExtractorConfig{
			FuzzyCutoff:       cfg.Pipeline.FuzzyCutoff,
			SemanticThreshold: cfg.Pipeline.SemanticThreshold,
			MaxSymptoms:       cfg.Pipeline.MaxSymptoms,
		}, a.Logger.Named("extractor"))
	return nil
}

func (a *App) initPrediction(ctx context.Context, models *disease.ModelLoader) error {
	cfg := a.Config

	if models == nil {
		var source disease.ArtifactSource = disease.FileSource{Path: cfg.Model.Path}
		if cfg.Model.Source == "minio" {
			source = minioclient.NewArtifactStore(a.infra.minio, cfg.Model.Object, a.Logger)
		}
		models = disease.NewModelLoader(source, a.Logger, a.Metrics.ObserveModelLoad)
	}
	a.Models = models

	if cfg.Model.Eager {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.Model.LoadTimeout)
		defer cancel()
		model, err := a.Models.Get(loadCtx)
		if err != nil {
			return err
		}
		a.reportVocabulary(model)
	}

	a.Pipeline = prediction.NewPipeline(a.Extractor, a.Models, prediction.Config{
		MinConfidence: cfg.Pipeline.MinConfidence,
		TopK:          cfg.Pipeline.TopK,
	}, a.Metrics, a.Logger)

	var predictor prediction.Predictor = a.Pipeline
	if a.infra.redis != nil {
		a.cache = redisclient.NewRedisCache(a.infra.redis, a.Logger,
			redisclient.WithPrefix(cfg.Redis.KeyPrefix),
			redisclient.WithDefaultTTL(cfg.Redis.CacheTTL))
		predictor = prediction.NewCachedPredictor(predictor, a.cache, cfg.Redis.CacheTTL, a.Metrics, a.Logger)
	}
	if a.infra.kafka != nil {
		predictor = prediction.NewEventPublisher(predictor, a.infra.kafka, cfg.Kafka.Topic, EventSource, a.Logger)
	}
	a.Predictor = predictor
	return nil
}

func (a *App) initRecommendation(catalog recommendation.MedicationCatalog) error {
	cfg := a.Config

	if catalog == nil {
		switch {
		case a.infra.pg != nil:
			catalog = pgrepo.NewMedicationRepo(a.infra.pg, a.Logger)
		case cfg.Recommendation.CatalogPath != "":
			c, err := recommendation.LoadCatalogFile(cfg.Recommendation.CatalogPath)
			if err != nil {
				return err
			}
			catalog = c
		}
	}

	var interactions recommendation.InteractionRepository
	if a.infra.neo4j != nil {
		interactions = neo4jrepo.NewInteractionRepo(a.infra.neo4j, a.Logger)
	}

	var histories recommendation.PatientHistoryRepository
	if a.infra.pg != nil {
		a.Histories = pgrepo.NewPatientHistoryRepo(a.infra.pg, a.Logger)
		histories = a.Histories
	}

	if catalog != nil {
		a.Recommender = recommendation.NewRecommender(catalog, interactions, recommendation.Config{
			CandidateLimit: cfg.Recommendation.CandidateLimit,
			PerDisease:     cfg.Pipeline.MedicationsPerDisease,
			RelevanceRatio: cfg.Recommendation.RelevanceRatio,
		}, a.Logger)
	}
	a.Service = recommendation.NewService(a.Predictor, a.Recommender, histories, a.Logger)
	return nil
}

// reportVocabulary warns about synonym table symptoms the model cannot use.
func (a *App) reportVocabulary(model *disease.ModelArtifact) {
	gaps := disease.VocabularyGaps(a.Tables.Table(), model.FeatureNames)
	if len(gaps) == 0 {
		return
	}
	a.Logger.Warn("synonym table symptoms missing from model vocabulary",
		logging.Int("count", len(gaps)), logging.Strings("symptoms", gaps))
}

// flushPredictions drops cached results computed with an older table.
func (a *App) flushPredictions() {
	if a.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	n, err := a.cache.DeleteByPrefix(ctx, prediction.CacheKeyPrefix)
	if err != nil {
		a.Logger.Warn("prediction cache flush failed", logging.Err(err))
		return
	}
	a.Logger.Info("prediction cache flushed", logging.Int64("keys", n))
}

// Start launches background work tied to ctx.
func (a *App) Start(ctx context.Context) {
	if a.watcher == nil {
		return
	}
	go func() {
		if err := a.watcher.Run(ctx); err != nil && ctx.Err() == nil {
			a.Logger.Error("synonym watcher stopped", logging.Err(err))
		}
	}()
}

// HealthCheckers returns one readiness check per enabled dependency plus
// the model.  A lazy model is loaded by the first readiness probe.
func (a *App) HealthCheckers() []handlers.HealthChecker {
	checks := []handlers.HealthChecker{
		handlers.NewChecker("model", func(ctx context.Context) error {
			if a.Models.Loaded() {
				return nil
			}
			if a.Config.Model.Eager {
				return fmt.Errorf("model not loaded")
			}
			_, err := a.Models.Get(ctx)
			return err
		}),
	}
	if a.infra.pg != nil {
		checks = append(checks, handlers.NewChecker("postgres", a.infra.pg.HealthCheck))
	}
	if a.infra.neo4j != nil {
		checks = append(checks, handlers.NewChecker("neo4j", a.infra.neo4j.HealthCheck))
	}
	if a.infra.redis != nil {
		checks = append(checks, handlers.NewChecker("redis", a.infra.redis.Ping))
	}
	if a.infra.minio != nil {
		checks = append(checks, handlers.NewChecker("minio", a.infra.minio.HealthCheck))
	}
	return checks
}

// Router builds the HTTP route tree.
func (a *App) Router() *gin.Engine {
	cfg := a.Config
	rc := httpserver.RouterConfig{
		SymptomHandler:     handlers.NewSymptomHandler(a.Service, a.Extractor, a.Metrics, cfg.Pipeline.RequestTimeout, a.Logger),
		InteractionHandler: handlers.NewInteractionHandler(a.Service, a.Metrics, cfg.Pipeline.RequestTimeout, a.Logger),
		HealthHandler:      handlers.NewHealthHandler(a.version, a.Metrics, a.HealthCheckers()...),
		Logger:             a.Logger,
		Metrics:            a.Metrics,
		Logging:            middleware.DefaultLoggingConfig(),
		MaxBodyBytes:       cfg.Server.MaxBodyBytes,
	}
	if a.Histories != nil {
		rc.PatientHandler = handlers.NewPatientHandler(a.Histories, a.Logger)
	}
	if cfg.Metrics.Enabled {
		rc.MetricsHandler = a.Collector.Handler()
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSAllowedOrigins
		rc.CORS = &cors
	}
	return httpserver.NewRouter(rc)
}

// Server wraps Router in the configured listener.
func (a *App) Server() *httpserver.Server {
	cfg := a.Config.Server
	return httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, a.Router(), a.Logger)
}

// Run serves HTTP until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	gin.SetMode(a.Config.Server.Mode)
	a.Start(ctx)
	return a.Server().Run(ctx)
}

// Close releases every dependency.  It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.watcher != nil {
			if err := a.watcher.Close(); err != nil {
				a.Logger.Warn("close synonym watcher", logging.Err(err))
			}
		}
		if a.infra != nil {
			a.infra.Close(a.Logger)
		}
	})
}
