package di

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"ideagraph/application/ports"
	"ideagraph/application/prompts"
	"ideagraph/application/services"
	"ideagraph/infrastructure/config"
	"ideagraph/infrastructure/llm"
	"ideagraph/infrastructure/messaging"
	"ideagraph/infrastructure/observability"
	"ideagraph/infrastructure/persistence/dynamodb"
	"ideagraph/infrastructure/persistence/memory"
	"ideagraph/infrastructure/persistence/sqlite"
	"ideagraph/infrastructure/rag"
	"ideagraph/interfaces/http/rest"
	"ideagraph/pkg/auth"
	"ideagraph/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Service *services.ProjectService
	Handler http.Handler
	Metrics *observability.Collector
	Tracing *observability.TracerProvider
	Watcher *prompts.Watcher
}

// Retrieval groups the optional retrieval collaborators; both are nil when disabled
type Retrieval struct {
	Retriever ports.Retriever
	Indexer   ports.DocumentIndexer
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	var logger *zap.Logger
	var err error

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, nil, err
	}

	return logger, func() { _ = logger.Sync() }, nil
}

func usesAWS(cfg *config.Config) bool {
	return cfg.StoreBackend == "dynamodb" || cfg.EventsBackend == "eventbridge"
}

// ProvideAWSConfig loads AWS configuration when a backend needs it
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if !usesAWS(cfg) {
		return aws.Config{}, nil
	}
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, or nil for other store backends
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	if cfg.StoreBackend != "dynamodb" {
		return nil
	}
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client, or nil when events go to the log
func ProvideEventBridgeClient(awsCfg aws.Config, cfg *config.Config) *awseventbridge.Client {
	if cfg.EventsBackend != "eventbridge" {
		return nil
	}
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideSQLiteDB opens the embedded database when the sqlite store is selected
func ProvideSQLiteDB(cfg *config.Config, logger *zap.Logger) (*sql.DB, func(), error) {
	if cfg.StoreBackend != "sqlite" {
		return nil, func() {}, nil
	}
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("SQLite store opened", zap.String("path", cfg.SQLitePath))
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close SQLite store", zap.Error(err))
		}
	}, nil
}

// ProvideProjectRepository selects the project store
func ProvideProjectRepository(
	cfg *config.Config,
	db *sql.DB,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) (ports.ProjectRepository, error) {
	switch cfg.StoreBackend {
	case "memory":
		return memory.NewInMemoryProjectStore(), nil
	case "sqlite":
		return sqlite.NewProjectStore(db, logger), nil
	case "dynamodb":
		return dynamodb.NewProjectStore(client, cfg.DynamoDBTable, logger), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}

// ProvideTokenCounter creates the shared tokenizer
func ProvideTokenCounter() (*utils.TokenCounter, error) {
	return utils.NewTokenCounter()
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.ServiceName)
}

// ProvideTracing starts the tracer provider
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		return nil, nil, err
	}
	return tp, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to shut down tracing", zap.Error(err))
		}
	}, nil
}

// ProvideTracer returns the service tracer
func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideLanguageModel builds the configured model client with its middleware
func ProvideLanguageModel(ctx context.Context, cfg *config.Config, recorder llm.Recorder, logger *zap.Logger) (ports.LanguageModel, error) {
	return llm.NewFromConfig(ctx, llm.Config{
		Provider:            cfg.LLMProvider,
		Model:               cfg.LLMModel,
		MaxTokens:           cfg.LLMMaxTokens,
		Temperature:         cfg.LLMTemperature,
		Timeout:             cfg.LLMTimeout,
		AnthropicAPIKey:     cfg.AnthropicAPIKey,
		OpenAIAPIKey:        cfg.OpenAIAPIKey,
		GeminiAPIKey:        cfg.GeminiAPIKey,
		OllamaHost:          cfg.OllamaHost,
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerMinRequests:  cfg.BreakerMinRequests,
		BreakerTimeout:      cfg.BreakerTimeout,
	}, recorder, logger)
}

// ProvideRetrieval wires the embedder and document store when retrieval is enabled.
// Documents share the sqlite database when that store is selected.
func ProvideRetrieval(cfg *config.Config, db *sql.DB, counter *utils.TokenCounter, logger *zap.Logger) (Retrieval, error) {
	if !cfg.RAGEnabled {
		return Retrieval{}, nil
	}

	var embedder rag.Embedder
	switch cfg.EmbeddingProvider {
	case "openai":
		embedder = rag.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	case "ollama":
		e, err := rag.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel)
		if err != nil {
			return Retrieval{}, err
		}
		embedder = e
	default:
		return Retrieval{}, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}

	var store rag.DocumentStore = rag.NewMemoryDocumentStore()
	if db != nil {
		store = rag.NewSQLiteDocumentStore(db)
	}

	retriever := rag.NewVectorRetriever(embedder, store, counter, cfg.RAGTopK, cfg.RAGMaxTokens, logger)
	return Retrieval{Retriever: retriever, Indexer: retriever}, nil
}

// ProvideEventPublisher selects where domain events go
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventsBackend == "eventbridge" {
		return messaging.NewEventBridgePublisher(client, cfg.EventBusName, logger)
	}
	return messaging.NewLogPublisher(logger)
}

// ProvidePromptCatalog creates the catalog with the built-in templates
func ProvidePromptCatalog(counter *utils.TokenCounter, logger *zap.Logger) (*prompts.Catalog, error) {
	return prompts.NewCatalog(counter, logger)
}

// ProvidePromptWatcher applies and watches the override file, if one is configured
func ProvidePromptWatcher(cfg *config.Config, catalog *prompts.Catalog, logger *zap.Logger) (*prompts.Watcher, func(), error) {
	if cfg.PromptsFile == "" {
		return nil, func() {}, nil
	}
	w, err := prompts.NewWatcher(cfg.PromptsFile, catalog, logger)
	if err != nil {
		return nil, nil, err
	}
	return w, func() { _ = w.Close() }, nil
}

// ProvideServiceOptions maps concurrency settings onto the service
func ProvideServiceOptions(cfg *config.Config) services.Options {
	opts := services.DefaultOptions()
	opts.MaxAttempts = cfg.OptimisticMaxRetries
	opts.OpportunityTagRequired = cfg.OpportunityTagRequired
	return opts
}

// ProvideProjectService creates the operation orchestrator
func ProvideProjectService(
	repo ports.ProjectRepository,
	model ports.LanguageModel,
	retrieval Retrieval,
	publisher ports.EventPublisher,
	catalog *prompts.Catalog,
	metrics services.Metrics,
	tracer trace.Tracer,
	opts services.Options,
	logger *zap.Logger,
) *services.ProjectService {
	return services.NewProjectService(
		repo, model, retrieval.Retriever, retrieval.Indexer, publisher,
		catalog, metrics, tracer, opts, logger,
	)
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: cfg.JWTSigningMethod,
		SecretKey:     cfg.JWTSecret,
		PublicKey:     cfg.JWTPublicKey,
		Issuer:        cfg.JWTIssuer,
		Audience:      cfg.JWTAudience,
	})
}

// ProvideRateLimiter creates the per-user limiter
func ProvideRateLimiter(cfg *config.Config) *auth.UserRateLimiter {
	return auth.NewUserRateLimiter(cfg.RateLimitPerMinute)
}

// ProvideReadyFunc checks the selected store
func ProvideReadyFunc(cfg *config.Config, db *sql.DB, client *awsdynamodb.Client) rest.ReadyFunc {
	switch {
	case db != nil:
		return func(ctx context.Context) error { return db.PingContext(ctx) }
	case client != nil:
		return func(ctx context.Context) error {
			_, err := client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{
				TableName: aws.String(cfg.DynamoDBTable),
			})
			return err
		}
	default:
		return nil
	}
}

// ProvideHTTPHandler builds the router
func ProvideHTTPHandler(
	cfg *config.Config,
	service *services.ProjectService,
	validator *auth.JWTValidator,
	limiter *auth.UserRateLimiter,
	metrics *observability.Collector,
	ready rest.ReadyFunc,
	logger *zap.Logger,
) http.Handler {
	router := rest.NewRouter(service, validator, limiter, metrics, ready, rest.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Debug:          cfg.IsDevelopment(),
	}, logger)
	return router.Setup()
}
