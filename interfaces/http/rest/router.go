package rest

import (
	"context"
	"net/http"
	"time"

	"ideagraph/application/services"
	"ideagraph/infrastructure/observability"
	"ideagraph/interfaces/http/rest/handlers"
	"ideagraph/interfaces/http/rest/middleware"
	"ideagraph/pkg/auth"
	"ideagraph/pkg/common"
	pkgerrors "ideagraph/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadyFunc reports whether dependencies can serve traffic
type ReadyFunc func(ctx context.Context) error

// RouterConfig carries the HTTP-level settings
type RouterConfig struct {
	AllowedOrigins []string
	Debug          bool
}

// Router creates and configures the HTTP router
type Router struct {
	service   *services.ProjectService
	validator *auth.JWTValidator
	limiter   *auth.UserRateLimiter
	metrics   *observability.Collector
	ready     ReadyFunc
	cfg       RouterConfig
	logger    *zap.Logger
}

// NewRouter creates a new router instance. metrics and ready may be nil.
func NewRouter(
	service *services.ProjectService,
	validator *auth.JWTValidator,
	limiter *auth.UserRateLimiter,
	metrics *observability.Collector,
	ready ReadyFunc,
	cfg RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		service:   service,
		validator: validator,
		limiter:   limiter,
		metrics:   metrics,
		ready:     ready,
		cfg:       cfg,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger.Named("http"), rt.cfg.Debug)

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger.Named("http")))
	router.Use(errorHandler.Middleware)
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	origins := rt.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	projectHandler := handlers.NewProjectHandler(rt.service, errorHandler, rt.logger)
	ideaHandler := handlers.NewIdeaHandler(rt.service, errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.limiter, errorHandler, rt.logger.Named("auth")))

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.CreateProject)
			r.Get("/", projectHandler.ListProjects)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", projectHandler.GetProject)
				r.Post("/converse", projectHandler.Converse)
				r.Post("/synthesize", projectHandler.Synthesize)
				r.Post("/rate", projectHandler.RateProject)
				r.Post("/pitch", projectHandler.GeneratePitch)
				r.Patch("/nodes/positions", projectHandler.UpdateNodePositions)
				r.Patch("/nodes/{nodeID}", projectHandler.RegenerateNode)
				r.Delete("/nodes/{nodeID}", projectHandler.DeleteNode)
			})
		})

		r.Post("/ideas/analyze", ideaHandler.AnalyzeIdea)
		r.Post("/documents", ideaHandler.AddDocument)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
