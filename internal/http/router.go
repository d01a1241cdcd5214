// Package httpapi wires the HTTP transport (Gin) to the record service,
// middleware and route handlers. It owns middleware ordering and the
// dependency graph: repository store → RecordService → handlers.
//
// Global chain, outermost first:
//  1. otelgin: one server span per request
//  2. RequestID: correlation id, echoed on the response
//  3. AccessLog: structured, PII-scrubbed access line
//  4. Recovery: panics become JSON 500s
//  5. body size cap
//  6. Metrics
//  7. gzip, CORS, security headers
//
// API group chain: Actor (401 without credentials) → RateLimiter. Create
// also runs IdempotencyValidator ahead of the limiter; its replays bypass it.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/unarchive-tracker/docs"
	"github.com/tbourn/unarchive-tracker/internal/config"
	"github.com/tbourn/unarchive-tracker/internal/domain"
	"github.com/tbourn/unarchive-tracker/internal/http/handlers"
	"github.com/tbourn/unarchive-tracker/internal/http/middleware"
	"github.com/tbourn/unarchive-tracker/internal/repo"
	"github.com/tbourn/unarchive-tracker/internal/services"
)

// NewRecordService builds the record service from cfg over db, using the
// GORM store for both persistence and auditing.
func NewRecordService(db *gorm.DB, cfg config.Config) *services.RecordService {
	deadline := cfg.Records.Deadline()
	store := repo.NewRecordStore(domain.WithDeadline(deadline))
	svc := services.NewRecordService(db, store, store)
	svc.Deadline = deadline
	if cfg.Records.MaxPageSize > 0 {
		svc.MaxPageSize = cfg.Records.MaxPageSize
	}
	if cfg.IdempotencyTTL > 0 {
		svc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	return svc
}

// RegisterRoutes attaches middleware and endpoints to r and mounts the
// record API under cfg.APIBasePath.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc *services.RecordService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(middleware.RedactOptions{
		// Free-text search usually carries a requester's name.
		MaskQuery: []string{"q"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(bodyLimit(cfg)))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:    cfg.Security.EnableHSTS,
		HSTSMaxAge:    cfg.Security.HSTSMaxAge,
		CacheControl:  middleware.CachePrivateRevalidate,
		ExposeHeaders: exposedHeaders,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", readiness(db))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	rl := middleware.NewRateLimiter(middleware.RateLimitOptions{
		RPS:        cfg.RateRPS,
		Burst:      cfg.RateBurst,
		WriteRPS:   cfg.RateWriteRPS,
		WriteBurst: cfg.RateWriteBurst,
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Actor(middleware.ActorOptions{
		JWTSecret:    []byte(cfg.Auth.JWTSecret),
		AllowHeaders: cfg.Auth.AllowHeaders,
	}))
	limit := rl.Handler()

	h := handlers.New(svc)

	// Only create honours Idempotency-Key, so a completed key cannot lift
	// the limiter on any other route.
	api.POST("/records",
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, svc.KeyCompleted),
		limit,
		h.CreateRecord,
	)

	limited := api.Group("", limit)
	{
		limited.GET("/records", h.ListRecords)

		// Reports; static segments win over :id in gin's tree.
		limited.GET("/records/overdue", h.ListOverdue)
		limited.GET("/records/urgent", h.ListUrgent)
		limited.GET("/records/dashboard", h.Dashboard)

		limited.GET("/records/:id", h.GetRecord)
		limited.PATCH("/records/:id", h.UpdateRecord)
		limited.DELETE("/records/:id", h.DeleteRecord)
		limited.POST("/records/:id/status", h.ChangeStatus)
		limited.POST("/records/:id/assign", h.AssignRecord)
		limited.POST("/records/:id/complete", h.CompleteRecord)
		limited.POST("/records/:id/restore", h.RestoreRecord)
		limited.DELETE("/records/:id/permanent", h.PurgeRecord)

		limited.GET("/admin/triage", h.Triage)
	}
}

var exposedHeaders = []string{"ETag", "Location", "Retry-After", "Idempotent-Replayed"}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
			middleware.HeaderUserID, middleware.HeaderUserRoles, middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders:    append([]string{"X-Request-ID", "Content-Length"}, exposedHeaders...),
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}

// readiness reports 503 while the database cannot be reached.
func readiness(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func bodyLimit(cfg config.Config) int64 {
	if cfg.MaxBodyBytes > 0 {
		return cfg.MaxBodyBytes
	}
	return 1 << 20
}

// limitBody caps the request body at maxBytes; reads past the cap fail and
// the JSON binder reports a bad request.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
