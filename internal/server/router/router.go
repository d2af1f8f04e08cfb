package router

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/server/handlers"
)

// PasswordHeader carries the shared input password on write requests.
const PasswordHeader = "X-Input-Password"

// Handlers groups the endpoint handlers.
type Handlers struct {
	Entries *handlers.EntryHandler
	Reports *handlers.ReportHandler
	Publish *handlers.PublishHandler
}

// Options configures the engine.
type Options struct {
	InputPassword      string
	CORSAllowedOrigins []string
	MaxMultipartMemory int64
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(corsConfig(opts.CORSAllowedOrigins)))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/attachments/", "/api/export.xlsx"})))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	write := api.Group("", requireInputPassword(opts.InputPassword, logger))

	write.POST("/auth/check", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.GET("/entries", h.Entries.List)
	write.POST("/entries", h.Entries.Create)
	write.PUT("/entries/:id", h.Entries.Update)
	write.DELETE("/entries/:id", h.Entries.Delete)
	write.PUT("/entry-keys", h.Entries.UpdateByKey)
	write.DELETE("/entry-keys", h.Entries.DeleteByKey)

	api.GET("/estimate", h.Reports.Estimate)
	write.PUT("/estimate", h.Reports.SaveEstimate)
	api.GET("/summary", h.Reports.Summary)
	api.GET("/series", h.Reports.Series)
	api.GET("/dashboard", h.Reports.Dashboard)
	api.GET("/attachments/:name", h.Reports.Attachment)
	api.GET("/export.xlsx", h.Reports.Export)

	write.POST("/publish", h.Publish.Publish)
	api.GET("/snapshots", h.Publish.Snapshots)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// requireInputPassword gates the input portal. It keeps casual visitors out of the forms and
// is not an authentication mechanism.
func requireInputPassword(password string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	expected := []byte(password)

	return func(c *gin.Context) {
		given := []byte(c.GetHeader(PasswordHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(given, expected) != 1 {
			logger.Warn("rejected write without valid input password",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
			return
		}
		c.Next()
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", PasswordHeader},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
