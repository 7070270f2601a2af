package api

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/api/handlers"
	"github.com/yourusername/yt-stream-go/api/middleware"
	"github.com/yourusername/yt-stream-go/internal/app"
	"github.com/yourusername/yt-stream-go/internal/domain"
	"github.com/yourusername/yt-stream-go/pkg/logger"
	"github.com/yourusername/yt-stream-go/web"
)

// Version is the reported service version
const Version = "1.0.0"

// RouterDeps carries everything the router needs wired
type RouterDeps struct {
	Config       *domain.Config
	Resolver     *app.FormatResolver
	Orchestrator *app.Orchestrator
	Registry     *app.ProgressRegistry
	History      domain.HistoryRepository
	ErrorLog     *logger.ErrorLog
	Logger       *zap.Logger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(Version)
	router.GET("/health", healthHandler.Health)

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.RateLimit(
		deps.Config.RateLimit.RequestsPerSecond,
		deps.Config.RateLimit.Burst,
	))
	{
		formatHandler := handlers.NewFormatHandler(deps.Resolver, deps.Logger)
		apiGroup.GET("/formats", formatHandler.ListFormats)

		downloadHandler := handlers.NewDownloadHandler(deps.Orchestrator, deps.Logger)
		apiGroup.GET("/download",
			middleware.APIKeyAuth(deps.Config.Auth.APIKey),
			downloadHandler.Download,
		)

		progressHandler := handlers.NewProgressHandler(deps.Registry, deps.Logger)
		apiGroup.GET("/progress", progressHandler.Stream)

		logHandler := handlers.NewLogHandler(deps.ErrorLog, deps.Config.Auth.DebugSecret)
		apiGroup.GET("/logs", logHandler.Tail)

		if deps.History != nil {
			historyHandler := handlers.NewHistoryHandler(deps.History, deps.Logger)
			apiGroup.GET("/history", historyHandler.ListHistory)
			apiGroup.GET("/stats", historyHandler.GetStats)
		}
	}

	// Embedded single-page front-end
	staticFS := web.GetStaticFS()
	router.GET("/", func(c *gin.Context) {
		serveStatic(c, staticFS, "index.html")
	})
	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serveStatic(c, staticFS, strings.TrimPrefix(path, "/"))
	})

	return router
}

// serveStatic serves a file from the embedded filesystem with a content
// type derived from its extension.
func serveStatic(c *gin.Context, staticFS fs.FS, filePath string) {
	content, err := fs.ReadFile(staticFS, filePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(filePath, ".html"):
		contentType = "text/html; charset=utf-8"
	case strings.HasSuffix(filePath, ".css"):
		contentType = "text/css; charset=utf-8"
	case strings.HasSuffix(filePath, ".js"):
		contentType = "application/javascript; charset=utf-8"
	case strings.HasSuffix(filePath, ".json"):
		contentType = "application/json; charset=utf-8"
	case strings.HasSuffix(filePath, ".svg"):
		contentType = "image/svg+xml"
	case strings.HasSuffix(filePath, ".png"):
		contentType = "image/png"
	}

	c.Data(http.StatusOK, contentType, content)
}
