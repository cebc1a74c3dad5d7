package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/convgate/convgate/config"
	"github.com/convgate/convgate/controllers"
	"github.com/convgate/convgate/middleware"
	"github.com/convgate/convgate/storage"
	"github.com/convgate/convgate/utils"
	"github.com/convgate/convgate/workers"
)

// SetupRouter wires routes, middlewares, and controllers. The job tracker,
// worker pool, and temp store are constructed by the caller and injected here.
func SetupRouter(cfg config.AppConfig, store *storage.TempStore, tracker *workers.Tracker, runner *workers.Runner) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")
	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})
	r.GET("/healthz", func(ctx *gin.Context) {
		utils.JSON(ctx, http.StatusOK, gin.H{"status": "ok"})
	})

	convertController := controllers.NewConvertController(cfg, store, tracker, runner)

	// Global ceiling smooths floods that no single-client window can see.
	// Sized for ~20 clients at their full per-client rate.
	perSecond := float64(cfg.RateLimitMax) / cfg.RateLimitWindow().Seconds() * 20
	global := rate.NewLimiter(rate.Limit(perSecond), cfg.RateLimitMax)
	perClient := middleware.NewSlidingWindow(cfg.RateLimitMax, cfg.RateLimitWindow(), utils.GetRedis())

	api := r.Group("/api")
	api.POST("/convert", middleware.RateLimit(perClient, global), convertController.Convert)
	api.GET("/status/:id", convertController.Status)

	r.GET("/download/:name", convertController.Download)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Fail(ctx, http.StatusNotFound, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
