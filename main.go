package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"ocr-api-go/cache"
	"ocr-api-go/circuitbreaker"
	"ocr-api-go/config"
	"ocr-api-go/extract"
	"ocr-api-go/logcolors"
	"ocr-api-go/middleware"
	"ocr-api-go/services/notifier"
	"ocr-api-go/services/ocrengine"
	"ocr-api-go/services/ocrengine/remote"
	"ocr-api-go/services/ocrengine/tesseract"
	"ocr-api-go/stats"
)

var conf = config.Get()

// Shared process-wide state wired in main and read by the handlers
var (
	respCache  *cache.LRU
	ocrBreaker *circuitbreaker.CircuitBreaker
	svc        *extract.Service
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn("Error loading .env file, using environment variables")
	}
}

// buildEngine selects the OCR engine from configuration
func buildEngine() ocrengine.Engine {
	switch conf.Configuration.OCREngine {
	case "remote":
		if conf.Configuration.RemoteOCRBaseURL == "" {
			log.Fatalf("%s OCR_ENGINE=remote requires REMOTE_OCR_BASE_URL", logcolors.LogConfig)
		}
		return remote.New(conf.Configuration.RemoteOCRBaseURL, conf.Configuration.RemoteOCRAPIKey, conf.OCRTimeout())
	default:
		return tesseract.New()
	}
}

func main() {
	notifier.Register(setupNotifiers()...)

	respCache = cache.New(conf.Configuration.CacheCapacity, conf.CacheTTL())
	stopSweeper := respCache.StartSweeper(conf.CacheSweepInterval())

	ocrBreaker = circuitbreaker.New(circuitbreaker.Config{
		Name:      "ocr-engine",
		Threshold: conf.Configuration.CircuitBreakerThreshold,
		Cooldown:  time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second,
	})

	engine := buildEngine()
	log.Infof("%s Using OCR engine: %s", logcolors.LogServer, engine.Name())

	svc = extract.NewService(extract.Config{
		Cache:           respCache,
		Engine:          engine,
		Breaker:         ocrBreaker,
		MaxFileSize:     conf.MaxFileSizeBytes(),
		MaxBatchSize:    conf.Configuration.MaxBatchSize,
		OCRTimeout:      conf.OCRTimeout(),
		CompressEntries: conf.FeatureFlags.CacheCompression,
	})

	// Stats persistence is best effort; run without it if the volume is absent
	var statsStore *stats.Store
	if store, err := stats.NewStore(conf.Configuration.StatsDBPath); err != nil {
		log.Warnf("%s Stats persistence disabled: %v", logcolors.LogStats, err)
	} else {
		statsStore = store
		if err := statsStore.Load(); err != nil {
			log.Warnf("%s Failed to load persisted stats: %v", logcolors.LogStats, err)
		}
		statsStore.StartAutoSave(time.Duration(conf.Configuration.StatsAutoSaveIntervalSecs) * time.Second)
	}

	router := mux.NewRouter()
	setupRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   conf.Configuration.AllowedOrigins,
		AllowCredentials: true,
	})

	limiter := middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond),
		conf.Configuration.RateLimitBurstLimit,
		rate.Limit(conf.Configuration.CachedRateLimitPerSecond),
		conf.Configuration.CachedRateLimitBurstLimit,
	)

	apiKeyMiddleware := middleware.APIKeyMiddleware(
		conf.Configuration.APIKey,
		conf.Configuration.APIKeyRequired,
		[]string{"/", "/health"},
	)

	protectedRouter := apiKeyMiddleware(router)
	loggedRouter := middleware.LoggingMiddleware(protectedRouter)
	corsHandler := c.Handler(loggedRouter)
	handler := limitMiddleware(corsHandler, limiter)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	go func() {
		log.Infof("%s Server listening on port %s", logcolors.LogServer, port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("%s Server failed: %v", logcolors.LogServer, err)
		}
	}()

	// Graceful shutdown: stop the sweeper and flush stats before exit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("%s Shutting down", logcolors.LogServer)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s Forced shutdown: %v", logcolors.LogServer, err)
	}

	stopSweeper()
	if statsStore != nil {
		statsStore.Close()
	}
}
