// Package bootstrap assembles the application: configuration, logging,
// optional Redis, the room registry, services, the hub and the HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	httpHandler "github.com/megabuster785/collab-whiteboard/internal/handler/http"
	wsHandler "github.com/megabuster785/collab-whiteboard/internal/handler/websocket"
	"github.com/megabuster785/collab-whiteboard/internal/hub"
	"github.com/megabuster785/collab-whiteboard/internal/middleware"
	"github.com/megabuster785/collab-whiteboard/internal/registry"
	"github.com/megabuster785/collab-whiteboard/internal/service"
)

// Config holds everything loaded from the environment.
type Config struct {
	ServerPort        string
	LogLevel          string
	AppEnv            string // development or production
	CORSAllowedOrigin string

	// Redis is optional: rate limiting is enabled only when RedisAddr is
	// set, because the engine itself keeps all state in process memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitMax    int
	RateLimitWindow time.Duration

	// Max retained actions per room, 0 = unbounded.
	RoomHistoryLimit int
}

// LoadConfig reads configuration from a .env file (if present) and the
// environment, applying defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		ServerPort:        os.Getenv("SERVER_PORT"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		AppEnv:            os.Getenv("APP_ENV"),
		CORSAllowedOrigin: os.Getenv("CORS_ALLOWED_ORIGIN"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RateLimitMax:      100,
		RateLimitWindow:   1 * time.Second,
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RateLimitWindow = d
		}
	}
	if v := os.Getenv("ROOM_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RoomHistoryLimit = n
		}
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "5000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.CORSAllowedOrigin == "" {
		cfg.CORSAllowedOrigin = "http://localhost:3000"
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App holds the running components.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	RedisClient *redis.Client
	Registry    *registry.Registry
	Hub         *hub.Hub
	HttpServer  *http.Server
}

// NewApp creates and wires all components.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	// Contextual logging throughout the codebase goes through the package
	// logger, so configure it the same way.
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(logLevel)
	logrus.SetOutput(os.Stdout)
	log.Infof("Logger initialized (level: %s)", logLevel.String())

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info("Redis client initialized")
	} else {
		log.Info("REDIS_ADDR not set, rate limiting disabled")
	}

	reg := registry.NewRegistry(cfg.RoomHistoryLimit)
	roomService := service.NewRoomService(reg)
	collabService := service.NewCollaborationService(reg)
	log.Info("Registry and services initialized")

	hubInstance := hub.NewHub(roomService, collabService)
	log.Info("Hub initialized")

	roomHandler := httpHandler.NewRoomHandler(roomService)
	websocketHandler := wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSAllowedOrigin)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	if redisClient != nil {
		router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	api := router.Group("/api")
	{
		api.GET("/rooms/:roomId", roomHandler.GetRoom)
	}
	router.GET("/ws", websocketHandler.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	return &App{
		Config:      cfg,
		Log:         log,
		RedisClient: redisClient,
		Registry:    reg,
		Hub:         hubInstance,
		HttpServer:  httpServer,
	}, nil
}

// Start launches the hub loop and the HTTP server.
func (a *App) Start() {
	go a.Hub.Run()
	go a.logStats()

	go func() {
		a.Log.Infof("Server listening on :%s", a.Config.ServerPort)
		if err := a.HttpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Log.WithError(err).Fatal("HTTP server failed")
		}
	}()
}

// logStats periodically reports room growth. Rooms are never evicted, so
// this is the observable side of the accepted resource-growth trade-off.
func (a *App) logStats() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		a.Log.WithField("rooms", a.Registry.Len()).Info("Registry stats")
	}
}

// Shutdown stops the HTTP server, the hub loop and the Redis client.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.WithError(err).Warn("HTTP server shutdown error")
	}

	a.Hub.Stop()

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.WithError(err).Warn("Redis client close error")
		}
	}

	a.Log.Info("Shutdown complete")
}
