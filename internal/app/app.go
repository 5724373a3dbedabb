package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/waste3d/cfproxyhub/internal/application"
	"github.com/waste3d/cfproxyhub/internal/config"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/infrastructure/dnssync"
	"github.com/waste3d/cfproxyhub/internal/infrastructure/persistence"
	http_handlers "github.com/waste3d/cfproxyhub/internal/interfaces/http"
	"github.com/waste3d/cfproxyhub/internal/interfaces/http/middlewares"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	apiServer *http.Server
	dbpool    *pgxpool.Pool
}

func New(ctx context.Context, cfg config.ServerConfig) (*App, error) {
	logger.SetLevel(cfg.LogLevel)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Storage
	var (
		hostnameRepo domain.HostnameRepository
		sessionRepo  domain.SessionRepository
		dbPool       *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		var err error
		dbPool, err = initDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		hostnameRepo = persistence.NewPostgresHostnameRepository(dbPool)
		sessionRepo = persistence.NewPostgresSessionRepository(dbPool)
	} else {
		logger.Logger.Warn("database_url not set, hostnames are kept in memory")
		hostnameRepo = persistence.NewMemoryHostnameRepository()
		sessionRepo = persistence.NewMemorySessionRepository()
	}

	// DNS
	var (
		zones domain.ZoneSource = persistence.NewStaticZoneSource(cfg.Zones)
		dns   application.DNSSyncer
	)
	if cfg.CloudflareAPIToken != "" {
		adapter := dnssync.NewCloudflare(cfg.CloudflareAPIToken, domain.ZoneNames(cfg.Zones))
		zones = adapter
		dns = adapter
		logger.Logger.Info("Cloudflare DNS sync enabled")
	}

	ingressService := application.NewIngressService(hostnameRepo, zones, dns)
	authService := application.NewAuthService(sessionRepo, cfg.AdminUsername, cfg.AdminPassword, cfg.SessionTTL)

	return &App{
		apiServer: initApiServer(cfg, ingressService, authService),
		dbpool:    dbPool,
	}, nil
}

// Run serves the API until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Infof("API server listening on %s", a.apiServer.Addr)
		if err := a.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			a.close()
			return fmt.Errorf("failed to serve API server: %w", err)
		}
	case <-quit:
	}

	logger.Logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.apiServer.Shutdown(ctx); err != nil {
		a.close()
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	a.close()

	logger.Logger.Info("Server shutdown complete")
	return nil
}

func (a *App) close() {
	if a.dbpool != nil {
		a.dbpool.Close()
	}
}

func initDB(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err = dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err = persistence.EnsureSchema(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, err
	}
	logger.Logger.Info("Successfully connected to database using pgxpool.")

	return dbPool, nil
}

func initApiServer(cfg config.ServerConfig, ingress *application.IngressService, auth *application.AuthService) *http.Server {
	return &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: NewRouter(cfg.CORSOrigins, ingress, auth),
	}
}

// NewRouter builds the API routes. CORS is enabled only when origins are
// given.
func NewRouter(corsOrigins []string, ingress *application.IngressService, auth *application.AuthService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if len(corsOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = corsOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
		corsConfig.AllowCredentials = true

		router.Use(cors.New(corsConfig))
	}

	api := router.Group("/api")
	authHandler := http_handlers.NewAuthHandler(auth)
	authHandler.RegisterRoutes(api)

	protected := api.Group("", middlewares.AuthMiddleware(auth))
	protected.GET("/auth/session", authHandler.Session)
	http_handlers.NewHostnameHandler(ingress).RegisterRoutes(protected)
	http_handlers.NewZoneHandler(ingress).RegisterRoutes(protected)

	return router
}

// requestLogger logs each request through logrus with the client's request
// id.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"request_id": c.GetHeader("X-Request-ID"),
		}).Debug("request")
	}
}
