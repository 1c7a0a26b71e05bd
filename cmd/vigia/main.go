package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"vigia/internal/assist"
	"vigia/internal/config"
	"vigia/internal/handlers"
	"vigia/internal/middleware"
	"vigia/internal/monitor"
	"vigia/internal/session"
	"vigia/internal/store"
	"vigia/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// sharedRand adapts the package-level math/rand functions, which are safe
// for concurrent use; a bare *rand.Rand is not.
type sharedRand struct{}

func (sharedRand) Intn(n int) int   { return rand.Intn(n) }
func (sharedRand) Float64() float64 { return rand.Float64() }

type App struct {
	cfg         *config.Config
	log         zerolog.Logger
	users       *store.UserStore
	prefs       *store.PreferenceStore
	authService *middleware.AuthService
	wsHub       *middleware.Hub
	sessions    *session.Hub
	engine      *assist.Engine
	rateLimiter *middleware.RateLimiter
}

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("vigia " + version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level)
	logger.Info().Str("version", version.String()).Msg("starting vigia")

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialization failed")
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Start WebSocket hub
	go app.wsHub.Run()

	r := setupRouter(app)

	srv := &http.Server{
		Addr:           ":" + strconv.Itoa(cfg.Server.Port),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		var err error
		if cfg.Server.TLSEnabled {
			logger.Info().Int("port", cfg.Server.Port).Msg("listening (https)")
			err = srv.ListenAndServeTLS(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath)
		} else {
			logger.Info().Int("port", cfg.Server.Port).Msg("listening")
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	// Stop session loops before draining HTTP so no handler observes a
	// half-closed controller.
	app.sessions.Close()
	app.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server exited")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	users := store.NewUserStore(cfg.Storage.UsersFile)
	if err := users.Load(); err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	if err := users.SeedDemoUsers(); err != nil {
		return nil, fmt.Errorf("seeding demo users: %w", err)
	}

	prefs := store.NewPreferenceStore(cfg.Storage.PreferencesFile)
	if err := prefs.Load(); err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}

	wsHub := middleware.NewHub(logger.With().Str("component", "ws").Logger())

	source := monitor.NewClient(cfg.Upstream.MonitoringURL, cfg.Upstream.Timeout)
	sessionLog := logger.With().Str("component", "session").Logger()

	sessions := session.NewHub(func(company string) *session.Controller {
		rng := sharedRand{}
		return session.NewController(session.Options{
			Company:               company,
			RefreshInterval:       cfg.Session.RefreshInterval,
			NotificationDelay:     cfg.Session.NotificationDelay,
			NotificationMinPeriod: cfg.Session.NotificationMinPeriod,
			NotificationMaxPeriod: cfg.Session.NotificationMaxPeriod,
			NotificationTTL:       cfg.Session.NotificationTTL,
			NotificationChance:    cfg.Session.NotificationChance,
			MaxNotifications:      cfg.Session.MaxNotifications,
			Rand:                  rng,
			Source:                source,
			Fallback:              monitor.NewSynthesizer(rng, monitor.GopsutilProbe),
			Publisher:             wsHub,
			Logger:                sessionLog.With().Str("company", company).Logger(),
		})
	})

	return &App{
		cfg:         cfg,
		log:         logger,
		users:       users,
		prefs:       prefs,
		authService: middleware.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry),
		wsHub:       wsHub,
		sessions:    sessions,
		engine:      assist.NewEngine(sharedRand{}),
		rateLimiter: middleware.NewRateLimiter(rate.Every(time.Minute/100), 10),
	}, nil
}

func setupRouter(app *App) *gin.Engine {
	r := gin.New()

	// Add recovery middleware
	r.Use(gin.Recovery())

	// Add custom logging middleware
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	// Security middleware
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Rate limiting - 100 requests per minute per IP
	r.Use(app.rateLimiter.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    version.String(),
			"ws_clients": app.wsHub.GetClientCount(),
		})
	})

	authHandlers := handlers.NewAuthHandlers(app.authService, app.users, app.log)
	chatHandlers := handlers.NewChatHandlers(app.sessions)
	assistHandlers := handlers.NewAssistHandlers(app.engine, app.sessions)
	sessionHandlers := handlers.NewSessionHandlers(app.sessions)
	prefHandlers := handlers.NewPreferenceHandlers(app.users, app.prefs, app.log)

	// Public routes
	r.POST("/api/login", authHandlers.Login)

	// API routes (require token authentication)
	api := r.Group("/api")
	api.Use(app.authService.RequireAPIAuth())
	{
		api.POST("/chat", chatHandlers.Chat)
		api.GET("/chat/history", chatHandlers.History)
		api.POST("/assist", assistHandlers.Assist)
		api.GET("/assist/history", assistHandlers.History)
		api.GET("/monitoring", sessionHandlers.Monitoring)
		api.POST("/session/refresh", sessionHandlers.Refresh)
		api.GET("/notifications", sessionHandlers.Notifications)
		api.POST("/notifications/:id/dismiss", sessionHandlers.DismissNotification)
		api.GET("/widgets", sessionHandlers.Widgets)
		api.POST("/widgets/reorder", sessionHandlers.ReorderWidgets)
		api.GET("/alerts/detail", sessionHandlers.AlertDetail)
		api.POST("/alerts/detail", sessionHandlers.OpenAlertDetail)
		api.DELETE("/alerts/detail", sessionHandlers.CloseAlertDetail)
		api.POST("/preferences/save", prefHandlers.Save)
		api.GET("/preferences/get", prefHandlers.Get)
	}

	// WebSocket endpoint
	r.GET("/ws", app.wsHub.HandleWebSocket())

	return r
}
