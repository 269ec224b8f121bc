package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/adaptive-trivia/internal/bootstrap"
	"github.com/yourusername/adaptive-trivia/internal/config"
	"github.com/yourusername/adaptive-trivia/internal/domain/repository"
	"github.com/yourusername/adaptive-trivia/internal/handler"
	"github.com/yourusername/adaptive-trivia/internal/middleware"
	pgRepo "github.com/yourusername/adaptive-trivia/internal/repository/postgres"
	redisRepo "github.com/yourusername/adaptive-trivia/internal/repository/redis"
	"github.com/yourusername/adaptive-trivia/internal/service"
	ws "github.com/yourusername/adaptive-trivia/internal/websocket"
	"github.com/yourusername/adaptive-trivia/pkg/auth"
	"github.com/yourusername/adaptive-trivia/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	if err := cfg.Auth.Validate(); err != nil {
		log.Printf("Invalid auth config: %v", err)
		os.Exit(1)
	}

	// База данных необязательна: без неё результаты не сохраняются
	db, err := bootstrap.OpenDatabase(cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer bootstrap.CloseDatabase(db)

	var perfRepo repository.PerformanceRepository
	if db != nil {
		perfRepo = pgRepo.NewPerformanceRepo(db)
	}

	// Redis необязателен: без него нет снимков сессий и rate limiting
	var cacheRepo repository.CacheRepository
	var sessionStore repository.SessionStore
	if cfg.Redis.Enabled() {
		redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		log.Println("Successfully connected to Redis")

		cache, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			log.Printf("Failed to initialize CacheRepo: %v", err)
			os.Exit(1)
		}
		cacheRepo = cache
		sessionStore = redisRepo.NewSessionStore(cache, cfg.Redis.SessionTTL())
	} else {
		log.Println("Redis не настроен: сессии хранятся только в памяти процесса")
	}

	catalog, err := bootstrap.BuildCatalog(cfg.Catalog, db)
	if err != nil {
		log.Printf("Failed to load question catalog: %v", err)
		os.Exit(1)
	}

	// Предсказатель выбирается один раз и разделяется всеми сессиями
	difficultyPredictor, err := bootstrap.BuildPredictor(cfg.Predictor)
	if err != nil {
		log.Printf("Failed to initialize predictor: %v", err)
		os.Exit(1)
	}

	ticketService, err := auth.NewTicketService(cfg.Auth.TicketSecret, cfg.Auth.TicketKeyID, cfg.Auth.TicketExpiry())
	if err != nil {
		log.Printf("Failed to initialize TicketService: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	gameService := service.NewGameService(
		service.GameServiceConfig{
			Game:      bootstrap.GameConfig(cfg.Game),
			ExportDir: cfg.Export.Dir,
		},
		catalog,
		difficultyPredictor,
		sessionStore,
		perfRepo,
		ticketService,
	)

	// Инициализация WebSocket
	wsManager := ws.NewManager(ws.NewHub())

	// Инициализируем обработчики
	gameHandler := handler.NewGameHandler(gameService)
	wsHandler := handler.NewWSHandler(wsManager, gameService, cfg.CORS.AllowedOrigins)

	// Инициализируем middleware
	ticketMiddleware := middleware.NewTicketMiddleware(ticketService)
	rateLimiter := middleware.NewRateLimiter(cacheRepo)
	gameStartLimit := middleware.DefaultGameStartRateLimitConfig()
	if cfg.RateLimit.GameStartPerMinute > 0 {
		gameStartLimit.MaxRequests = cfg.RateLimit.GameStartPerMinute
	}

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP().
	// Пустой список: прокси-заголовкам не доверяем
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.SessionTicketHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionMiddlewares := []gin.HandlerFunc{
		middleware.ExtractSessionID("id", handler.ContextKeySessionID),
		ticketMiddleware.RequireSessionTicket(handler.ContextKeySessionID),
	}

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":          "ok",
				"active_sessions": gameService.ActiveSessions(),
				"ws_clients":      wsManager.Hub().ClientCount(),
			})
		})

		// Лидерборд (публичный маршрут)
		api.GET("/leaderboard", gameHandler.GetLeaderboard)

		api.POST("/games", rateLimiter.LimitByIP(gameStartLimit), gameHandler.StartGame)

		// Маршруты конкретной игры требуют тикет сессии
		game := api.Group("/games/:id", sessionMiddlewares...)
		{
			game.GET("", gameHandler.GetGame)
			game.DELETE("", gameHandler.RestartGame)
			game.GET("/question", gameHandler.GetQuestion)
			game.POST("/answer", gameHandler.SubmitAnswer)
			game.GET("/summary", gameHandler.GetSummary)
			game.GET("/stats", gameHandler.GetQuestionStats)
			game.POST("/finish", gameHandler.FinishGame)
			game.GET("/export", gameHandler.ExportLog)
		}
	}

	// WebSocket маршрут (тикет передаётся в ?ticket=)
	router.GET("/ws/games/:id", append(sessionMiddlewares, wsHandler.HandleConnection)...)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		return
	}

	log.Println("Server exited properly")
}
