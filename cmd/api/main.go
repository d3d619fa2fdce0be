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
	"github.com/yourusername/learnquest-api/internal/config"
	"github.com/yourusername/learnquest-api/internal/handler"
	"github.com/yourusername/learnquest-api/internal/middleware"
	pgRepo "github.com/yourusername/learnquest-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/learnquest-api/internal/repository/redis"
	"github.com/yourusername/learnquest-api/internal/service"
	ws "github.com/yourusername/learnquest-api/internal/websocket"
	"github.com/yourusername/learnquest-api/pkg/auth"
	"github.com/yourusername/learnquest-api/pkg/database"
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

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	campaignRepo := pgRepo.NewCampaignRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	participantRepo := pgRepo.NewParticipantRepo(db)
	responseRepo := pgRepo.NewResponseRepo(db)
	materialsLogRepo := pgRepo.NewMaterialsLogRepo(db)
	identityProvider := pgRepo.NewLocalIdentityProvider(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// WebSocket-хаб рассылает события кампаний всем подключенным клиентам
	hub := ws.NewHub()
	go hub.Run()

	// Email-уведомления (опционально)
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Enabled {
		resendService, err := service.NewResendEmailService(cfg.Email.APIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", err)
			os.Exit(1)
		}
		emailService = resendService
	}

	// Инициализируем сервисы
	authService, err := service.NewAuthService(userRepo, identityProvider, jwtService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	accountService, err := service.NewAccountService(userRepo, identityProvider, emailService)
	if err != nil {
		log.Printf("Failed to initialize AccountService: %v", err)
		os.Exit(1)
	}

	campaignService, err := service.NewCampaignService(
		campaignRepo,
		questionRepo,
		materialsLogRepo,
		hub,
		time.Duration(cfg.Materials.VerifyTimeoutSec)*time.Second,
	)
	if err != nil {
		log.Printf("Failed to initialize CampaignService: %v", err)
		os.Exit(1)
	}

	questionService, err := service.NewQuestionService(questionRepo, campaignRepo)
	if err != nil {
		log.Printf("Failed to initialize QuestionService: %v", err)
		os.Exit(1)
	}

	participationService, err := service.NewParticipationService(participantRepo, campaignRepo)
	if err != nil {
		log.Printf("Failed to initialize ParticipationService: %v", err)
		os.Exit(1)
	}

	quizService, err := service.NewQuizService(
		campaignRepo,
		questionRepo,
		participantRepo,
		responseRepo,
		userRepo,
		cacheRepo,
		cfg.Quiz.MaxAttemptsPerQuestion,
		time.Duration(cfg.Quiz.SessionTTLHrs)*time.Hour,
	)
	if err != nil {
		log.Printf("Failed to initialize QuizService: %v", err)
		os.Exit(1)
	}

	leaderboardService, err := service.NewLeaderboardService(responseRepo, userRepo, cacheRepo)
	if err != nil {
		log.Printf("Failed to initialize LeaderboardService: %v", err)
		os.Exit(1)
	}

	exportService, err := service.NewExportService(campaignRepo, questionRepo, responseRepo, userRepo)
	if err != nil {
		log.Printf("Failed to initialize ExportService: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(accountService)
	campaignHandler := handler.NewCampaignHandler(campaignService, participationService, exportService)
	questionHandler := handler.NewQuestionHandler(questionService)
	quizHandler := handler.NewQuizHandler(quizService)
	userHandler := handler.NewUserHandler(leaderboardService)
	wsHandler := handler.NewWSHandler(hub, jwtService)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(cacheRepo)

	// Настраиваем Gin
	router := gin.Default()

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Register)
			authGroup.POST("/login", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Login)
		}

		// Пользователи
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", authHandler.Me)
		}

		// Лидерборд (публичный маршрут)
		api.GET("/leaderboard", userHandler.GetLeaderboard)

		// Административные мутации учетных записей
		adminUsers := api.Group("/admin/users")
		adminUsers.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			adminUsers.POST("", accountHandler.CreateAccount)
			adminUsers.GET("", accountHandler.ListAccounts)

			adminUserWithID := adminUsers.Group("/:id")
			adminUserWithID.Use(middleware.UintParam("id", "userID_param"))
			{
				adminUserWithID.PATCH("", accountHandler.UpdateAccount)
				adminUserWithID.DELETE("", accountHandler.DeleteAccount)
				adminUserWithID.POST("/reset-password", accountHandler.ResetPassword)
			}
		}

		// Кампании
		campaigns := api.Group("/campaigns")
		campaigns.Use(authMiddleware.RequireAuth())
		{
			campaigns.GET("", campaignHandler.ListCampaigns)

			// Группа маршрутов, требующих campaignID
			campaignWithID := campaigns.Group("/:id")
			campaignWithID.Use(middleware.UintParam("id", "campaignID"))
			{
				campaignWithID.GET("", campaignHandler.GetCampaign)
				campaignWithID.POST("/join", campaignHandler.JoinCampaign)
				campaignWithID.GET("/participation", campaignHandler.GetParticipation)
				campaignWithID.GET("/questions", questionHandler.ListQuestions)

				// Прохождение квиза
				quiz := campaignWithID.Group("/quiz")
				{
					quiz.POST("/start", quizHandler.StartSession)
					quiz.GET("/session", quizHandler.GetSession)
					quiz.POST("/select", quizHandler.Select)
					quiz.POST("/submit", rateLimiter.Limit(middleware.SubmitRateLimitConfig()), quizHandler.Submit)
					quiz.DELETE("/session", quizHandler.AbandonSession)
				}

				// Маршруты для администраторов
				adminCampaign := campaignWithID.Group("")
				adminCampaign.Use(authMiddleware.AdminOnly())
				{
					adminCampaign.PATCH("", campaignHandler.UpdateCampaign)
					adminCampaign.DELETE("", campaignHandler.DeleteCampaign)
					adminCampaign.POST("/questions", questionHandler.CreateQuestion)
					adminCampaign.POST("/verify-materials", campaignHandler.VerifyMaterials)
					adminCampaign.GET("/materials-history", campaignHandler.MaterialsHistory)
					adminCampaign.POST("/advance-day", campaignHandler.AdvanceTestDay)
					adminCampaign.PUT("/test-day", campaignHandler.SetTestDay)
					adminCampaign.GET("/export", campaignHandler.ExportResponses)
				}
			}

			// Маршрут создания кампании (не требует ID)
			adminCreateCampaign := campaigns.Group("")
			adminCreateCampaign.Use(authMiddleware.AdminOnly())
			{
				adminCreateCampaign.POST("", campaignHandler.CreateCampaign)
			}
		}

		// Вопросы (операции по ID вопроса)
		questions := api.Group("/questions")
		questions.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			questionWithID := questions.Group("/:id")
			questionWithID.Use(middleware.UintParam("id", "questionID"))
			{
				questionWithID.PATCH("", questionHandler.UpdateQuestion)
				questionWithID.DELETE("", questionHandler.DeleteQuestion)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

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

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ждем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем hub: клиенты получают close frame
	hub.Shutdown()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
