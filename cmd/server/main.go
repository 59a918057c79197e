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

	"github.com/aadityarajkumawat/telebot/internal/config"
	"github.com/aadityarajkumawat/telebot/internal/database"
	"github.com/aadityarajkumawat/telebot/internal/game"
	"github.com/aadityarajkumawat/telebot/internal/handlers"
	"github.com/aadityarajkumawat/telebot/internal/middleware"
	"github.com/aadityarajkumawat/telebot/internal/quiz"
	"github.com/aadityarajkumawat/telebot/internal/services"
	"github.com/aadityarajkumawat/telebot/internal/store"
	"github.com/aadityarajkumawat/telebot/internal/telegram"
	"github.com/aadityarajkumawat/telebot/internal/ton"
	"github.com/aadityarajkumawat/telebot/internal/tonconnect"
	"github.com/aadityarajkumawat/telebot/internal/wallet"
	"github.com/aadityarajkumawat/telebot/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	kv, err := store.NewRedisKV(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if err := kv.Ping(ctx); err != nil {
		log.Fatalf("redis ping: %v", err)
	}
	defer kv.Close()

	// persisted schedule overrides the env defaults
	roomStart := scheduleOr(ctx, kv, store.RoomStartKey, cfg.RoomStartTime)
	gameStart := scheduleOr(ctx, kv, store.GameStartKey, cfg.GameStartTime)

	users := store.NewUserStore(kv)
	questionRepo := quiz.NewQuestionRepo(db)
	responseLedger := quiz.NewResponseLedger(db)

	hub := ws.NewHub()

	tgClient := telegram.NewClient(cfg.BotToken)
	gateway := telegram.NewGateway(tgClient)
	state := telegram.NewStateManager()

	orchestrator := game.NewOrchestrator(
		users,
		responseLedger,
		questionRepo,
		gateway,
		game.RuleByName(cfg.EliminationMode),
		hub,
		cfg.QuestionGap,
		cfg.GracePeriod,
	)

	bridge := tonconnect.NewBridge(cfg.BridgeURL)
	tonClient := ton.NewClient(cfg.TonAPIURL, cfg.TonAPIKey, cfg.TonWalletAddress)
	walletProto := wallet.NewProtocol(
		gateway, users, kv, bridge, tonClient,
		cfg.BotLink, cfg.TransferTimeout,
	)

	handler := telegram.NewUpdateHandler(
		tgClient, state, orchestrator, walletProto, users,
		roomStart, gameStart, cfg.Timezone,
	)
	bot := telegram.NewBot(tgClient, handler)
	go bot.Run(ctx)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}
	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(config.CronSpec(roomStart), func() {
		orchestrator.StartRoom(ctx)
	}); err != nil {
		log.Fatalf("schedule room start: %v", err)
	}
	if _, err := scheduler.AddFunc(config.CronSpec(gameStart), func() {
		orchestrator.StartGame(ctx)
	}); err != nil {
		log.Fatalf("schedule game start: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("[Scheduler] room at %s, game at %s (%s)", roomStart, gameStart, cfg.Timezone)

	authService := services.NewAuthService(db, cfg.JWTSecret)

	authHandler := handlers.NewAuthHandler(authService)
	questionHandler := handlers.NewQuestionHandler(questionRepo)
	scheduleHandler := handlers.NewScheduleHandler(kv, cfg.RoomStartTime, cfg.GameStartTime)
	leaderboardHandler := handlers.NewLeaderboardHandler(users)
	wsHandler := handlers.NewWSHandler(hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

		questions := api.Group("/questions")
		questions.Use(middleware.JWTAuth(authService))
		{
			questions.POST("", questionHandler.SaveQuestions)
			questions.GET("/today", questionHandler.TodaysQuiz)
			questions.GET("/past", questionHandler.PastQuizzes)
		}

		schedule := api.Group("/schedule")
		schedule.Use(middleware.JWTAuth(authService))
		{
			schedule.GET("", scheduleHandler.GetSchedule)
			schedule.POST("", scheduleHandler.SetSchedule)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Printf("server starting on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func scheduleOr(ctx context.Context, kv store.KV, key, fallback string) string {
	val, err := kv.Get(ctx, key)
	if err != nil {
		return fallback
	}
	if _, _, err := config.ParseClock(val); err != nil {
		return fallback
	}
	return val
}
