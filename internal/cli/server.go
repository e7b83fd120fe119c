package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/config"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/infra/memory"
	infrapg "quizmaster-service/internal/infra/postgres"
	infraredis "quizmaster-service/internal/infra/redis"
	transport "quizmaster-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz platform server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	timezone := cfg.Quiz.Timezone
	if timezone == "" {
		timezone = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	attemptTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Persistence: Postgres when configured, in-memory demo store otherwise.
	memStore := memory.NewStore()
	var (
		quizzes app.QuizRepository = memStore
		catalog app.CatalogRepository
		users   app.UserStore
		scores  app.ScoreRepository
	)
	catalog, users, scores = memStore, memStore, memStore
	if pool != nil {
		repo := infrapg.NewRepository(pool)
		quizzes, catalog, users, scores = repo, repo, repo, repo
	} else {
		seedDemoCatalog(ctx, memStore, loc)
	}
	if redisClient != nil {
		quizzes = infraredis.NewQuizCache(redisClient, quizzes, cacheTTL)
	}

	var attempts app.AttemptStore
	if redisClient != nil {
		attempts = infraredis.NewAttemptStore(redisClient, attemptTTL)
	} else {
		attempts = memory.NewAttemptStore()
	}

	hub := app.NewLeaderboardHub(scores)
	attemptService := app.NewAttemptService(attempts, quizzes, users, scores, loc)
	attemptService.SetLeaderboardHub(hub)
	catalogService := app.NewCatalogService(catalog, quizzes)
	userService := app.NewUserService(users)
	reportService := app.NewReportService(scores, quizzes, catalog)

	adminUsername := cfg.Auth.AdminUsername
	if adminUsername == "" {
		adminUsername = "admin@example.com"
	}
	adminPassword := cfg.Auth.AdminPassword
	if adminPassword == "" {
		adminPassword = "admin"
	}
	if err := userService.EnsureAdmin(ctx, adminUsername, adminPassword); err != nil {
		return err
	}

	auth := transport.NewAuth(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour))
	router := transport.NewRouter(transport.Services{
		Attempts: attemptService,
		Catalog:  catalogService,
		Users:    userService,
		Reports:  reportService,
		Board:    hub,
	}, auth)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizmaster service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedDemoCatalog loads a minimal catalog so the no-database mode is usable
// out of the box.
func seedDemoCatalog(ctx context.Context, store *memory.Store, loc *time.Location) {
	subject, err := store.CreateSubject(ctx, domain.Subject{Name: "General Knowledge", Description: "Demo subject"})
	if err != nil {
		log.Printf("seed demo catalog: %v", err)
		return
	}
	chapter, _ := store.CreateChapter(ctx, domain.Chapter{SubjectID: subject.ID, Name: "Basics"})
	quiz, _ := store.CreateQuiz(ctx, domain.Quiz{
		ChapterID:     chapter.ID,
		DateOfQuiz:    time.Now().In(loc),
		Duration:      "00:10",
		Remarks:       "Demo quiz",
		QuestionLimit: 10,
		ScheduledAt:   time.Now().In(loc).Add(-time.Minute),
	})
	_, _ = store.CreateQuestion(ctx, domain.Question{
		QuizID:    quiz.ID,
		Statement: "What is 2 + 2?",
		Options: []domain.Option{
			{Label: "option1", Text: "3"},
			{Label: "option2", Text: "4"},
			{Label: "option3", Text: "5"},
		},
		CorrectLabel: "option2",
	})
	_, _ = store.CreateQuestion(ctx, domain.Question{
		QuizID:    quiz.ID,
		Statement: "Which planet is known as the Red Planet?",
		Options: []domain.Option{
			{Label: "option1", Text: "Venus"},
			{Label: "option2", Text: "Mars"},
		},
		CorrectLabel: "option2",
	})
}
