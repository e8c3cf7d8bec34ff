package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizpal-service/internal/app"
	"quizpal-service/internal/auth"
	"quizpal-service/internal/config"
	"quizpal-service/internal/domain"
	"quizpal-service/internal/infra/memory"
	pginfra "quizpal-service/internal/infra/postgres"
	redisinfra "quizpal-service/internal/infra/redis"
	"quizpal-service/internal/infra/sqlite"
	transport "quizpal-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var (
		questionRepo app.QuestionAdminRepository
		categoryRepo app.CategoryRepository
		scoreRepo    app.ScoreRepository
		userStore    auth.UserStore
	)
	if pool != nil {
		questionRepo = pginfra.NewQuestionRepository(pool)
		categoryRepo = pginfra.NewCategoryRepository(pool)
		scoreRepo = pginfra.NewScoreRepository(pool)
		userStore = pginfra.NewUserStore(pool)
	} else {
		log.Printf("postgres not configured, serving demo data from memory")
		questionRepo = memory.NewQuestionRepository(sampleQuestions())
		categoryRepo = memory.NewCategoryRepository(sampleCategories())
		scoreRepo = memory.NewScoreRepository()
		userStore = seededDemoUsers()
	}

	// Session bootstrap reads go through the Redis cache when available;
	// admin writes always hit the backing repository directly.
	var sessionQuestions app.QuestionRepository = questionRepo
	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
		sessionQuestions = redisinfra.NewQuestionCache(redisClient, questionRepo, cacheTTL)
	}

	var sessionStore app.SessionStore
	if redisClient != nil {
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		sessionStore = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessionStore = memory.NewSessionStore()
	}

	targetStore, err := sqlite.NewTargetStore(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer targetStore.Close()

	sessions := app.NewSessionService(sessionQuestions, sessionStore, app.SessionSettings{
		Size:        cfg.SessionSize(),
		Points:      cfg.PointsPerQuestion(),
		LockAnswers: cfg.LockAnswers(),
	})
	scores := app.NewScoreService(scoreRepo, cfg.Scores.AtomicRatchet)
	categories := app.NewCategoryService(categoryRepo, questionRepo)
	questions := app.NewQuestionService(questionRepo, categoryRepo)
	targets := app.NewTargetService(targetStore)

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		log.Printf("auth.jwt_secret not set, using development key")
		secret = []byte("quizpal-dev-signing-key")
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
	authHandler := auth.NewHandler(userStore, secret, tokenTTL)
	authMW := auth.NewMiddleware(secret)

	api := transport.NewAPI(sessions, scores, categories, questions, targets, authHandler, authMW)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizpal service on :%s", finalPort)
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

// sampleCategories and sampleQuestions seed demo mode; swap in Postgres for
// real content.
func sampleCategories() []domain.Category {
	return []domain.Category{
		{ID: "geo", Name: "Geography", Icon: "earth", QuestionCount: 2},
		{ID: "history", Name: "History", Icon: "book", QuestionCount: 1},
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            "q-geo-1",
			CategoryID:    "geo",
			Text:          "What is the capital of Indonesia?",
			Options:       []string{"Jakarta", "Bandung", "Surabaya", "Medan"},
			CorrectAnswer: "Jakarta",
			Difficulty:    domain.DifficultyEasy,
		},
		{
			ID:            "q-geo-2",
			CategoryID:    "geo",
			Text:          "Which is the largest ocean?",
			Options:       []string{"Atlantic", "Pacific", "Indian", "Arctic"},
			CorrectAnswer: "Pacific",
			Difficulty:    domain.DifficultyEasy,
		},
		{
			ID:            "q-his-1",
			CategoryID:    "history",
			Text:          "In which year did World War II end?",
			Options:       []string{"1943", "1944", "1945", "1946"},
			CorrectAnswer: "1945",
			Difficulty:    domain.DifficultyMedium,
		},
	}
}

// seededDemoUsers creates a throwaway admin account so the admin surface is
// reachable without Postgres.
func seededDemoUsers() auth.UserStore {
	store := memory.NewUserStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return store
	}
	_ = store.CreateUser(context.Background(), domain.User{
		ID:          "demo-admin",
		Email:       "admin@quizpal.local",
		DisplayName: "admin",
		Role:        domain.RoleAdmin,
		Scores:      map[string]int{},
	}, string(hash))
	log.Printf("demo admin seeded: admin@quizpal.local / admin123")
	return store
}
