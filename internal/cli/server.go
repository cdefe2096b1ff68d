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

	"quiztopia-api/internal/app"
	"quiztopia-api/internal/config"
	"quiztopia-api/internal/secret"
	memorystore "quiztopia-api/internal/store/memory"
	pgstore "quiztopia-api/internal/store/postgres"
	redisstore "quiztopia-api/internal/store/redis"
	transport "quiztopia-api/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores groups the record-store contracts so one backend can satisfy
// all of them.
type stores interface {
	app.UserStore
	app.QuizStore
	app.QuestionStore
	app.ScoreStore
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var backend stores
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		backend = pgstore.New(pool)
		log.Printf("using postgres record store")
	case cfg.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		backend = redisstore.New(client)
		log.Printf("using redis record store")
	default:
		backend = memorystore.New()
		log.Printf("no store configured, records are in-memory only")
	}

	var secrets secret.Source
	switch {
	case cfg.Auth.Secret != "":
		secrets = secret.Static(cfg.Auth.Secret)
	case cfg.Auth.SecretFile != "":
		secrets = secret.NewCaching(
			secret.File{Path: cfg.Auth.SecretFile},
			config.Duration(cfg.Auth.SecretCacheTTL, 0),
		)
	default:
		secrets = secret.Static("")
	}

	authService := app.NewAuthService(backend, secrets, config.Duration(cfg.Auth.TokenTTL, 0))
	quizService := app.NewQuizService(backend, backend)
	scoreService := app.NewScoreService(backend)
	leaderboardService := app.NewLeaderboardService(backend, scoreService)
	deleter := app.NewDeleter(backend, backend, backend, app.DeleteConfig{
		PageSize:   cfg.Delete.PageSize,
		ChunkSize:  cfg.Delete.BatchSize,
		MaxRetries: cfg.Delete.MaxRetries,
		Backoff:    config.Duration(cfg.Delete.Backoff, 0),
	})

	handler := transport.NewHandler(authService, quizService, scoreService, leaderboardService, deleter, cfg.Leaderboard.Limit)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiztopia api on :%s", finalPort)
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
