package cli

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"edubot/internal/app"
	"edubot/internal/config"
	"edubot/internal/content"
	"edubot/internal/infra/memory"
	pginfra "edubot/internal/infra/postgres"
	redisinfra "edubot/internal/infra/redis"
	transport "edubot/internal/transport/http"
	"edubot/pkg/logger"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the bot server",
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
	log := logger.New(cfg.Log.Path, cfg.Server.Mode)
	defer log.Sync()

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
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)

	var gateway app.Gateway
	var store content.Store
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		gateway = pginfra.NewGateway(db)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pginfra.NewContentLoader(pool)
	} else {
		mem := memory.NewGateway()
		gateway = mem
		store = mem
		log.Warn("no postgres configured, state is in-memory only")
	}

	if err := seedDefaultContent(ctx, gateway, log); err != nil {
		return err
	}

	if redisClient != nil {
		store = redisinfra.NewDefinitionCache(redisClient, store, contentTTL)
	}
	catalog := content.NewCatalog(store, contentTTL)

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	dispatcher := app.NewDispatcher(sessions, catalog, gateway, cfg.Admin.IDs, log)
	wsHandler := transport.NewWSHandler(dispatcher, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting bot server", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedDefaultContent loads the built-in quizzes and quests into an empty
// store, so a fresh install has something to play immediately.
func seedDefaultContent(ctx context.Context, gateway app.Gateway, log *zap.Logger) error {
	quizzes, err := gateway.ListQuizzes(ctx)
	if err != nil {
		return err
	}
	if len(quizzes) == 0 {
		for _, quiz := range content.DefaultQuizzes() {
			if _, err := gateway.AddQuiz(ctx, quiz); err != nil {
				return err
			}
		}
		log.Info("seeded default quizzes", zap.Int("count", len(content.DefaultQuizzes())))
	}

	quests, err := gateway.ListQuests(ctx)
	if err != nil {
		return err
	}
	if len(quests) == 0 {
		for _, quest := range content.DefaultQuests() {
			if _, err := gateway.AddQuest(ctx, quest); err != nil {
				return err
			}
		}
		log.Info("seeded default quests", zap.Int("count", len(content.DefaultQuests())))
	}
	return nil
}
