package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"edubot/internal/app"
	"edubot/internal/content"
	"edubot/internal/domain"
	pginfra "edubot/internal/infra/postgres"
	pgmigrations "edubot/internal/infra/postgres/migrations"
	redisinfra "edubot/internal/infra/redis"
)

func TestBotEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()
	gateway := pginfra.NewGateway(db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizID, err := gateway.AddQuiz(ctx, domain.Quiz{
		Title: "Basics",
		Questions: []domain.Question{
			{Text: "Q1", Options: []string{"wrong", "right"}, Correct: 1},
		},
	})
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	questID, err := gateway.AddQuest(ctx, domain.Quest{
		Title:        "Site walk",
		RewardPoints: 10,
		Steps: []domain.QuestStep{
			{Text: "step one", Answer: "concrete"},
			{Text: "step two", Answer: "crane"},
		},
	})
	if err != nil {
		t.Fatalf("seed quest: %v", err)
	}

	cache := redisinfra.NewDefinitionCache(redisClient, pginfra.NewContentLoader(pool), 5*time.Minute)
	catalog := content.NewCatalog(cache, 5*time.Minute)
	sessions := redisinfra.NewSessionStore(redisClient, 5*time.Minute)
	dispatcher := app.NewDispatcher(sessions, catalog, gateway, nil, zap.NewNop())

	// Quiz end to end: the completion must land in one piece.
	mustDispatch(t, ctx, dispatcher, 1, domain.Event{ID: "e1", Kind: domain.EventCommand, Data: "start"})
	mustDispatch(t, ctx, dispatcher, 1, domain.Event{ID: "e2", Kind: domain.EventCallback, Data: "quiz_list"})
	mustDispatch(t, ctx, dispatcher, 1, domain.Event{ID: "e3", Kind: domain.EventCallback, Data: fmt.Sprintf("quiz_start:%d", quizID)})
	render := mustDispatch(t, ctx, dispatcher, 1, domain.Event{ID: "e4", Kind: domain.EventCallback, Data: "quiz_answer:1"})
	if !strings.Contains(render.Text, "Correct answers: 1/1") {
		t.Fatalf("expected results, got %q", render.Text)
	}

	user, err := gateway.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Score != 5 || user.QuizzesCompleted != 1 {
		t.Fatalf("unexpected user after quiz: %+v", user)
	}
	results, err := gateway.GetUserQuizResults(ctx, 1)
	if err != nil || len(results) != 1 {
		t.Fatalf("expected one result row, got %v err=%v", results, err)
	}

	// Quest started, advanced, then resumed by a second dispatcher over a
	// clean session store, as after a process restart.
	mustDispatch(t, ctx, dispatcher, 1, domain.Event{ID: "e5", Kind: domain.EventCallback, Data: "quest_list"})
	mustDispatch(t, ctx, dispatcher, 1, domain.Event{ID: "e6", Kind: domain.EventCallback, Data: fmt.Sprintf("quest_begin:%d", questID)})
	mustDispatch(t, ctx, dispatcher, 1, domain.Event{ID: "e7", Kind: domain.EventMessage, Text: "concrete"})

	p, found, err := gateway.GetQuestProgress(ctx, 1, questID)
	if err != nil || !found || p.CurrentStep != 1 {
		t.Fatalf("expected open progress at step 1, got %+v found=%v err=%v", p, found, err)
	}

	restarted := app.NewDispatcher(redisinfra.NewSessionStore(redisClient, 5*time.Minute), catalog, gateway, nil, zap.NewNop())
	mustDispatch(t, ctx, restarted, 1, domain.Event{ID: "e8", Kind: domain.EventCallback, Data: "quest_list"})
	render = mustDispatch(t, ctx, restarted, 1, domain.Event{ID: "e9", Kind: domain.EventCallback, Data: fmt.Sprintf("quest_begin:%d", questID)})
	if !strings.Contains(render.Text, "Step 2/2") {
		t.Fatalf("expected resume at step 2, got %q", render.Text)
	}
	render = mustDispatch(t, ctx, restarted, 1, domain.Event{ID: "e10", Kind: domain.EventMessage, Text: "crane"})
	if !strings.Contains(render.Text, "completed!") {
		t.Fatalf("expected completion, got %q", render.Text)
	}

	user, _ = gateway.GetUser(ctx, 1)
	if user.Score != 15 || user.QuestsCompleted != 1 {
		t.Fatalf("unexpected user after quest: %+v", user)
	}
	if _, found, _ := gateway.GetQuestProgress(ctx, 1, questID); found {
		t.Fatal("expected progress closed")
	}
}

func TestGrantAchievementIdempotentOnPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, cleanup := startPostgres(t, ctx)
	defer cleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()
	gateway := pginfra.NewGateway(db)

	if _, err := gateway.GetOrCreateUser(ctx, 7, "Grace"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	granted, err := gateway.GrantAchievement(ctx, 7, domain.BadgeFirstQuest, "First Quest")
	if err != nil || !granted {
		t.Fatalf("expected first grant, granted=%v err=%v", granted, err)
	}
	granted, err = gateway.GrantAchievement(ctx, 7, domain.BadgeFirstQuest, "First Quest")
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if granted {
		t.Fatal("expected ON CONFLICT DO NOTHING to suppress the duplicate")
	}

	badges, err := gateway.GetUserAchievements(ctx, 7)
	if err != nil || len(badges) != 1 {
		t.Fatalf("expected one badge, got %v err=%v", badges, err)
	}
}

func mustDispatch(t *testing.T, ctx context.Context, d *app.Dispatcher, userID int64, ev domain.Event) domain.RenderInstruction {
	t.Helper()
	render, err := d.Dispatch(ctx, userID, "Alice", ev)
	if err != nil {
		t.Fatalf("dispatch %q: %v", ev.Data, err)
	}
	return render
}

func openBun(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "bot", "POSTGRES_PASSWORD": "botpass", "POSTGRES_DB": "botdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://bot:botpass@%s:%s/botdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
