package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"trivia-room-service/internal/app"
	"trivia-room-service/internal/config"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/gateway"
	"trivia-room-service/internal/infra/amqp"
	"trivia-room-service/internal/infra/memory"
	"trivia-room-service/internal/infra/nats"
	"trivia-room-service/internal/infra/postgres"
	redisstore "trivia-room-service/internal/infra/redis"
	"trivia-room-service/internal/logging"
	transport "trivia-room-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia room server",
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
	logger := logging.New(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
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

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}
	roomTTL := config.Duration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	var db *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		closers = append(closers, pool.Close)
		db = postgres.OpenBun(cfg.Postgres.URL)
		closers = append(closers, func() { _ = db.Close() })
	}

	loader, err := questionLoader(cfg, pool, logger)
	if err != nil {
		return err
	}
	questionTTL := config.Duration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisstore.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var rooms app.RoomRepository
	if redisClient != nil {
		rooms = redisstore.NewRoomStore(redisClient, roomTTL)
	} else {
		rooms = memory.NewRoomStore()
	}

	sinks, err := resultSinks(cfg, db, logger, &closers)
	if err != nil {
		return err
	}

	hub := gateway.NewHub(logger)
	service := app.NewGameService(rooms, questions, hub,
		app.WithLogger(logger),
		app.WithResultSink(app.NewFanoutSink(sinks...)),
		app.WithNextQuestionDelay(config.Duration(cfg.Server.NextQuestionDelay, app.DefaultNextQuestionDelay)),
	)
	ws := transport.NewWSHandler(gateway.New(service, hub, logger), hub, logger)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(service, ws, transport.RouterConfig{
			PublicURL: cfg.Server.PublicURL,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting trivia room service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	service.Wait()
	return err
}

// questionLoader picks the question source: Postgres, then a JSON file, then the built-in bank.
func questionLoader(cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) (memory.QuestionLoader, error) {
	switch {
	case pool != nil:
		logger.Info("questions from postgres")
		return postgres.NewQuestionLoader(pool), nil
	case cfg.Questions.File != "":
		bank, err := memory.LoadQuestionFile(cfg.Questions.File)
		if err != nil {
			return nil, err
		}
		logger.Info("questions from file", "file", cfg.Questions.File, "categories", len(bank))
		return memory.NewStaticQuestionLoader(bank), nil
	default:
		logger.Warn("no question source configured, using the built-in bank")
		return memory.NewStaticQuestionLoader(sampleQuestions()), nil
	}
}

// resultSinks connects every configured score sink. With none configured,
// results are kept in memory for the life of the process.
func resultSinks(cfg config.Config, db *bun.DB, logger *slog.Logger, closers *[]func()) ([]app.ResultSink, error) {
	var sinks []app.ResultSink
	if db != nil {
		sinks = append(sinks, postgres.NewResultSink(db))
	}
	if cfg.NATS.URL != "" {
		conn, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() { _ = conn.Drain() })
		sinks = append(sinks, nats.NewResultPublisher(conn, cfg.NATS.Subject))
		logger.Info("publishing results to nats", "subject", cfg.NATS.Subject)
	}
	if cfg.AMQP.URL != "" {
		publisher, err := amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() { _ = publisher.Close() })
		sinks = append(sinks, publisher)
		logger.Info("publishing results to amqp", "queue", cfg.AMQP.Queue)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, memory.NewResultLog())
	}
	return sinks, nil
}

// sampleQuestions keeps the server playable without any configured question source.
func sampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"maths": {
			{ID: 1, Question: "What is 7 x 8?", Choices: []string{"54", "56", "58", "64"}, Correct: 1, Difficulty: 1, Explanation: "7 x 8 = 56"},
			{ID: 2, Question: "What is the square root of 144?", Choices: []string{"10", "11", "12", "14"}, Correct: 2, Difficulty: 1, Explanation: "12 x 12 = 144"},
			{ID: 3, Question: "What is 15% of 200?", Choices: []string{"15", "20", "30", "35"}, Correct: 2, Difficulty: 2, Explanation: "0.15 x 200 = 30"},
			{ID: 4, Question: "Solve for x: 3x + 5 = 20", Choices: []string{"3", "5", "7", "15"}, Correct: 1, Difficulty: 2, Explanation: "3x = 15, so x = 5"},
			{ID: 5, Question: "What is the sum of interior angles of a hexagon?", Choices: []string{"540", "620", "720", "900"}, Correct: 2, Difficulty: 3, Explanation: "(6 - 2) x 180 = 720"},
		},
		"science": {
			{ID: 1, Question: "What is the chemical symbol for gold?", Choices: []string{"Ag", "Au", "Gd", "Go"}, Correct: 1, Difficulty: 1, Explanation: "Au comes from the Latin aurum"},
			{ID: 2, Question: "Which planet is known as the Red Planet?", Choices: []string{"Venus", "Jupiter", "Mars", "Mercury"}, Correct: 2, Difficulty: 1, Explanation: "Iron oxide gives Mars its colour"},
			{ID: 3, Question: "What particle has a negative charge?", Choices: []string{"Proton", "Neutron", "Electron", "Photon"}, Correct: 2, Difficulty: 2, Explanation: "Electrons carry a negative charge"},
		},
	}
}
