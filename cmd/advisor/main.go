// cmd/advisor/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"career-advisor/internal/achievements"
	"career-advisor/internal/catalog"
	"career-advisor/internal/common/config"
	"career-advisor/internal/common/database"
	"career-advisor/internal/common/logger"
	"career-advisor/internal/common/metrics"
	"career-advisor/internal/common/observability"
	"career-advisor/internal/conversation"
	"career-advisor/internal/genai"
	"career-advisor/internal/matching"
	"career-advisor/internal/profile"
	"career-advisor/internal/session"
	"career-advisor/internal/storage"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting career advisor...",
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Postgres with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, 5, time.Second, zapLog, "postgres connect")
	if err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	// --- Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx)
	}, 5, time.Second, zapLog, "redis connect")
	if err != nil {
		zapLog.Fatal("redis unavailable", zap.Error(err))
	}
	defer rdb.Close()

	store := storage.NewPostgresStore(pg, log)
	if err := store.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	// Catalog load failure is fatal: nothing works without it.
	cat, err := catalog.Load(cfg.Catalog.Path, log)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}

	aggregator := profile.NewAggregator(store, log)
	tracker := achievements.NewTracker(store, log,
		achievements.WithEarlyBirdBefore(cfg.Advisor.EarlyBirdBefore),
		achievements.WithNightOwlFrom(cfg.Advisor.NightOwlFrom),
		achievements.WithSpeedRunWithin(time.Duration(cfg.Advisor.SpeedRunSeconds)*time.Second),
	)
	engine := matching.NewEngine(cfg.Advisor.ResultLimit)

	var backend genai.Backend = genai.NewOpenAIBackend(cfg.OpenAI, cat, log)
	backend = genai.WithRetry(backend, genai.DefaultRetryConfig(cfg.OpenAI.MaxRetries))
	if !backend.Available() {
		zapLog.Warn("no OpenAI key configured, AI flow will report backend errors")
	}

	sessions := session.NewStore(rdb, cfg.Database.Redis.GetSessionTTL(), log)

	machine := conversation.NewMachine(
		conversation.Config{MinAITurns: cfg.Advisor.MinAITurns},
		sessions, cat, engine, backend, aggregator, tracker, obs, log,
	)

	go func() {
		if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
			zapLog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	zapLog.Info("Career advisor ready",
		zap.Int("careers", cat.Stats().Total),
		zap.Int("metricsPort", cfg.Metrics.Port))

	// Console driver: one line per turn, "<userId> <input>". Chat
	// surfaces plug in here.
	go runConsole(ctx, machine, zapLog)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
}

func runConsole(ctx context.Context, machine *conversation.Machine, zapLog *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		userID, input := parts[0], ""
		if len(parts) == 2 {
			input = parts[1]
		}

		reply, err := machine.Handle(ctx, userID, input)
		if err != nil {
			zapLog.Error("turn failed", zap.Error(err))
			continue
		}
		printReply(reply)
	}
}

func printReply(r *conversation.Reply) {
	if r.Err != nil {
		fmt.Printf("! %s: %s\n", r.Err.Code, r.Err.Details)
	}
	if r.Text != "" {
		fmt.Println(r.Text)
	}
	for _, m := range r.Matches {
		confidence := ""
		if m.LowConfidence {
			confidence = " (low confidence)"
		}
		fmt.Printf("%d. %s (%s), score %d%s\n", m.Profile.ID, m.Profile.Name, m.Profile.Category, m.Score, confidence)
	}
	for _, u := range r.Unlocks {
		fmt.Printf("%s Achievement unlocked: %s\n", u.Icon, u.Name)
	}
	if len(r.Options) > 0 {
		fmt.Printf("[%s] options: %s\n", r.State, strings.Join(r.Options, ", "))
	}
}
