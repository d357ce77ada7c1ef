// Package main starts the mission-progression worker process: it wires the
// Event Store, Idempotency Keeper, Bus and Outbox sweeper together and runs
// until the process receives a termination signal.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AccelByte/mission-progression-service/internal/bus"
	busmem "github.com/AccelByte/mission-progression-service/internal/bus/memory"
	"github.com/AccelByte/mission-progression-service/internal/bus/redisbus"
	"github.com/AccelByte/mission-progression-service/internal/config"
	"github.com/AccelByte/mission-progression-service/internal/idempotency"
	idmem "github.com/AccelByte/mission-progression-service/internal/idempotency/memory"
	idredis "github.com/AccelByte/mission-progression-service/internal/idempotency/redis"
	"github.com/AccelByte/mission-progression-service/internal/outbox"
	"github.com/AccelByte/mission-progression-service/internal/router"
	"github.com/AccelByte/mission-progression-service/internal/store/postgres"
)

func main() {
	configPath := flag.String("tunables", "tunables.json", "path to the tunables config file")
	inMemory := flag.Bool("in-memory", false, "run with the in-process bus and idempotency keeper instead of Redis, for local development")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *inMemory, logger); err != nil {
		logger.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, inMemory bool, logger *slog.Logger) error {
	tunables, err := config.NewLoader(configPath, logger).Load()
	if err != nil {
		return err
	}

	db, err := postgres.Connect(postgres.NewConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	postgres.ConfigureDB(db)
	st := postgres.New(db)

	messageBus, keeper, closeFn, err := wireBackends(inMemory)
	if err != nil {
		return err
	}
	defer closeFn()

	r := &router.Router{Store: st, Keeper: keeper, Publisher: messageBus, Tunables: tunables, Logger: logger}

	unsubs, err := r.Subscribe(ctx, messageBus)
	if err != nil {
		return err
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	sweeper := outbox.NewSweeper(st, messageBus, tunables.OutboxBackoff.Value(), 50, logger)
	scheduler, err := outbox.StartSweeping(ctx, sweeper, tunables.OutboxSweepInterval.Value(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = scheduler.Stop() }()

	logger.Info("worker started")
	<-ctx.Done()
	logger.Info("worker shutting down")
	return nil
}

// wireBackends picks the in-process bus/keeper pair for local development or
// the Redis-backed pair for everything else, returning a cleanup func that
// closes whatever connections it opened.
func wireBackends(inMemory bool) (bus.Bus, idempotency.Keeper, func(), error) {
	if inMemory {
		return busmem.New(), idmem.New(), func() {}, nil
	}

	redisClient := idredis.NewClient(redisAddr(), os.Getenv("REDIS_PASSWORD"), 0)
	return redisbus.New(redisClient), idredis.New(redisClient), func() { _ = redisClient.Close() }, nil
}

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}
