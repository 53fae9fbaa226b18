package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"cvbot_backend/internal/bot"
	internalhttp "cvbot_backend/internal/http"
	"cvbot_backend/internal/identity"
	"cvbot_backend/internal/media"
	"cvbot_backend/internal/notify"
	"cvbot_backend/internal/orders"
	"cvbot_backend/internal/profile"
	"cvbot_backend/internal/scheduler"
	"cvbot_backend/internal/session"
	"cvbot_backend/internal/telegram"
	"cvbot_backend/internal/wizard"
	"cvbot_backend/migrations"
	"cvbot_backend/platform/config"
	"cvbot_backend/platform/db"
	"cvbot_backend/platform/logger"
	"cvbot_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if err := withRetry(ctx, log, "migrate database", func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "connect database", func() error {
		var err error
		pool, err = db.NewPool(ctx, cfg)
		return err
	}); err != nil {
		return err
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.IsRedisEnabled() {
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			return err
		}
		redisClient = redis.NewClient(opt)
		defer func() { _ = redisClient.Close() }()
	}

	evidence, err := media.NewEvidenceStore(cfg, log)
	if err != nil {
		return err
	}
	if err := evidence.EnsureBucket(ctx); err != nil {
		return err
	}

	client := telegram.NewClient(cfg, log)
	sessions := session.NewStore()
	engine := wizard.NewEngine(validator.New(), cfg.GetMaxUploadBytes(), log)
	profiles := profile.NewRepository(pool)
	orderService := orders.NewService(orders.NewRepository(pool), log)
	dispatcher := notify.NewDispatcher(client, log)
	resolver := identity.NewResolver(client, redisClient, cfg.GetAdminChannelID(), log)
	reconciler := notify.NewReconciler(sessions, orderService, dispatcher, cfg.GetReconcileInterval(), log)

	router := bot.NewRouter(
		bot.RouterConfig{
			AdminChannelID:       cfg.GetAdminChannelID(),
			PaymentAccount:       cfg.GetPaymentAccount(),
			PaymentQREnabled:     cfg.IsPaymentQREnabled(),
			TutorialVideoFileID:  cfg.GetTutorialVideoFileID(),
			TutorialVideoCaption: cfg.GetTutorialVideoCaption(),
			SampleFileIDs:        cfg.GetSampleFileIDs(),
			SampleCaptions:       cfg.GetSampleCaptions(),
		},
		client, sessions, engine, orderService, profiles, dispatcher, resolver, evidence, log,
	)

	poller := telegram.NewPoller(client, router, cfg.GetPollTimeout(), log)
	httpServer := internalhttp.NewServer(cfg, cfg.Env, pool, log)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return poller.Run(ctx)
	})

	if cfg.IsRedisEnabled() {
		worker, err := scheduler.NewWorker(cfg, cfg, reconciler, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return worker.Run(ctx)
		})
	} else {
		g.Go(func() error {
			reconciler.Run(ctx)
			return nil
		})
	}

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.GetHTTPAddr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// withRetry retries startup dependencies a few times before giving up, so a
// database that is still booting does not kill the process.
func withRetry(ctx context.Context, log *logger.Logger, name string, fn func() error) error {
	const attempts = 5

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		log.Warn(name+" failed, retrying", "attempt", i, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i) * 2 * time.Second):
		}
	}
	return err
}
