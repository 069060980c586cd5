package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/atdgo/backend/api/handler"
	"github.com/atdgo/backend/internal/config"
	"github.com/atdgo/backend/internal/infrastructure/monitor"
	pgInfra "github.com/atdgo/backend/internal/infrastructure/postgres"
	redisInfra "github.com/atdgo/backend/internal/infrastructure/redis"
	"github.com/atdgo/backend/internal/middleware"
	"github.com/atdgo/backend/internal/router"
	"github.com/atdgo/backend/internal/services"
	"github.com/atdgo/backend/internal/services/lifecycle"
	"github.com/atdgo/backend/pkg/httpcontext"
	"github.com/atdgo/backend/pkg/logger"
	"github.com/atdgo/backend/repository"
	boltRepo "github.com/atdgo/backend/repository/bolt"
	pgRepo "github.com/atdgo/backend/repository/postgres"
	redisRepo "github.com/atdgo/backend/repository/redis"
	integrityUC "github.com/atdgo/backend/usecase/integrity"
	registryUC "github.com/atdgo/backend/usecase/registry"
	sessionUC "github.com/atdgo/backend/usecase/session"
	taskUC "github.com/atdgo/backend/usecase/task"
	userdataUC "github.com/atdgo/backend/usecase/userdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	localStore, err := boltRepo.Open(cfg.Store.LocalPath)
	if err != nil {
		zapLogger.Fatal("failed to open local store", zap.Error(err))
	}
	manager.Register("local_store", func(ctx context.Context) error {
		return localStore.Close()
	})

	var (
		remoteStore  repository.KV
		remotePinger monitor.Pinger
	)
	switch cfg.Store.RemoteBackend {
	case config.RemoteRedis:
		redisClient, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		remoteStore = redisRepo.NewStore(redisClient)
		remotePinger = monitor.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	case config.RemotePostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		remoteStore = pgRepo.NewStore(pool)
		remotePinger = monitor.PingFunc(pool.Ping)
	default:
		zapLogger.Info("no remote backend configured, running on local store only")
	}

	mon := monitor.New(remotePinger, localStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var stack repository.KV = localStore
	if remoteStore != nil {
		stack = repository.NewFallback(remoteStore, localStore, mon, zapLogger)
	}
	store := repository.NewSerialized(stack, cfg.Store.QueueDepth)
	manager.Register("store_queue", func(ctx context.Context) error {
		store.Close()
		return nil
	})

	registryUseCase := registryUC.New(store, zapLogger)
	userdataUseCase := userdataUC.New(store, cfg.Backup.Keep, zapLogger)
	integrityUseCase := integrityUC.New(userdataUseCase, zapLogger)
	taskUseCase := taskUC.New(userdataUseCase, zapLogger)

	scheduler := services.NewScheduler(zapLogger)
	scheduler.Start()
	manager.Register("scheduler", func(ctx context.Context) error {
		scheduler.Close()
		return nil
	})
	sweeper := services.NewSweeper(scheduler, integrityUseCase, cfg.Sweep.Interval, cfg.Sweep.Timeout, zapLogger)

	sessionUseCase := sessionUC.New(store, registryUseCase, sweeper, cfg.Session.Freshness, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	tokenCfg := apiHandler.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	}

	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(registryUseCase, sessionUseCase, sweeper, tokenCfg, ctxAdapter, zapLogger),
		Profile:   apiHandler.NewProfileHandler(registryUseCase, ctxAdapter, zapLogger),
		Bundle:    apiHandler.NewBundleHandler(userdataUseCase, ctxAdapter, zapLogger),
		Task:      apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Integrity: apiHandler.NewIntegrityHandler(integrityUseCase, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
