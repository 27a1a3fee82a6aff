package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clima-data/common/database"
	"clima-data/common/logger"
	mqttcommon "clima-data/common/mqtt"
	rediscommon "clima-data/common/redis"
	"clima-data/internal/auth"
	"clima-data/internal/config"
	"clima-data/internal/consumer"
	httpapi "clima-data/internal/http"
	"clima-data/internal/repository"
	"clima-data/internal/service"
	"clima-data/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "clima-data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(ctx, &cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect database", zap.Error(err))
	}
	log.Info("Database connected", zap.Int("max_conns", cfg.Database.MaxConns))

	devicesRepo := repository.NewPostgresDevicesRepository(db)
	sensorsRepo := repository.NewPostgresSensorsRepository(db)
	readingsRepo := repository.NewPostgresReadingsRepository(db)
	chartsRepo := repository.NewPostgresChartsRepository(db)
	usersRepo := repository.NewPostgresUsersRepository(db)

	timeout := cfg.Database.QueryTimeout
	identitySvc := service.NewIdentityService(devicesRepo, sensorsRepo, timeout, log)
	chartSvc := service.NewChartService(chartsRepo, timeout, log)
	exportSvc := service.NewExportService(readingsRepo, cfg.Export.MaxLimit, timeout, log)
	authSvc := service.NewAuthService(
		usersRepo,
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		auth.NewJWTIssuer(cfg.Auth.SecretKey, cfg.Auth.TokenTTL),
		timeout,
		log,
	)

	// Redis 不可用时图表缓存与事件流降级为直接查询
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	var kv store.KV
	var publisher service.EventPublisher
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		log.Warn("Redis unavailable, chart cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	} else {
		kv = store.NewRedisKV(redisClient)
		publisher = service.NewRedisStreamPublisher(redisClient, cfg.Charts.Stream)
	}

	refresher := service.NewChartRefresher(chartSvc, kv, publisher, service.RefresherOptions{
		CacheKey: cfg.Charts.CacheKey,
		TTL:      cfg.Charts.RefreshTTL,
	}, log)

	var trigger service.RefreshTrigger
	if cfg.Charts.RefreshEnabled {
		trigger = refresher
		go refresher.Start(ctx)
	}
	ingestSvc := service.NewIngestService(readingsRepo, trigger, timeout, log)

	var mqttClient *mqttcommon.Client
	var mqttConsumer *consumer.MQTTConsumer
	if cfg.MQTT.Enabled {
		mqttClient, err = mqttcommon.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Fatal("Failed to connect MQTT broker", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		}
		mqttConsumer = consumer.NewMQTTConsumer(&cfg.MQTT, mqttClient, ingestSvc, log)
		go func() {
			if err := mqttConsumer.Start(ctx); err != nil {
				log.Error("MQTT consumer failed", zap.Error(err))
			}
		}()
	}

	authenticator := httpapi.NewAuthenticator(authSvc, cfg.Auth.Required, log)
	router := httpapi.NewRouter(authenticator, log)
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}, log))
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authSvc, log))
	router.RegisterIdentityRoutes(httpapi.NewIdentityHandler(identitySvc, log))
	router.RegisterReadingRoutes(httpapi.NewReadingsHandler(ingestSvc, log))
	router.RegisterChartRoutes(httpapi.NewChartsHandler(chartSvc, refresher, log))
	router.RegisterExportRoutes(httpapi.NewExportHandler(exportSvc, cfg.Export.DefaultLimit, log))

	srv := service.NewServer(cfg.HTTP.Addr, httpapi.WithRequestLogging(router, log), log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	if mqttConsumer != nil {
		mqttConsumer.Stop()
		mqttClient.Disconnect()
	}
	_ = rediscommon.Close(redisClient)
	_ = database.Close(db)
	log.Info("clima-data stopped")
}
