// Package main — точка входа HTTP сервера магазина.
// Сервер обслуживает каталог, корзину, оформление заказов,
// взвешивание весовых позиций и проверку подтверждений оплаты.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/bagstore/internal/config"
	"example.com/bagstore/internal/events"
	"example.com/bagstore/internal/handler"
	"example.com/bagstore/internal/middleware"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/internal/service"
	"example.com/bagstore/pkg/auth"
	"example.com/bagstore/pkg/db"
	"example.com/bagstore/pkg/healthcheck"
	"example.com/bagstore/pkg/logger"
	"example.com/bagstore/pkg/metrics"
	"example.com/bagstore/pkg/tracing"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка загрузки конфигурации")
	}

	// Инициализируем логгер
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	logger.Info().
		Str("service", cfg.App.Name).
		Str("env", cfg.App.Env).
		Msg("Запуск сервера")

	// === Хранилища ===

	// MySQL
	gormDB, err := db.ConnectMySQL(cfg.MySQL, cfg.IsDevelopment())
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка подключения к MySQL")
	}
	logger.Info().Msg("Подключение к MySQL установлено")

	// Redis (кэш ценовых правил и чёрный список токенов)
	redisClient := db.ConnectRedis(cfg.Redis)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Ошибка закрытия Redis")
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		logger.Fatal().Err(err).Msg("Не удалось подключиться к Redis")
	}
	pingCancel()
	logger.Info().Str("addr", cfg.Redis.Addr()).Msg("Подключено к Redis")

	// === Observability: Metrics + Tracing ===

	readinessCheck := healthcheck.Composite(
		func(ctx context.Context) error { return healthcheck.CheckMySQL(ctx, gormDB) },
		func(ctx context.Context) error { return healthcheck.CheckRedis(ctx, redisClient) },
	)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr(), metrics.WithReadinessCheck(readinessCheck))
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Ошибка Metrics Server")
			}
		}()
	}

	shutdownTracing, err := tracing.InitTracer(tracing.Config{
		ServiceName:  cfg.App.Name,
		OTLPEndpoint: cfg.Tracing.Endpoint(),
		Environment:  cfg.App.Env,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Не удалось инициализировать tracing")
	}

	// === Слои приложения ===

	outboxRepo := events.NewRepository(gormDB)
	catalogRepo := repository.NewCatalogRepository(gormDB)
	pricingRepo := repository.NewPricingRepository(gormDB)
	cartRepo := repository.NewCartRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB, outboxRepo, cfg.Kafka.Topic)
	receiptRepo := repository.NewReceiptRepository(gormDB, outboxRepo, cfg.Kafka.Topic)
	userRepo := repository.NewUserRepository(gormDB)
	addressRepo := repository.NewAddressRepository(gormDB)

	// JWT менеджер с чёрным списком отозванных токенов
	jwtManager, err := auth.NewManager(auth.Config{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		TokenTTL: cfg.JWT.TokenTTL,
	}, auth.NewBlacklist(redisClient))
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка инициализации JWT")
	}

	pricingService := service.NewPricingService(catalogRepo, pricingRepo, redisClient, cfg.Pricing.CacheTTL)
	catalogService := service.NewCatalogService(catalogRepo, pricingService)
	cartService := service.NewCartService(cartRepo, catalogRepo, pricingService)
	checkoutService := service.NewCheckoutService(orderRepo, catalogRepo, cartRepo, cartService)
	orderService := service.NewOrderService(orderRepo, receiptRepo)
	weighingService := service.NewWeighingService(orderRepo)
	userService := service.NewUserService(userRepo, addressRepo, jwtManager, service.LogMailer{}, cfg.App.BaseURL, cfg.Reset.TokenTTL)

	// === Outbox worker: публикация событий заказов в Kafka ===

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var producer *events.Producer
	if cfg.Kafka.Enabled {
		producer, err = events.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			logger.Fatal().Err(err).Msg("Ошибка создания Kafka producer")
		}

		worker := events.NewWorker(outboxRepo, producer, events.DefaultWorkerConfig())
		go worker.Run(workerCtx)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Outbox worker запущен")
	}

	// === Роутер и HTTP сервер ===

	router := handler.NewRouter(handler.RouterConfig{
		AuthMW:         middleware.NewAuthMiddleware(jwtManager),
		ReadinessCheck: readinessCheck,
		Debug:          cfg.IsDevelopment(),
		Users:          userService,
		Catalog:        catalogService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         orderService,
		Weighing:       weighingService,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr()).Msg("HTTP сервер запущен")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Ошибка HTTP сервера")
		}
	}()

	// === Graceful Shutdown ===

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Получен сигнал завершения, останавливаем сервер...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Ошибка при остановке сервера")
	}

	// Останавливаем outbox worker и producer
	workerCancel()
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error().Err(err).Msg("Ошибка закрытия Kafka producer")
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Ошибка остановки Metrics Server")
		}
	}

	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Ошибка остановки Tracing")
		}
	}

	// Закрываем подключение к MySQL
	if sqlDB, err := gormDB.DB(); err == nil && sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error().Err(err).Msg("Ошибка закрытия MySQL")
		}
	}

	logger.Info().Msg("Сервер остановлен")
}
