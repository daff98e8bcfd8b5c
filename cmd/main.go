package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/cancel_reservation"
	createReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/create_reservation"
	defineTimeWindowHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/define_time_window"
	deleteReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/delete_reservation"
	deleteTimeWindowHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/delete_time_window"
	editReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/edit_reservation"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_available_slots"
	getMemberReservationsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_member_reservations"
	getReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_reservation"
	getReservationHistoryHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_reservation_history"
	getReservationStatsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_reservation_stats"
	getStoreReservationsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_store_reservations"
	listTimeWindowsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/list_time_windows"
	updateReservationStatusHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/update_reservation_status"
	updateTimeWindowHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/update_time_window"
	verifyGuestHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/verify_guest"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/config"
	timeWindowCache "github.com/m04kA/SMC-ReservationService/internal/infra/cache/timewindow"
	changeLogRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/changelog"
	relayOffsetRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/relayoffset"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	timeWindowRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/timewindow"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/auditsink"
	memberServiceClient "github.com/m04kA/SMC-ReservationService/internal/integrations/memberservice"
	storeServiceClient "github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
	"github.com/m04kA/SMC-ReservationService/internal/service/access"
	"github.com/m04kA/SMC-ReservationService/internal/service/capacity"
	"github.com/m04kA/SMC-ReservationService/internal/service/guests"
	reservationsService "github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	timeWindowsService "github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
	createReservationUC "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
	editReservationUC "github.com/m04kA/SMC-ReservationService/internal/usecase/edit_reservation"
	getAvailableSlotsUC "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-ReservationService/internal/worker/changelogrelay"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ReservationService...")
	log.Info("Configuration loaded from %s", *configPath)

	// Инициализируем метрики (если включены)
	// nil-коллектор безопасен: все методы записи его проверяют
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(config.Seconds(cfg.Database.ConnMaxLifetime))

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Обёртка измеряет запросы; без метрик работает как прокси
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)

	txMgr := txmanager.NewTransactionManager(
		wrappedDB,
		txmanager.WithMaxRetries(cfg.Database.TxMaxRetries),
		txmanager.WithBackoff(time.Duration(cfg.Database.TxRetryBackoff)*time.Millisecond),
		txmanager.WithRetryRecorder(metricsCollector),
		txmanager.WithLogger(log.With("txmanager")),
	)

	// Инициализируем репозитории
	reservationRepository := reservationRepo.NewRepository(wrappedDB)
	timeWindowRepository := timeWindowRepo.NewRepository(wrappedDB)
	changeLogRepository := changeLogRepo.NewRepository(wrappedDB)

	// Кэш каталога окон (если включен)
	var windowCache timeWindowsService.WindowCache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// кэш необязателен: каталог читается из БД
			log.Warn("Redis is unavailable at %s, time window cache disabled: %v", cfg.Redis.Addr, err)
			_ = redisClient.Close()
			redisClient = nil
		} else {
			windowCache = timeWindowCache.NewCache(redisClient, config.Seconds(cfg.Redis.TTLSeconds))
			log.Info("Time window cache enabled (redis=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTLSeconds)
		}
		cancelPing()
	}

	// Инициализируем интеграционных клиентов
	storeClient := storeServiceClient.NewClient(cfg.StoreService.URL, config.Seconds(cfg.StoreService.Timeout))
	memberClient := memberServiceClient.NewClient(cfg.MemberService.URL, config.Seconds(cfg.MemberService.Timeout), log)
	log.Info("Integration clients initialized (StoreService=%s timeout=%ds, MemberService=%s timeout=%ds)",
		cfg.StoreService.URL, cfg.StoreService.Timeout, cfg.MemberService.URL, cfg.MemberService.Timeout)

	// Инициализируем сервисы
	guestSvc, err := guests.NewService(reservationRepository, guests.Config{
		PhonePattern:       cfg.Reservations.PhonePattern,
		LookupDays:         cfg.Reservations.GuestLookupDays,
		LookupTokenMinutes: cfg.Reservations.LookupTokenMinutes,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize guest service: %v", err)
	}

	accessChecker := access.NewChecker(storeClient, guestSvc, log)
	capacitySvc := capacity.NewService(reservationRepository, metricsCollector, log)
	timeWindowSvc := timeWindowsService.NewService(
		timeWindowRepository,
		reservationRepository,
		windowCache,
		storeClient,
		txMgr,
		log,
	)
	reservationSvc := reservationsService.NewService(
		reservationRepository,
		changeLogRepository,
		accessChecker,
		txMgr,
		metricsCollector,
		log,
	)

	// Инициализируем use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		reservationRepository,
		changeLogRepository,
		timeWindowSvc,
		capacitySvc,
		guestSvc,
		storeClient,
		memberClient,
		txMgr,
		metricsCollector,
		createReservationUC.Config{
			MaxAdvanceDays:    cfg.Reservations.MaxAdvanceDays,
			ReferenceAttempts: cfg.Reservations.ReferenceAttempts,
		},
		log,
	)
	editReservationUseCase := editReservationUC.NewUseCase(
		reservationRepository,
		changeLogRepository,
		timeWindowSvc,
		capacitySvc,
		accessChecker,
		txMgr,
		metricsCollector,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		reservationRepository,
		timeWindowSvc,
		storeClient,
		getAvailableSlotsUC.Config{MaxAdvanceDays: cfg.Reservations.MaxAdvanceDays},
		log,
	)

	// Инициализируем handlers
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	editReservation := editReservationHandler.NewHandler(editReservationUseCase, log)
	cancelReservation := cancelReservationHandler.NewHandler(reservationSvc, log)
	verifyGuest := verifyGuestHandler.NewHandler(guestSvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getMemberReservations := getMemberReservationsHandler.NewHandler(reservationSvc, log)
	updateReservationStatus := updateReservationStatusHandler.NewHandler(reservationSvc, log)
	deleteReservation := deleteReservationHandler.NewHandler(reservationSvc, log)
	getReservationHistory := getReservationHistoryHandler.NewHandler(reservationSvc, log)
	getStoreReservations := getStoreReservationsHandler.NewHandler(reservationSvc, log)
	getReservationStats := getReservationStatsHandler.NewHandler(reservationSvc, log)
	listTimeWindows := listTimeWindowsHandler.NewHandler(timeWindowSvc, log)
	defineTimeWindow := defineTimeWindowHandler.NewHandler(timeWindowSvc, log)
	updateTimeWindow := updateTimeWindowHandler.NewHandler(timeWindowSvc, log)
	deleteTimeWindow := deleteTimeWindowHandler.NewHandler(timeWindowSvc, log)

	verifyLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		PerMinute:      cfg.RateLimit.VerifyGuestPerMinute,
		Burst:          cfg.RateLimit.VerifyGuestBurst,
		TrustedProxies: cfg.RateLimit.TrustedProxies,
	})

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix; заголовки идентичности разбираются для всех маршрутов
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Identity)

	// ============================================================
	// PUBLIC ROUTES (гость, участник или сотрудник)
	// ============================================================

	// Окна магазина на дату с текущей загрузкой
	api.HandleFunc("/time-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Проверка гостя по телефону (ограничена по частоте)
	api.Handle("/reservations/verify-guest",
		verifyLimiter.Middleware(http.HandlerFunc(verifyGuest.Handle))).Methods(http.MethodPost)

	// Создание бронирования: участник по X-Member-ID или гость с контактами
	api.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)

	// Просмотр, изменение и отмена: права проверяет сервис
	api.HandleFunc("/reservations/{reservationId:[0-9]+}", getReservation.Handle).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{reservationId:[0-9]+}", editReservation.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/reservations/{reservationId:[0-9]+}/cancel", cancelReservation.Handle).Methods(http.MethodPost)

	// ============================================================
	// MEMBER ROUTES (требуют X-Member-ID header)
	// ============================================================

	member := api.PathPrefix("/members/me").Subrouter()
	member.Use(middleware.RequireMember)
	member.HandleFunc("/reservations", getMemberReservations.Handle).Methods(http.MethodGet)

	// ============================================================
	// MERCHANT ROUTES (требуют X-Staff-ID header)
	// ============================================================

	merchant := api.PathPrefix("/merchant").Subrouter()
	merchant.Use(middleware.RequireStaff)

	// --- Бронирования ---
	merchant.HandleFunc("/reservations/{reservationId:[0-9]+}/update-status", updateReservationStatus.Handle).Methods(http.MethodPost)
	merchant.HandleFunc("/reservations/{reservationId:[0-9]+}/cancel", cancelReservation.Handle).Methods(http.MethodPost)
	merchant.HandleFunc("/reservations/{reservationId:[0-9]+}", deleteReservation.Handle).Methods(http.MethodDelete)
	merchant.HandleFunc("/reservations/{reservationId:[0-9]+}/history", getReservationHistory.Handle).Methods(http.MethodGet)
	merchant.HandleFunc("/stores/{storeId:[0-9]+}/reservations", getStoreReservations.Handle).Methods(http.MethodGet)
	merchant.HandleFunc("/stores/{storeId:[0-9]+}/reservations/stats", getReservationStats.Handle).Methods(http.MethodGet)

	// --- Каталог окон ---
	merchant.HandleFunc("/stores/{storeId:[0-9]+}/time-windows", listTimeWindows.Handle).Methods(http.MethodGet)
	merchant.HandleFunc("/stores/{storeId:[0-9]+}/time-windows", defineTimeWindow.Handle).Methods(http.MethodPost)
	merchant.HandleFunc("/time-windows/{windowId:[0-9]+}", updateTimeWindow.Handle).Methods(http.MethodPut)
	merchant.HandleFunc("/time-windows/{windowId:[0-9]+}", deleteTimeWindow.Handle).Methods(http.MethodDelete)

	// Фоновая доставка журнала изменений в аудит (если включена)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	var auditPublisher *auditsink.Publisher

	if cfg.Relay.Enabled {
		relayLog := log.With("changelog-relay")
		auditPublisher = auditsink.NewPublisher(
			cfg.Kafka.Brokers,
			cfg.Kafka.AuditTopic,
			config.Seconds(cfg.Kafka.WriteTimeout),
			relayLog,
		)
		relay := changelogrelay.New(
			changeLogRepository,
			relayOffsetRepo.NewRepository(wrappedDB),
			auditPublisher,
			metricsCollector,
			changelogrelay.Config{
				Consumer:   cfg.Relay.Consumer,
				Interval:   config.Seconds(cfg.Relay.IntervalSeconds),
				GapTimeout: config.Seconds(cfg.Relay.GapTimeoutSeconds),
				BatchSize:  cfg.Relay.BatchSize,
			},
			relayLog,
		)

		workers.Add(1)
		go func() {
			defer workers.Done()
			relay.Run(workerCtx)
		}()
		log.Info("Change log relay started (topic=%s, brokers=%v)", cfg.Kafka.AuditTopic, cfg.Kafka.Brokers)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  config.Seconds(cfg.Server.ReadTimeout),
		WriteTimeout: config.Seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  config.Seconds(cfg.Server.IdleTimeout),
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Seconds(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые задачи после HTTP сервера
	stopWorkers()
	workers.Wait()

	if auditPublisher != nil {
		if err := auditPublisher.Close(); err != nil {
			log.Error("Failed to close audit publisher: %v", err)
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
