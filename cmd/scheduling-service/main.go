package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/consulatcore/scheduling/internal/booking"
	"github.com/consulatcore/scheduling/internal/consumer"
	"github.com/consulatcore/scheduling/internal/handlers"
	"github.com/consulatcore/scheduling/internal/inbox"
	"github.com/consulatcore/scheduling/internal/lifecycle"
	"github.com/consulatcore/scheduling/internal/orgschedule"
	"github.com/consulatcore/scheduling/internal/outbox"
	"github.com/consulatcore/scheduling/internal/storage"
	"github.com/consulatcore/scheduling/libs/auth"
	"github.com/consulatcore/scheduling/libs/config"
	"github.com/consulatcore/scheduling/libs/db"
	"github.com/consulatcore/scheduling/libs/httpx"
	"github.com/consulatcore/scheduling/libs/kafkax"
	otelx "github.com/consulatcore/scheduling/libs/otel"
	"github.com/consulatcore/scheduling/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	brokers := config.String("KAFKA_BROKERS", "")
	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)

	appointmentRepo := storage.NewAppointmentRepository(pool)
	slotRepo := storage.NewSlotRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)

	var hoursProvider orgschedule.Provider = storage.NewScheduleRepository(pool)
	if isTruthy(config.String("STATIC_WORKING_HOURS", "false")) {
		hoursProvider = orgschedule.NewStaticProvider(config.String("DEFAULT_TIMEZONE", "UTC"))
		logger.Info("using static working hours template")
	}

	svc := lifecycle.NewService(appointmentRepo, slotRepo, logger, lifecycle.Config{
		ReschedulePolicy: reschedulePolicy(config.String("RESCHEDULE_POLICY", "")),
	})
	facade := booking.NewFacade(svc, appointmentRepo, slotRepo, hoursProvider, nil)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	if brokers != "" {
		requestConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "scheduling-service"),
			Topic:   consumer.TopicAppointmentRequested,
		}, consumer.NewRequestHandler(facade, appointmentRepo, outboxRepo, logger))
		go requestConsumer.Run(ctx)
	} else {
		logger.Warn("request consumer disabled (no kafka brokers configured)")
	}

	var jwksClient *auth.JWKSClient
	if jwksURL := config.String("JWKS_URL", ""); jwksURL != "" {
		ttl := 300
		if v, err := strconv.Atoi(config.String("JWKS_CACHE_SECONDS", "300")); err == nil && v > 0 {
			ttl = v
		}
		jwksClient = auth.NewJWKSClient(jwksURL, time.Duration(ttl)*time.Second)
	}
	verifier := handlers.NewTokenVerifier(config.String("JWT_SECRET", "dev-secret"), jwksClient)
	apptHandler := handlers.NewAppointmentHandler(facade, svc, appointmentRepo, outboxRepo, logger)
	availHandler := handlers.NewAvailabilityHandler(facade, logger)
	slotHandler := handlers.NewSlotHandler(slotRepo, logger)

	// Public booking surface.
	mux.HandleFunc("/api/v1/scheduling/availability", availHandler.Windows)
	mux.HandleFunc("/api/v1/scheduling/availability/dates", availHandler.Dates)
	mux.HandleFunc("/api/v1/scheduling/appointments/book", apptHandler.Book)
	mux.HandleFunc("/api/v1/scheduling/appointments/cancel", apptHandler.Cancel)
	mux.HandleFunc("/api/v1/scheduling/appointments/get", apptHandler.Get)
	mux.HandleFunc("/api/v1/scheduling/appointments/by-participant", apptHandler.ListByParticipant)
	mux.HandleFunc("/api/v1/scheduling/slots", slotHandler.List)

	// Staff surface.
	mux.HandleFunc("/api/v1/scheduling/appointments", verifier.RequireStaff(apptHandler.List))
	mux.HandleFunc("/api/v1/scheduling/appointments/confirm", verifier.RequireStaff(apptHandler.Confirm))
	mux.HandleFunc("/api/v1/scheduling/appointments/complete", verifier.RequireStaff(apptHandler.Complete))
	mux.HandleFunc("/api/v1/scheduling/appointments/miss", verifier.RequireStaff(apptHandler.MarkMissed))
	mux.HandleFunc("/api/v1/scheduling/appointments/reschedule", verifier.RequireStaff(apptHandler.Reschedule))
	mux.HandleFunc("/api/v1/scheduling/appointments/participants/add", verifier.RequireStaff(apptHandler.AddParticipant))
	mux.HandleFunc("/api/v1/scheduling/appointments/participants/status", verifier.RequireStaff(apptHandler.UpdateParticipantStatus))
	mux.HandleFunc("/api/v1/scheduling/appointments/participants/remove", verifier.RequireStaff(apptHandler.RemoveParticipant))
	mux.HandleFunc("/api/v1/scheduling/slots/create", verifier.RequireStaff(slotHandler.Create))
	mux.HandleFunc("/api/v1/scheduling/slots/block", verifier.RequireStaff(slotHandler.SetBlocked))

	limitPerMinute := 120
	if v, err := strconv.Atoi(config.String("RATE_LIMIT_PER_MINUTE", "120")); err == nil && v > 0 {
		limitPerMinute = v
	}
	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		redisDB := 0
		if v, err := strconv.Atoi(config.String("REDIS_DB", "0")); err == nil && v >= 0 {
			redisDB = v
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB,
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, isTruthy(config.String("RATE_LIMIT_FAIL_OPEN", "true")))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	requestTimeout := 10 * time.Second
	if v, err := strconv.Atoi(config.String("REQUEST_TIMEOUT_SECONDS", "10")); err == nil && v > 0 {
		requestTimeout = time.Duration(v) * time.Second
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id")),
			AllowCredentials: isTruthy(config.String("CORS_ALLOW_CREDENTIALS", "false")),
			MaxAge:           time.Duration(corsMaxAgeSeconds()) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func reschedulePolicy(raw string) lifecycle.ReschedulePolicy {
	if lifecycle.ReschedulePolicy(raw) == lifecycle.KeepStatus {
		return lifecycle.KeepStatus
	}
	return lifecycle.RequireReconfirm
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func corsMaxAgeSeconds() int {
	value := 600
	if v, err := strconv.Atoi(config.String("CORS_MAX_AGE_SECONDS", "600")); err == nil && v > 0 {
		value = v
	}
	return value
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
