package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"homestock_notifier/internal/app"
	"homestock_notifier/internal/infra/config"
	idb "homestock_notifier/internal/infra/database"
	"homestock_notifier/internal/infra/email"
	"homestock_notifier/internal/infra/httpapi"
	"homestock_notifier/internal/infra/lock"
	"homestock_notifier/internal/infra/logger"
	"homestock_notifier/internal/infra/metrics"
	"homestock_notifier/internal/infra/scheduler"
	"homestock_notifier/internal/infra/telegram"
	"homestock_notifier/internal/infra/twilio"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	if cfg.AutoMigrate {
		if err := idb.Migrate(ctx, db, logger.Component("migrate")); err != nil {
			mainLogger.Fatalf("FATAL: Could not apply migrations: %v", err)
		}
		mainLogger.Info("Database migrations applied.")
	}

	groceryRepo := idb.NewPostgresGroceryRepository(db)
	userRepo := idb.NewPostgresUserRepository(db)

	// Transports and channel senders
	emailTransport, err := email.NewSMTPTransport(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
	})
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not configure email transport: %v", err)
	}
	messagesTransport := twilio.NewMessagesTransport(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	if cfg.TwilioPhoneNumber == "" {
		mainLogger.Warn("TWILIO_PHONE_NUMBER is not set. SMS notifications will fail.")
	}

	senderLogger := logger.Component("sender")
	emailSender := app.NewEmailSender(emailTransport, senderLogger)
	chatSender := app.NewChatSender(messagesTransport, cfg.TwilioWhatsAppFrom, senderLogger)
	textSender := app.NewTextSender(messagesTransport, cfg.TwilioPhoneNumber, app.DefaultHorizonDays, senderLogger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	expiryMetrics := metrics.NewExpiryMetrics(registry)

	// Optional run lease
	var runLock app.RunLock
	if cfg.RedisURL != "" {
		redisClient, err := lock.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			mainLogger.Fatalf("FATAL: Could not connect to redis: %v", err)
		}
		defer redisClient.Close()
		redisLock, err := lock.NewRedisLock(redisClient, lock.DefaultKey, cfg.RunLockTTL)
		if err != nil {
			mainLogger.Fatalf("FATAL: Could not create run lock: %v", err)
		}
		runLock = redisLock
		mainLogger.Info("Redis run lease enabled.")
	} else {
		mainLogger.Warn("REDIS_URL is not set. Overlapping expiry checks may send duplicate notifications.")
	}

	expiryService, err := app.NewExpiryService(app.ExpiryServiceParams{
		Groceries: groceryRepo,
		Users:     userRepo,
		Email:     emailSender,
		Chat:      chatSender,
		Text:      textSender,
		Lock:      runLock,
		Metrics:   expiryMetrics,
		Logger:    logger.Component("expiry"),
		Config: app.ExpiryConfig{
			HorizonDays:         app.DefaultHorizonDays,
			CountryCode:         cfg.CountryCallingCode,
			ChannelTimeout:      cfg.ChannelSendTimeout,
			MaxConcurrentGroups: cfg.MaxConcurrentGroups,
		},
	})
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create expiry service: %v", err)
	}

	trigger := app.NewTrigger(expiryService, logger.Component("trigger"), 0)
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		trigger.Run(ctx)
	}()

	// Optional operator bot
	var reporter scheduler.Reporter
	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				mainLogger.WithError(err).Error("telebot error")
			},
		})
		if err != nil {
			mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
		}
		botLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, botLogger)
		telegram.RegisterAdminHandlers(ctx, bot, expiryService, trigger, cfg.AdminTelegramID, botLogger)
		reporter = telegram.NewSummaryReporter(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID, botLogger)
		go bot.Start()
		mainLogger.Info("Telegram operator bot started.")
	}

	expiryScheduler := scheduler.NewExpiryScheduler(expiryService, reporter, logger.Component("scheduler"), cfg.CronSpecExpiryCheck, 0)
	if err := expiryScheduler.Start(); err != nil {
		mainLogger.Fatalf("FATAL: %v", err)
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.RouterParams{
			Checker:  expiryService,
			Trigger:  trigger,
			DB:       db,
			Gatherer: registry,
			Logger:   logger.Component("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		mainLogger.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.Errorf("HTTP server stopped unexpectedly: %v", err)
			stop()
		}
	}()

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	expiryScheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	workers.Wait() // In-flight triggered run finishes before the database closes
	mainLogger.Info("Application shut down gracefully.")
}
