package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payflow/internal/app"
	"payflow/internal/domain/telegram"
	"payflow/internal/infra/channel"
	"payflow/internal/infra/config"
	idb "payflow/internal/infra/database"
	"payflow/internal/infra/logger"
	"payflow/internal/infra/scheduler"
	itelegram "payflow/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Payflow ledger & reminder engine starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancelMigrate()
	if err := idb.RunMigrations(migrateCtx, db); err != nil {
		log.Fatalf("Could not apply database schema: %v", err)
	}
	log.Info("Database schema is up to date.")

	// Initialize Repositories
	merchantRepo := idb.NewPostgresMerchantRepository(db)
	customerRepo := idb.NewPostgresCustomerRepository(db)
	ledgerRepo := idb.NewPostgresLedgerRepository(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)
	notifyRepo := idb.NewPostgresNotifyRepository(db)
	log.Info("Repositories initialized.")

	clock := app.SystemClock()

	reminderService := app.NewReminderService(merchantRepo, customerRepo, ledgerRepo, reminderRepo, notifyRepo, log, clock)
	log.Info("Reminder service initialized.")

	dispatcher := channel.Default(
		channel.NewSMSSender(log),
		channel.NewEmailSender(log),
		channel.NewWhatsAppSender(log),
	)
	dispatchService := app.NewDispatchService(notifyRepo, customerRepo, dispatcher, log, clock, cfg.OutboxBatchSize)
	log.Info("Dispatch service initialized.")

	// Optional admin notifier: reminder run summaries over Telegram.
	var adminClient telegram.Client
	if cfg.TelegramToken != "" {
		bot, err := telebot.NewBot(telebot.Settings{
			Token: cfg.TelegramToken,
			OnError: func(err error, c telebot.Context) { // Global error handler
				log.Errorf("telebot: %v", err)
			},
		})
		if err != nil {
			log.Fatalf("Could not create Telegram bot: %v", err)
		}
		adminClient = itelegram.NewTelebotAdapter(bot)
		log.Infof("Admin Telegram notifier enabled for chat %d.", cfg.AdminTelegramID)
	}

	engineScheduler := scheduler.NewEngineScheduler(
		reminderService,
		dispatchService,
		adminClient,
		cfg.AdminTelegramID,
		log,
		cfg.CronSpecDailyReminders,
		cfg.CronSpecOutboxDispatch,
	)
	engineScheduler.Start()

	log.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	engineScheduler.Stop()
	// db.Close() is handled by defer
	log.Info("Application shut down gracefully.")
}
