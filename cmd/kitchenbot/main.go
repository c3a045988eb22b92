package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/api"
	"github.com/Kerhoff/KitchenboT/internal/config"
	"github.com/Kerhoff/KitchenboT/internal/handlers"
	"github.com/Kerhoff/KitchenboT/internal/metrics"
	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/repository"
	"github.com/Kerhoff/KitchenboT/internal/repository/file"
	"github.com/Kerhoff/KitchenboT/internal/repository/memory"
	"github.com/Kerhoff/KitchenboT/internal/repository/postgres"
	"github.com/Kerhoff/KitchenboT/internal/repository/sqlite"
	"github.com/Kerhoff/KitchenboT/internal/scheduler"
	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/state"
	"github.com/Kerhoff/KitchenboT/internal/telegram"
	"github.com/Kerhoff/KitchenboT/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting KitchenboT...")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Document store
	repo, err := openStore(ctx, cfg, l)
	if err != nil {
		l.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer repo.Close()

	m := metrics.New()

	store, err := state.New(ctx, repo, l, m)
	if err != nil {
		l.Fatalf("Failed to load document: %v", err)
	}

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	// Service layer
	dispatcher := notify.NewDispatcher(bot, l, m)
	svc := service.New(store, dispatcher, l,
		service.WithMetrics(m),
		service.WithAdminPasswordHash(cfg.AdminPasswordHash),
		service.WithHeartbeatSecret(cfg.HeartbeatSecret),
	)
	if err := svc.SeedOwners(ctx, cfg.OwnerIDs); err != nil {
		l.Fatalf("Failed to seed owners: %v", err)
	}
	bot.SetUserRegistrar(svc)

	registerHandlers(bot, svc, l)

	// Start scheduler
	sched := scheduler.New(svc, l, m, cfg.TickInterval)
	go func() {
		if err := sched.Start(ctx); err != nil {
			l.Errorf("Scheduler error: %v", err)
		}
	}()

	// Start HTTP server for heartbeats, health and metrics
	apiServer := api.NewServer(svc, m.Handler(), l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Start Telegram bot polling
	go func() {
		if err := bot.Start(ctx); err != nil {
			l.Errorf("Bot error: %v", err)
		}
	}()

	l.Info("KitchenboT started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	l.Info("KitchenboT stopped")
}

func openStore(ctx context.Context, cfg *config.Config, l *logrus.Logger) (repository.DocumentStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		return postgres.NewDocumentRepository(db.DB), nil
	case config.DriverSQLite:
		return sqlite.NewDocumentRepository(cfg.SQLitePath)
	case config.DriverMemory:
		l.Warn("Using the in-memory store; state is lost on restart")
		return memory.NewDocumentRepository(nil), nil
	default:
		return file.NewDocumentRepository(cfg.DataFile)
	}
}

func registerHandlers(bot *telegram.Bot, svc *service.Service, l *logrus.Logger) {
	bot.RegisterCommand("start", handlers.NewStartHandler(l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))
	bot.RegisterCommand("cancel", handlers.NewCancelHandler(svc, l))
	bot.SetTextHandler(handlers.NewConversationHandler(svc, l))

	// Vegetable list check
	bot.RegisterCommand("veg", handlers.NewVegCheckHandler(svc, l))
	bot.RegisterCallback("veg", handlers.NewVegCallbackHandler(svc, l))

	// Inventory handlers
	bot.RegisterCommand("stock", handlers.NewStockHandler(svc, l))
	bot.RegisterCommand("additem", handlers.NewAddItemHandler(svc, l))
	bot.RegisterCommand("purchase", handlers.NewPurchaseHandler(svc, l))
	bot.RegisterCommand("use", handlers.NewUseHandler(svc, l))
	bot.RegisterCommand("usage", handlers.NewUsageHandler(svc, l))
	bot.RegisterCommand("threshold", handlers.NewThresholdHandler(svc, l))
	bot.RegisterCommand("delitem", handlers.NewRemoveItemHandler(svc, l))

	// Reminder handlers
	bot.RegisterCommand("remind", handlers.NewRemindHandler(svc, l))
	bot.RegisterCommand("reminders", handlers.NewRemindersListHandler(svc, l))
	bot.RegisterCommand("delremind", handlers.NewRemindDeleteHandler(svc, l))
	bot.RegisterCallback("remdone", handlers.NewReminderDoneHandler(svc, l))

	// Staff and payroll handlers
	bot.RegisterCommand("in", handlers.NewClockInHandler(svc, l))
	bot.RegisterCommand("out", handlers.NewClockOutHandler(svc, l))
	bot.RegisterCommand("attendance", handlers.NewAttendanceHandler(svc, l))
	bot.RegisterCallback("att", handlers.NewAttendanceCallbackHandler(svc, l))
	bot.RegisterCommand("payroll", handlers.NewPayrollHandler(svc, l))
	bot.RegisterCallback("pay", handlers.NewPayCallbackHandler(svc, l))
	bot.RegisterCommand("addemployee", handlers.NewAddEmployeeHandler(svc, l))
	bot.RegisterCommand("setrole", handlers.NewSetRoleHandler(svc, l))
	bot.RegisterCommand("setsalary", handlers.NewSetSalaryHandler(svc, l))

	// Admin handlers
	bot.RegisterCommand("login", handlers.NewFlowHandler(svc, l, models.FlowAdminLogin))
	bot.RegisterCommand("addpartner", handlers.NewAddPartnerHandler(svc, l))
	bot.RegisterCommand("partners", handlers.NewPartnersHandler(svc, l))
	bot.RegisterCommand("schedule", handlers.NewScheduleHandler(svc, l))
	bot.RegisterCommand("devices", handlers.NewDevicesHandler(svc, l))
	bot.RegisterCommand("audit", handlers.NewAuditHandler(svc, l))
	bot.RegisterCommand("tz", handlers.NewTimezoneHandler(svc, l))
}
