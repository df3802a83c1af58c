package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rturovtsev/vehicle-reminder/internal/config"
	"github.com/rturovtsev/vehicle-reminder/internal/handler"
	"github.com/rturovtsev/vehicle-reminder/internal/notifier"
	"github.com/rturovtsev/vehicle-reminder/internal/service"
	"github.com/rturovtsev/vehicle-reminder/internal/status"
	"github.com/rturovtsev/vehicle-reminder/internal/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("VTRACK_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatalf("connect to telegram: %v", err)
	}
	bot.Debug = cfg.Telegram.Debug
	logger.Info("authorized", "account", bot.Self.UserName, "env", cfg.Env)

	db, err := storage.InitDB(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}
	defer db.Close()

	engine := status.Engine{}
	svc := service.NewReminderService(storage.NewVehicleStore(db), storage.NewReminderStore(db), engine, logger)
	h := handler.New(bot, svc, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Notifier.Enabled {
		n := notifier.New(svc, bot, cfg.Notifier.Every(), logger)
		go func() {
			if err := n.Run(ctx); err != nil {
				logger.Error("notifier stopped", "error", err)
			}
		}()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.Timeout

	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			handleUpdate(ctx, h, update, logger)
		}
	}
}

// handleUpdate не даёт панике в обработчике остановить приём обновлений.
func handleUpdate(ctx context.Context, h *handler.Handler, update tgbotapi.Update, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update handler panicked", "update_id", update.UpdateID, "panic", r)
		}
	}()

	// Обрабатываем callback от inline-кнопок
	if update.CallbackQuery != nil {
		h.HandleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	h.HandleMessage(ctx, update)
}
