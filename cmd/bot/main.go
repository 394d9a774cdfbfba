package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"anonchat-bot/internal/archive"
	"anonchat-bot/internal/bot"
	"anonchat-bot/internal/chat"
	"anonchat-bot/internal/database"
	"anonchat-bot/internal/handlers"
	"anonchat-bot/internal/presence"
	"anonchat-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	// Logger config from env (LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT)
	loggerConfig := &logger.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
		Output: getEnv("LOG_OUTPUT", "stdout"),
	}
	zapLogger, err := logger.New(loggerConfig, logger.DefaultServiceName)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		zap.L().Fatal("BOT_TOKEN is required")
	}

	defaultAdminIDStr := os.Getenv("DEFAULT_ADMIN_ID")
	if defaultAdminIDStr == "" {
		zap.L().Fatal("DEFAULT_ADMIN_ID is required")
	}

	defaultAdminID, err := strconv.ParseInt(defaultAdminIDStr, 10, 64)
	if err != nil {
		zap.L().Fatal("Invalid DEFAULT_ADMIN_ID", zap.Error(err))
	}

	dbConfig := database.Config{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}

	db, err := database.New(dbConfig)
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	zap.L().Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		zap.L().Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zap.L().Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	b, err := bot.New(botToken, db, defaultAdminID)
	if err != nil {
		zap.L().Fatal("Failed to create bot", zap.Error(err))
	}

	if channels := os.Getenv("REQUIRED_CHANNELS"); channels != "" {
		b.RequiredChannels = strings.Split(channels, ",")
	}
	if raw := os.Getenv("ARCHIVE_CHANNEL_ID"); raw != "" {
		channelID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			zap.L().Fatal("Invalid ARCHIVE_CHANNEL_ID", zap.Error(err))
		}
		b.ArchiveChannelID = channelID
	}

	tracker := presence.NewTracker(rdb)
	mediaArchive := archive.New(b, b.ArchiveChannelID)
	follows := chat.NewFollowRegistry()
	convlog := chat.NewConversationLog()
	matchmaker := chat.NewMatchmaker(db, tracker)
	ctrl := chat.NewController(db, tracker, b, matchmaker, convlog, mediaArchive, b, follows)

	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "1h"))
	if err != nil {
		zap.L().Fatal("Invalid SWEEP_INTERVAL", zap.Error(err))
	}
	sweeper := presence.NewSweeper(tracker, db, b, sweepInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zap.L().Info("Bot started successfully")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := b.API.GetUpdatesChan(u)

		for {
			select {
			case <-ctx.Done():
				b.API.StopReceivingUpdates()
				return nil
			case update, ok := <-updates:
				if !ok {
					return nil
				}
				dispatch(ctx, b, ctrl, tracker, follows, update)
			}
		}
	})

	if err := g.Wait(); err != nil {
		zap.L().Fatal("Bot stopped with error", zap.Error(err))
	}
	zap.L().Info("Bot stopped")
}

func dispatch(ctx context.Context, b *bot.Bot, ctrl *chat.Controller, tracker *presence.Tracker, follows *chat.FollowRegistry, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if !update.Message.Chat.IsPrivate() {
			return
		}
		if update.Message.IsCommand() {
			if handlers.HandleAdminCommand(b, follows, update.Message) {
				return
			}
			handlers.HandleCommand(ctx, b, ctrl, tracker, update.Message)
			return
		}
		handlers.HandleMessage(ctx, b, ctrl, update.Message)
	case update.CallbackQuery != nil:
		handlers.HandleCallbackQuery(ctx, b, ctrl, tracker, update.CallbackQuery)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
