// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-number-market/internal/application"
	"telegram-number-market/internal/config"
	"telegram-number-market/internal/domain/ports/repository"
	tele "telegram-number-market/internal/infra/adapters/telegram"
	pg "telegram-number-market/internal/infra/db/postgres"
	"telegram-number-market/internal/infra/i18n"
	"telegram-number-market/internal/infra/logging"
	"telegram-number-market/internal/infra/memory"
	"telegram-number-market/internal/infra/metrics"
	red "telegram-number-market/internal/infra/redis"
	"telegram-number-market/internal/infra/web"
	"telegram-number-market/internal/infra/worker"
	"telegram-number-market/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Sessions (redis when configured, in-memory otherwise) ----
	var sessions repository.SessionRepository
	var rateLimiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		sessions = red.NewSessionRepo(redisClient, cfg.Redis.TTL)
		rateLimiter = red.NewRateLimiter(redisClient)
		logger.Info().Msg("using redis session store")
	} else {
		sessions = memory.NewSessionRepo()
		logger.Info().Msg("using in-memory session store, dialogs do not survive a restart")
	}

	// ---- Listing archive (optional) ----
	var archive repository.ListingArchiveRepository
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		repo := pg.NewListingRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("postgres schema: %v", err)
		}
		archive = repo
		logger.Info().Msg("listing archive enabled")
	}

	// ---- Telegram API client ----
	botAPI, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	gw := tele.NewGateway(botAPI, logger)

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Market.Language)
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}

	// ---- Broadcast worker pool ----
	pool := worker.NewPool(cfg.Bot.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Use cases ----
	requiredChannels, err := cfg.RequiredChannelRefs()
	if err != nil {
		log.Fatalf("required channels: %v", err)
	}
	targets, err := cfg.TargetRefs()
	if err != nil {
		log.Fatalf("targets: %v", err)
	}
	gateUC := usecase.NewGateUseCase(gw, requiredChannels, logger)
	broadcastUC := usecase.NewBroadcastUseCase(gw, targets, cfg.Market.PrecheckTargets, pool, logger)
	dialogUC := usecase.NewDialogUseCase(sessions, gateUC, broadcastUC, archive, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(dialogUC, broadcastUC)

	// ---- Telegram bot ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(botAPI, gw, &cfg.Bot, facade, translator, rateLimiter, logger)
	if err != nil {
		log.Fatalf("telegram adapter: %v", err)
	}
	if strings.ToLower(cfg.Bot.Mode) != "" && strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented, falling back to polling")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin / ops HTTP server ----
	var server *http.Server
	if cfg.Admin.Port > 0 {
		auth := web.NewAuthManager(cfg.Admin.JWTSecret, 30*time.Minute)
		srv := web.NewServer(facade, archive, auth, cfg.Admin.APIKey, logger)
		server = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: srv.Router()}
		go func() {
			logger.Info().Str("addr", server.Addr).Msg("admin http server listening")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("http server error")
			}
		}()
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	botAdapter.StopPolling()
	if server != nil {
		shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shCancel()
		_ = server.Shutdown(shCtx)
	}
	cancel()
}
