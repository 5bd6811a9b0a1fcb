package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/aniladanir/lr-gateway/internal/auth"
	"github.com/aniladanir/lr-gateway/internal/cache"
	"github.com/aniladanir/lr-gateway/internal/cache/memory"
	redisCache "github.com/aniladanir/lr-gateway/internal/cache/redis"
	"github.com/aniladanir/lr-gateway/internal/conversation"
	"github.com/aniladanir/lr-gateway/internal/extract"
	httpHandler "github.com/aniladanir/lr-gateway/internal/handler/http"
	"github.com/aniladanir/lr-gateway/internal/pdf"
	"github.com/aniladanir/lr-gateway/internal/phone"
	repository "github.com/aniladanir/lr-gateway/internal/repository/lr"
	"github.com/aniladanir/lr-gateway/internal/service"
	"github.com/aniladanir/lr-gateway/internal/whatsapp"
)

var (
	configFile = flag.String("config", "config.toml", "config file path")
)

func main() {
	// create root context
	appCtx, appCtxCancel := context.WithCancel(context.Background())
	defer appCtxCancel()

	// listen for terminate signal
	notifyCtx, stop := signal.NotifyContext(appCtx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// parse flags
	flag.Parse()

	// parse config
	config, err := ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	// setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// initialize external dependencies
	repo, seen, err := initExternalDependencies(notifyCtx, config)
	if err != nil {
		log.Fatalf("failed to initialize external dependencies: %v", err)
	}

	normalizer := phone.NewNormalizer(config.DefaultCountryCode)
	registry, err := auth.NewRegistry(normalizer, config.AdminNumbers,
		filepath.Join(config.DataDir, "allowedNumbers.json"),
		filepath.Join(config.DataDir, "subadmin.json"))
	if err != nil {
		log.Fatalf("failed to load authorization registry: %v", err)
	}
	if len(registry.Admins()) == 0 {
		log.Fatalf("no valid admin number in %v", config.AdminNumbers)
	}

	store := conversation.NewStore(logger.With(slog.String("component", "conversation")))

	var model extract.Completer
	if config.LLMAPIKey != "" {
		model = extract.NewChatClient(config.LLMBaseURL, config.LLMAPIKey, config.LLMModel, config.LLMTimeout)
	} else {
		logger.Warn("no llm api key configured, extraction uses rules only")
	}
	extractor := extract.NewExtractor(model, config.LLMTimeout, logger.With(slog.String("component", "extractor")))

	renderer, err := pdf.NewRenderer(
		filepath.Join(config.DataDir, "generated"),
		config.ChromePath,
		config.CompanyName,
		config.RenderTimeout,
		logger.With(slog.String("component", "renderer")),
	)
	if err != nil {
		log.Fatalf("failed to initiate pdf renderer: %v", err)
	}

	messenger, err := whatsapp.NewClient(
		config.GraphBaseURL,
		config.WhatsAppToken,
		config.PhoneNumberID,
		30*time.Second,
		config.UploadMaxRetry,
		logger.With(slog.String("component", "whatsapp")),
	)
	if err != nil {
		log.Fatalf("failed to initiate whatsapp client: %v", err)
	}

	app, err := service.NewAppContext(pdf.MinTemplate)
	if err != nil {
		log.Fatalf("failed to initiate app context: %v", err)
	}

	dispatcher := service.NewService(
		app,
		registry,
		store,
		normalizer,
		extractor,
		renderer,
		messenger,
		repo,
		service.Options{
			CancelTTL: config.CancelTTL,
			ExportDir: filepath.Join(config.DataDir, "exports"),
		},
		logger.With(slog.String("component", "dispatcher")),
	)

	// init http handler
	httpHandler := httpHandler.NewHttpHandler(
		fmt.Sprintf(":%d", config.HttpPort),
		config.VerifyToken,
		config.AppSecret,
		dispatcher,
		seen,
		logger.With(slog.String("component", "http")),
	)

	wg := sync.WaitGroup{}
	// sweep expired conversation state
	wg.Go(func() {
		store.Run(notifyCtx, config.SweepInterval)
	})

	// run http handler
	wg.Go(func() {
		logger.Info("http server listening", "port", config.HttpPort, "logStore", config.LogStore)
		if err := httpHandler.Run(); err != nil {
			logger.Error("http server encountered with an error and closed", "error", err.Error())
		}
		// cancel app context if http handler fails
		appCtxCancel()
	})

	// graceful shutdown
	wg.Go(func() {
		<-notifyCtx.Done()
		logger.Info("application shutting down...")

		shutDownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		httpHandler.Shutdown(shutDownCtx)
		if err := repo.Close(); err != nil {
			logger.Error("failed to close log store", "error", err.Error())
		}
		if closer, ok := seen.(interface{ Close() error }); ok {
			closer.Close()
		}
	})

	wg.Wait()
	os.Exit(0)
}

func initExternalDependencies(ctx context.Context, config *Config) (repo repository.Repository, seen cache.Cache, err error) {
	// initialize log store
	repo, err = repository.Open(config.LogStore, config.DataDir, config.DbConnString)
	if err != nil {
		return
	}

	// initialize cache
	if config.RedisAddr == "" {
		seen = memory.NewMemoryCache()
		return
	}
	seen, err = redisCache.NewRedisCache(ctx, config.RedisAddr)
	return
}
