package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/platefeed/api/internal/handlers"
	"github.com/platefeed/api/internal/platform/auth"
	"github.com/platefeed/api/internal/platform/config"
	pfirestore "github.com/platefeed/api/internal/platform/firestore"
	"github.com/platefeed/api/internal/platform/jobs"
	"github.com/platefeed/api/internal/platform/observability"
	platformstorage "github.com/platefeed/api/internal/platform/storage"
	firestoreRepo "github.com/platefeed/api/internal/repositories/firestore"
	"github.com/platefeed/api/internal/services"
)

const shutdownGrace = 15 * time.Second

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("configuration is incomplete", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	sessions, err := auth.NewSessionVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("failed to initialise session verifier", zap.Error(err))
	}
	authOpts := []auth.AuthenticatorOption{
		auth.WithCookieNames(cfg.Auth.UserCookieName, cfg.Auth.PartnerCookieName),
	}
	if strings.TrimSpace(cfg.Auth.FirebaseProjectID) != "" {
		firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Auth)
		if err != nil {
			logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
		}
		authOpts = append(authOpts, auth.WithFirebaseFallback(firebaseVerifier))
	}
	authenticator := auth.NewAuthenticator(sessions, authOpts...)

	foodRepo, err := firestoreRepo.NewFoodRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise food repository", zap.Error(err))
	}
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	engagementRepo, err := firestoreRepo.NewEngagementRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise engagement repository", zap.Error(err))
	}

	var videoUploader services.VideoUploader
	if strings.TrimSpace(cfg.Storage.VideosBucket) != "" {
		storageClient, err := cloudstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("failed to initialise storage client", zap.Error(err))
		}
		defer func() {
			if err := storageClient.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()
		uploader, err := platformstorage.NewUploader(storageClient, cfg.Storage.VideosBucket,
			platformstorage.WithPublicBaseURL(cfg.Storage.PublicBaseURL))
		if err != nil {
			logger.Fatal("failed to initialise video uploader", zap.Error(err))
		}
		videoUploader = uploader
	}

	var orderEvents services.OrderEventPublisher
	if strings.TrimSpace(cfg.Events.OrderTopic) != "" {
		eventsProject := strings.TrimSpace(cfg.Events.ProjectID)
		if eventsProject == "" {
			eventsProject = cfg.Firestore.ProjectID
		}
		pubsubClient, err := pubsub.NewClient(ctx, eventsProject)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err := jobs.NewPubSubOrderPublisher(pubsubClient.Topic(cfg.Events.OrderTopic))
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
		orderEvents = publisher
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Foods:       foodRepo,
		Engagements: engagementRepo,
		Videos:      videoUploader,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}
	engagementService, err := services.NewEngagementService(services.EngagementServiceDeps{
		Engagements: engagementRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise engagement service", zap.Error(err))
	}
	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: orderRepo,
		Foods:  foodRepo,
		Events: orderEvents,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	foodHandlers := handlers.NewFoodHandlers(catalogService, engagementService, authenticator)
	orderHandlers := handlers.NewOrderHandlers(orderService, authenticator)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck(func(ctx context.Context) error {
			_, err := firestoreProvider.Client(ctx)
			return err
		}),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithFoodRoutes(foodHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("server error", zap.Error(err))
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
