// main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"go-phonestore/config"
	"go-phonestore/controllers"
	"go-phonestore/events"
	"go-phonestore/filters"
	"go-phonestore/identity"
	"go-phonestore/middleware"
	"go-phonestore/routes"
	"go-phonestore/services"
	"go-phonestore/store"
	"go-phonestore/uploads"
	"go-phonestore/utils"
)

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemory(), nil
	case "mongo", "mongodb":
		return store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return store.NewFirestore(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
	}
}

func openIdentity(ctx context.Context, cfg *config.Config, users *services.UserService) (identity.Provider, error) {
	if cfg.AuthMode == "local" {
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required when AUTH_MODE=local")
		}
		return identity.NewLocal(users, cfg.TokenTTL, cfg.BcryptCost, cfg.PublicBaseURL, cfg.AdminEmails), nil
	}
	return identity.NewFirebase(ctx, cfg.FirebaseProjectID, cfg.FirestoreCredentialsFile, users, cfg.AdminEmails)
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}
	cfg := config.Load()
	setupLogger(cfg)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			AttachStacktrace: true,
		}); err != nil {
			slog.Warn("sentry init failed", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)

	db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store %s: %v", cfg.StoreDriver, err)
	}
	defer db.Close()

	settings := services.NewSettingsProvider(db)
	if _, err := settings.Refresh(ctx); err != nil {
		slog.Warn("settings not loaded, using defaults", "error", err)
	}

	users := services.NewUserService(db)
	ident, err := openIdentity(ctx, cfg, users)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}

	// Initialize EmailService and the order notifications
	emailService := utils.NewEmailService(cfg.EmailProvider, cfg.SendGridAPIKey, cfg.PostmarkToken, cfg.EmailSender)
	notifier := services.NewNotifier(settings, emailService)

	var publisher events.Publisher = &events.Direct{Handler: notifier.Handle, Timeout: 30 * time.Second}
	if cfg.RabbitMQURL != "" {
		publisher = events.NewAMQPPublisher(cfg.RabbitMQURL)
		consumer := events.NewConsumer(cfg.RabbitMQURL, notifier.Handle)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("order consumer stopped", "error", err)
			}
		}()
	}

	var uploader uploads.Uploader
	if cfg.UploadBucket != "" {
		gcs, err := uploads.NewGCS(ctx, cfg.UploadBucket)
		if err != nil {
			log.Fatalf("uploads: %v", err)
		}
		defer gcs.Close()
		uploader = gcs
	} else {
		uploader = uploads.NewDisk(cfg.UploadDir, "/uploads")
	}

	// Services
	products := services.NewProductService(db)
	products.DefaultLimit = cfg.ProductDefaultLimit
	products.MaxLimit = cfg.ProductMaxLimit
	catalogs := services.NewCatalogServices(db)
	addresses := services.NewAddressService(db)
	payments := services.NewPaymentMethodService(db)
	orders := services.NewOrderService(db, settings, addresses, payments, publisher)

	// Initialize controllers
	ctrls := routes.Controllers{
		User:      controllers.NewUserController(ident, users, emailService, settings),
		Product:   controllers.NewProductController(products, uploader),
		Catalog:   controllers.NewCatalogController(catalogs),
		Filters:   controllers.NewFiltersController(catalogs, filters.Bounds{Min: cfg.PriceFloor, Max: cfg.PriceCeiling}),
		Cart:      controllers.NewCartController(services.NewCartService(db, products)),
		Order:     controllers.NewOrderController(orders),
		Address:   controllers.NewAddressController(addresses),
		Payment:   controllers.NewPaymentController(payments),
		Settings:  controllers.NewSettingsController(settings),
		Backup:    controllers.NewBackupController(services.NewBackupService(db)),
		Analytics: controllers.NewAnalyticsController(services.NewAnalyticsService(db, settings)),
		Health:    controllers.NewHealthController(db),
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	mw := routes.Middleware{
		Verifier:  ident,
		Settings:  settings,
		Cache:     middleware.NewCache(cfg.Cache, rdb),
		RateLimit: middleware.RateLimit(cfg.RateLimit, rdb),
	}

	// Set up the router
	router := mux.NewRouter()
	if cfg.UploadBucket == "" {
		router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}
	routes.RegisterRoutes(router, ctrls, mw)

	var handler http.Handler = router
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	handler = middleware.Recover(handler)
	handler = sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(handler)
	handler = middleware.RequestLogger(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server is running", "port", cfg.Port, "store", cfg.StoreDriver, "auth", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
