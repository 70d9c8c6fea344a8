package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"swiftfactureBack/internal/config"
	"swiftfactureBack/internal/handlers"
	"swiftfactureBack/internal/notify"
	"swiftfactureBack/internal/realtime"
	"swiftfactureBack/internal/repositories"
	"swiftfactureBack/internal/services"
	"swiftfactureBack/utils"
)

type roleReader interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

type application struct {
	cfg    config.Config
	logger *zap.SugaredLogger
	db     *repositories.DB
	feed   realtime.Feed

	userService     *services.UserService
	messageService  *services.MessageService
	reminderService *services.ReminderService
	roles           roleReader

	userHandler         *handlers.UserHandler
	oauthHandler        *handlers.OAuthHandler
	dashboardHandler    *handlers.DashboardHandler
	messageHandler      *handlers.MessageHandler
	storageHandler      *handlers.StorageHandler
	notificationHandler *handlers.NotificationHandler
	functionsHandler    *handlers.FunctionsHandler
}

func initializeApp(ctx context.Context, cfg config.Config, db *repositories.DB, rdb *redis.Client, logger *zap.SugaredLogger) (*application, error) {
	// Repositories
	userRepo := &repositories.UserRepository{DB: db}
	profileRepo := &repositories.ProfileRepository{DB: db}
	invoiceRepo := &repositories.InvoiceRepository{DB: db}
	estimateRepo := &repositories.EstimateRepository{DB: db}
	receiptRepo := &repositories.ReceiptRepository{DB: db}
	customerRepo := &repositories.CustomerRepository{DB: db}
	billingRepo := &repositories.BillingRepository{DB: db}
	messageRepo := &repositories.MessageRepository{DB: db}
	notificationRepo := &repositories.NotificationRepository{DB: db}

	var feed realtime.Feed
	if rdb != nil {
		feed = realtime.NewRedisFeed(rdb, realtime.MessagesChannel, logger)
	} else {
		feed = realtime.NewMemoryFeed()
	}

	tokens, err := utils.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	// Services
	userService := &services.UserService{
		Users:        userRepo,
		Profiles:     profileRepo,
		TokenManager: tokens,
		SigningKey:   cfg.Auth.JWTSecret,
		AccessTTL:    cfg.Auth.AccessTTL,
		RefreshTTL:   cfg.Auth.RefreshTTL,
	}
	oauthService := &services.OAuthService{
		Providers:  map[string]services.OAuthProvider{},
		States:     tokens,
		Users:      userService,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.Auth.OAuthClientID != "" {
		oauthService.Providers["google"] = services.NewGoogleProvider(cfg.Auth.OAuthClientID, cfg.Auth.OAuthClientSecret, cfg.Auth.OAuthRedirectURL)
	}
	dashboardService := &services.DashboardService{
		Invoices:  invoiceRepo,
		Estimates: estimateRepo,
		Receipts:  receiptRepo,
		Customers: customerRepo,
		Logger:    logger,
	}
	messageService := &services.MessageService{
		Repo:     messageRepo,
		Profiles: profileRepo,
		Users:    userRepo,
		Feed:     feed,
		Logger:   logger,
	}
	notificationService := &services.NotificationService{Repo: notificationRepo, Logger: logger}
	if cfg.Notify.FirebaseCreds != "" {
		pusher, err := notify.NewFCMPusher(ctx, cfg.Notify.FirebaseCreds)
		if err != nil {
			return nil, fmt.Errorf("firebase: %w", err)
		}
		notificationService.Pusher = pusher
	}

	smtpSender := notify.NewSMTPSender(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort, cfg.Notify.SMTPUser, cfg.Notify.SMTPPassword, cfg.Notify.SMTPFrom)
	var dispatcher services.EmailDispatcher = smtpSender
	if cfg.Notify.EmailFunctionURL != "" {
		dispatcher = notify.NewEmailFunctionClient(cfg.Notify.EmailFunctionURL, cfg.Notify.EmailFunctionKey)
	}
	reminderService := &services.ReminderService{
		Billing:    billingRepo,
		Identity:   userService,
		Email:      dispatcher,
		Notifier:   notificationService,
		Logger:     logger,
		Thresholds: cfg.Reminders.Thresholds,
		LockTTL:    cfg.Reminders.LockTTL,
	}
	if rdb != nil {
		reminderService.Locker = &services.RedisLocker{Client: rdb}
	}

	storageHandler := &handlers.StorageHandler{
		Profiles:        profileRepo,
		AvatarsBucket:   cfg.Storage.AvatarsBucket,
		ChatFilesBucket: cfg.Storage.ChatFilesBucket,
	}
	if cfg.Storage.AccessKey != "" {
		storage, err := utils.NewStorage(utils.StorageOptions{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		storageHandler.Storage = storage
	}

	return &application{
		cfg:    cfg,
		logger: logger,
		db:     db,
		feed:   feed,

		userService:     userService,
		messageService:  messageService,
		reminderService: reminderService,
		roles:           profileRepo,

		userHandler:         &handlers.UserHandler{Service: userService},
		oauthHandler:        &handlers.OAuthHandler{Service: oauthService, SuccessURL: cfg.Auth.OAuthSuccessURL},
		dashboardHandler:    &handlers.DashboardHandler{Service: dashboardService},
		messageHandler:      &handlers.MessageHandler{Service: messageService},
		storageHandler:      storageHandler,
		notificationHandler: &handlers.NotificationHandler{Service: notificationService},
		functionsHandler: &handlers.FunctionsHandler{
			Reminders: reminderService,
			Mailer:    smtpSender,
			Secret:    cfg.Functions.Secret,
			Timeout:   cfg.Reminders.Timeout,
			Logger:    logger,
		},
	}, nil
}

func openDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	db.SetMaxIdleConns(35)
	return db, nil
}

func openRedis(cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
