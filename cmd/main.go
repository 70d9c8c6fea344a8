package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"swiftfactureBack/internal/config"
	"swiftfactureBack/internal/repositories"
)

func main() {
	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	if err := godotenv.Load(); err != nil {
		logger.Infof("no .env file loaded: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	addr := flag.String("addr", cfg.Server.Address, "HTTP network address")
	flag.Parse()

	sqlDB, err := openDB(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Fatal(err)
	}
	defer sqlDB.Close()

	rdb, err := openRedis(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		logger.Infof("REDIS_ADDR not set: using the in-process change feed and no reminder run lock")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp(ctx, cfg, repositories.NewDB(sqlDB, cfg.Database.Driver), rdb, logger)
	if err != nil {
		logger.Fatal(err)
	}

	if cfg.Reminders.Enabled {
		startReminderScheduler(ctx, app.reminderService, cfg.Reminders.Interval, cfg.Reminders.Timeout, logger)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Refresh-Token"},
		ExposedHeaders:   []string{"Authorization"},
	})

	root := http.NewServeMux()
	root.Handle("/functions/", app.functionRoutes())
	root.Handle("/", c.Handler(app.routes()))

	errorLog, err := zap.NewStdLogAt(zl, zap.ErrorLevel)
	if err != nil {
		logger.Fatal(err)
	}
	srv := &http.Server{
		Addr:        *addr,
		ErrorLog:    errorLog,
		Handler:     addSecurityHeaders(root),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// reminder runs triggered over HTTP may take a while
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Starting server on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}
