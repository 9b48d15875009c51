package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/catalog"
	"ms-ordering/internal/config"
	"ms-ordering/internal/database/migrations"
	"ms-ordering/internal/kafka"
	"ms-ordering/internal/ledger"
	ledgerapi "ms-ordering/internal/ledger/api"
	ledgerdb "ms-ordering/internal/ledger/db"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/session"
	sessionapi "ms-ordering/internal/session/api"
	sessiondb "ms-ordering/internal/session/db"
	sessionredis "ms-ordering/internal/session/redis"
	"ms-ordering/internal/sse"
	"ms-ordering/internal/tables"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	log := logger.NewLogger()

	// --- PostgreSQL ---
	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DB", fmt.Sprintf("Failed to open Postgres connection: %v", err))
	}
	defer sqldb.Close()
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DB", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	migrateOpts := migrations.DefaultOptions()
	if _, err := os.Stat(migrateOpts.MigrationsDir); err == nil {
		runner := migrations.NewRunner(bunDB, migrateOpts)
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DB", fmt.Sprintf("Migrations failed: %v", err))
		}
	} else {
		// Dev setups without the migrations directory get the schema
		// created straight from the models.
		log.Warn("DB", "Migrations directory not found, creating schema from models")
		if err := sessiondb.Bootstrap(ctx, bunDB); err != nil {
			log.Fatal("DB", fmt.Sprintf("Failed to create session tables: %v", err))
		}
		if err := ledgerdb.Bootstrap(ctx, bunDB); err != nil {
			log.Fatal("DB", fmt.Sprintf("Failed to create ledger tables: %v", err))
		}
		if err := catalog.Bootstrap(ctx, bunDB); err != nil {
			log.Fatal("DB", fmt.Sprintf("Failed to create catalog tables: %v", err))
		}
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	log.Info("REDIS", "Connecting to Redis...")
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	// --- Kafka ---
	mockKafka := cfg.Kafka.MockMode || !cfg.Kafka.Enabled
	if !mockKafka {
		topics := []string{cfg.Kafka.Topics.OrderEvents, cfg.Kafka.Topics.LineEvents}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Could not ensure topics: %v", err))
		}
	}
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderEvents, cfg.Kafka.Topics.LineEvents, log, mockKafka)
	defer producer.Close()

	// --- Auth ---
	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Failed to initialize auth: %v", err))
	}

	// --- Core wiring ---
	emitter := sse.NewOrderFeedEmitter()
	tableLock := sessionredis.NewTableLock(redisClient, log)

	sessionManager := session.NewManager(&sessiondb.DB{Bun: bunDB}, tableLock, producer, emitter, log)
	lineLedger := ledger.NewLedger(&ledgerdb.DB{Bun: bunDB}, producer, emitter, log)

	sessionHandler := &sessionapi.Handler{Sessions: sessionManager}
	ledgerHandler := &ledgerapi.Handler{Ledger: lineLedger}
	sseHandler := ledgerapi.NewSSEHandler(log, emitter, lineLedger)
	tableHandler := &tables.Handler{
		DB: &tables.DB{Bun: bunDB},
		QR: tables.NewQRGenerator(cfg.App.ClientBaseURL),
	}
	catalogHandler := &catalog.Handler{DB: &catalog.DB{Bun: bunDB}}

	log.Info("SERVER", "Initializing order service...")

	// --- Router ---
	r := chi.NewRouter()
	r.Use(verifier.Middleware())

	staffOnly := auth.RequireRoles(models.RoleAdmin, models.RoleServer)
	kitchenStaff := auth.RequireRoles(models.RoleAdmin, models.RoleServer, models.RoleKitchen)
	adminOnly := auth.RequireRoles(models.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		// Session protocol: anonymous QR scans open a session too
		r.Post("/tables/{tableID}/session", sessionHandler.OpenSession)
		r.With(staffOnly).Delete("/tables/{tableID}/session/{orderID}", sessionHandler.CloseSession)

		// Ledger
		r.Post("/orders/{orderID}/lines", ledgerHandler.AppendLines)
		r.With(kitchenStaff).Patch("/orders/{orderID}/lines/{lineID}", ledgerHandler.SetLineStatus)
		r.Get("/orders/{orderID}", ledgerHandler.GetOrder)

		// Kitchen live feeds
		r.With(kitchenStaff).Get("/kitchen/orders/stream", sseHandler.StreamOpenOrders)
		r.With(kitchenStaff).Get("/kitchen/orders/{orderID}/lines/stream", sseHandler.StreamOrderLines)

		// Tables (floor view is staff, mutation is admin)
		r.With(staffOnly).Get("/tables", tableHandler.ListTables)
		r.With(staffOnly).Get("/tables/{tableID}", tableHandler.GetTable)
		r.With(adminOnly).Post("/tables", tableHandler.CreateTable)
		r.With(adminOnly).Put("/tables/{tableID}", tableHandler.UpdateTable)
		r.With(adminOnly).Delete("/tables/{tableID}", tableHandler.DeleteTable)
		r.With(adminOnly).Get("/tables/{tableID}/qr", tableHandler.GetTableQR)

		// Catalog: public reads for the client menu, admin writes
		r.Get("/categories", catalogHandler.ListCategories)
		r.With(adminOnly).Post("/categories", catalogHandler.CreateCategory)
		r.With(adminOnly).Put("/categories/{categoryID}", catalogHandler.UpdateCategory)
		r.With(adminOnly).Delete("/categories/{categoryID}", catalogHandler.DeleteCategory)
		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/products/{productID}", catalogHandler.GetProduct)
		r.With(adminOnly).Post("/products", catalogHandler.CreateProduct)
		r.With(adminOnly).Put("/products/{productID}", catalogHandler.UpdateProduct)
		r.With(adminOnly).Delete("/products/{productID}", catalogHandler.DeleteProduct)
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// No WriteTimeout: the SSE feeds are long-lived responses
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Order service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("SERVER", "Server exited gracefully")
}
