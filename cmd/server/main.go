package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/adetunjii/esusu-engine/internal/config"
	"github.com/adetunjii/esusu-engine/internal/directory"
	"github.com/adetunjii/esusu-engine/internal/handler"
	"github.com/adetunjii/esusu-engine/internal/notify"
	"github.com/adetunjii/esusu-engine/internal/repository"
	"github.com/adetunjii/esusu-engine/internal/service"
	"github.com/adetunjii/esusu-engine/pkg/logging"
	"github.com/adetunjii/esusu-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level)

	db, err := initDB(cfg)
	if err != nil {
		slog.Error("initializing database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		slog.Error("applying schema", "error", err)
		os.Exit(1)
	}

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	groupRepo := repository.NewGroupRepository(db)
	membershipDir := directory.NewPostgresDirectory(db)
	dispatcher := notify.NewDispatcher(notify.LogNotifier{})
	viewCache := service.NewViewCache(redisClient)
	clock := service.NewRealClock()

	formationService := service.NewFormationService(groupRepo, membershipDir, dispatcher, viewCache, clock, cfg)
	invitationService := service.NewInvitationService(groupRepo, dispatcher, viewCache, clock, cfg)
	slotService := service.NewSlotService(groupRepo, dispatcher, viewCache, clock)

	esusuHandler := handler.NewEsusuHandler(formationService, invitationService, slotService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(esusuHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	dispatcher.Wait()
	slog.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(esusuHandler *handler.EsusuHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware, response.CORSMiddleware)

	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/communities/{communityId}/esusu/eligibility", esusuHandler.CheckEligibility).Methods("GET")
	api.HandleFunc("/communities/{communityId}/esusu/name-availability", esusuHandler.CheckNameAvailability).Methods("GET")
	api.HandleFunc("/esusu/groups", esusuHandler.CreateGroup).Methods("POST")
	api.HandleFunc("/esusu/groups/{groupId}/response", esusuHandler.Respond).Methods("POST")
	api.HandleFunc("/esusu/groups/{groupId}/slots", esusuHandler.AvailableSlots).Methods("GET")
	api.HandleFunc("/esusu/groups/{groupId}/slots", esusuHandler.SelectSlot).Methods("POST")
	api.HandleFunc("/esusu/groups/{groupId}/waiting-room", esusuHandler.WaitingRoom).Methods("GET")

	return router
}
