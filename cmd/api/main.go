package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zapagent/zapagent/internal/api/handlers"
	"github.com/zapagent/zapagent/internal/api/router"
	"github.com/zapagent/zapagent/internal/config"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/messaging"
	"github.com/zapagent/zapagent/internal/openai"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/validator"
	"github.com/zapagent/zapagent/internal/repository/postgres"
	"github.com/zapagent/zapagent/internal/services"
	"github.com/zapagent/zapagent/internal/worker"
	"github.com/zapagent/zapagent/migrations"
)

// @title ZapAgent API
// @version 1.0
// @description WhatsApp AI agent platform API
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.GetFS()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	catalog, err := plan.LoadCatalog(cfg.Plans.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load plan catalog: %v", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	agentRepo := postgres.NewAgentRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	adminRepo := postgres.NewAdminRepository(db)

	// Messaging provider and services
	provider := messaging.NewClient(cfg.Messaging, log)

	planSvc := services.NewPlanService(planRepo, agentRepo, catalog, plan.DefaultTrialDays, log)
	userSvc := services.NewUserService(userRepo, planSvc, log)
	agentSvc := services.NewAgentService(agentRepo, planSvc, provider, log)
	paymentSvc := services.NewPaymentService(paymentRepo, userRepo, planSvc, log)
	adminSvc := services.NewAdminService(adminRepo, log)

	// Pairing sessions flip the agent's connected flag when the provider
	// reports the instance open
	sessions := messaging.NewManager(provider, cfg.Messaging, log, func(ctx context.Context, agentID int64) {
		if err := agentSvc.MarkConnected(ctx, agentID); err != nil {
			log.WithFields(map[string]interface{}{
				"agent_id": agentID,
			}).WithError(err).Error("Failed to mark agent connected")
		}
	})

	var previewer openai.Previewer
	if c := openai.New(cfg.OpenAI.APIKey); c != nil {
		previewer = c
	}

	val := validator.New()

	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(db, log),
		Auth:    handlers.NewAuthHandler(userSvc, cfg, log, val),
		User:    handlers.NewUserHandler(userSvc, log, val),
		Plan:    handlers.NewPlanHandler(planSvc, log, val),
		Agent:   handlers.NewAgentHandler(agentSvc, sessions, previewer, log, val),
		Payment: handlers.NewPaymentHandler(paymentSvc, log, val),
		Admin:   handlers.NewAdminHandler(adminSvc, provider, log, val),
	}

	sweeper := worker.NewSweeper(planRepo, paymentSvc, log)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start plan sweeper: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, adminSvc, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.ErrorWithErr(err, "Server shutdown failed")
	}

	sweeper.Stop()
	sessions.Shutdown()

	log.Info("Server stopped")
}
