package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidzea10/Rawbank/internal/auth"
	"github.com/davidzea10/Rawbank/internal/config"
	"github.com/davidzea10/Rawbank/internal/db"
	creditdomain "github.com/davidzea10/Rawbank/internal/domain/credit"
	operatordomain "github.com/davidzea10/Rawbank/internal/domain/operator"
	ratedomain "github.com/davidzea10/Rawbank/internal/domain/rate"
	"github.com/davidzea10/Rawbank/internal/domain/scoring"
	"github.com/davidzea10/Rawbank/internal/http/handlers"
	"github.com/davidzea10/Rawbank/internal/observability"
	postgresrepo "github.com/davidzea10/Rawbank/internal/repository/postgres"
	"github.com/davidzea10/Rawbank/internal/server"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	userRepo := postgresrepo.NewUserRepository(pool)
	operatorRepo := postgresrepo.NewOperatorRepository(pool)
	requestRepo := postgresrepo.NewCreditRequestRepository(pool)
	creditRepo := postgresrepo.NewCreditRepository(pool)
	repaymentRepo := postgresrepo.NewRepaymentRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)

	operatorService := operatordomain.NewService(userRepo, operatorRepo)
	predictor := scoring.NewProcessPredictor(cfg.PredictorCommand, cfg.PredictorScript, cfg.PredictorTimeout)
	scoreService := scoring.NewService(operatorService, predictor)
	rateService := ratedomain.NewService(creditRepo, repaymentRepo, scoreService)
	creditService := creditdomain.NewService(scoreService, rateService, requestRepo, creditRepo, repaymentRepo, outboxRepo, logger)

	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	authService := auth.NewService(userRepo, operatorService, jwtManager, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	cookieCfg := auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:          pool,
		AuthHandler:     handlers.NewAuthHandler(authService, cookieCfg, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
		OperatorHandler: handlers.NewOperatorHandler(operatorService),
		ScoreHandler:    handlers.NewScoreHandler(scoreService, userRepo, operatorService),
		CreditHandler:   handlers.NewCreditHandler(creditService, rateService),
		JWTManager:      jwtManager,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
