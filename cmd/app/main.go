// File: cmd/app/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iptv-subscription-platform/internal/config"
	pg "iptv-subscription-platform/internal/infra/db/postgres"
	"iptv-subscription-platform/internal/infra/logging"
	"iptv-subscription-platform/internal/infra/metrics"
	"iptv-subscription-platform/internal/infra/notify"
	"iptv-subscription-platform/internal/infra/payment"
	"iptv-subscription-platform/internal/infra/provision"
	red "iptv-subscription-platform/internal/infra/redis"
	"iptv-subscription-platform/internal/infra/sched"
	"iptv-subscription-platform/internal/infra/web"
	"iptv-subscription-platform/internal/infra/woocommerce"
	"iptv-subscription-platform/internal/infra/worker"
	"iptv-subscription-platform/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 30*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient)
	subRepo := pg.NewSubscriptionRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	txnRepo := pg.NewPaymentTransactionRepo(pool)
	changeRepo := pg.NewPlanChangeRepo(pool)
	accountRepo := pg.NewServiceAccountRepo(pool)
	provLogRepo := pg.NewProvisioningLogRepo(pool)
	ticketRepo := pg.NewTicketRepo(pool)
	notifLogRepo := pg.NewNotificationLogRepo(pool)

	// ---- Payment gateways ----
	gateways := payment.NewManager()
	gateways.Register(payment.NewPaystackGateway(cfg.Payment.Paystack, 30*time.Second))
	gateways.Register(payment.NewStripeGateway(cfg.Payment.Stripe))
	gateways.SetDefault(cfg.Payment.Default)

	// ---- Upstream panel and storefront ----
	provisioner := provision.NewMy8kClient(cfg.Provisioning, logger)
	wooClient := woocommerce.NewClient(cfg.WooCommerce)

	// ---- Worker pool ----
	workerPool := worker.NewPool(cfg.Worker.Count, cfg.Worker.QueueSize, cfg.Provisioning.MaxAttempts, cfg.Provisioning.RetryDelay, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	// ---- Use cases ----
	notifier := notify.NewEmailNotifier(cfg.Notify, logger)
	notifUC := usecase.NewNotificationUseCase(userRepo, subRepo, planRepo, notifLogRepo, notifier, logger)
	provUC := usecase.NewProvisioningUseCase(orderRepo, subRepo, planRepo, accountRepo, provLogRepo, provisioner, tm, locker, notifUC, logger)

	callbackURL := func(gatewayID string) string {
		return cfg.Server.BaseURL + "/checkout/callback/" + gatewayID
	}
	planChgUC := usecase.NewPlanChangeUseCase(changeRepo, subRepo, planRepo, userRepo, txnRepo, gateways, tm, notifUC, callbackURL, logger)
	reconcileUC := usecase.NewReconcileUseCase(txnRepo, changeRepo, orderRepo, gateways, tm, workerPool, provUC, planChgUC, notifUC, logger)
	checkoutUC := usecase.NewCheckoutUseCase(userRepo, planRepo, subRepo, orderRepo, txnRepo, gateways, callbackURL, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, accountRepo, planRepo, userRepo, txnRepo, gateways, provUC, notifUC, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, subRepo, txnRepo, logger)
	ticketUC := usecase.NewTicketUseCase(ticketRepo, notifUC, logger)
	wooUC := usecase.NewWooSyncUseCase(wooClient, planRepo, userRepo, subRepo, orderRepo, workerPool, provUC, logger)

	// ---- Background workers ----
	reconciler := sched.NewPaymentReconciler(reconcileUC, txnRepo, cfg.Scheduler.ReconcileInterval, 15*time.Minute, logger)
	go func() { _ = reconciler.Run(ctx) }()

	expiryWorker := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, cfg.Scheduler.ReminderDays, subUC, notifUC, logger)
	go func() { _ = expiryWorker.Run(ctx) }()

	renewalWorker := sched.NewRenewalWorker(cfg.Scheduler.RenewalInterval, 24*time.Hour, subUC, logger)
	go func() { _ = renewalWorker.Run(ctx) }()

	planChangeWorker := sched.NewPlanChangeWorker(cfg.Scheduler.PlanChangeInterval, planChgUC, logger)
	go func() { _ = planChangeWorker.Run(ctx) }()

	planSyncWorker := sched.NewPlanSyncWorker(cfg.Scheduler.PlanSyncInterval, wooUC, statsUC, logger)
	go func() { _ = planSyncWorker.Run(ctx) }()

	// ---- HTTP server ----
	srv := web.NewServer(cfg, checkoutUC, reconcileUC, subUC, statsUC, ticketUC, wooUC, gateways, planRepo, rateLimiter, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}
