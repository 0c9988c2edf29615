// File: internal/infra/web/server.go
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/config"
	"iptv-subscription-platform/internal/domain/ports/repository"
	rds "iptv-subscription-platform/internal/infra/redis"
	"iptv-subscription-platform/internal/usecase"
)

// Server is the HTTP surface: public checkout and callback routes, gateway
// and storefront webhooks, and the JWT-gated admin API.
type Server struct {
	checkoutUC  usecase.CheckoutUseCase
	reconcileUC usecase.ReconcileUseCase
	subUC       usecase.SubscriptionUseCase
	statsUC     usecase.StatsUseCase
	ticketUC    usecase.TicketUseCase
	wooUC       usecase.WooSyncUseCase
	gateways    usecase.GatewayManager
	plans       repository.PlanRepository
	limiter     *rds.RateLimiter
	validate    *validator.Validate

	port        int
	jwtSecret   string
	adminEmails []string
	wooSecret   string
	dev         bool
	server      *http.Server
	log         *zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	checkoutUC usecase.CheckoutUseCase,
	reconcileUC usecase.ReconcileUseCase,
	subUC usecase.SubscriptionUseCase,
	statsUC usecase.StatsUseCase,
	ticketUC usecase.TicketUseCase,
	wooUC usecase.WooSyncUseCase,
	gateways usecase.GatewayManager,
	plans repository.PlanRepository,
	limiter *rds.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	slog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		checkoutUC:  checkoutUC,
		reconcileUC: reconcileUC,
		subUC:       subUC,
		statsUC:     statsUC,
		ticketUC:    ticketUC,
		wooUC:       wooUC,
		gateways:    gateways,
		plans:       plans,
		limiter:     limiter,
		validate:    validator.New(),
		port:        cfg.Server.Port,
		jwtSecret:   cfg.Server.JWTSecret,
		adminEmails: cfg.Server.AdminEmails,
		wooSecret:   cfg.WooCommerce.WebhookSecret,
		dev:         cfg.Runtime.Dev,
		log:         &slog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.handlePlansList)
		r.Get("/gateways", s.handleGatewaysList)

		r.With(RateLimit(s.limiter, 10, time.Minute, checkoutRateKey)).
			Post("/checkout", s.handleCheckout)
		r.Get("/payments/{reference}", s.handlePaymentStatus)

		r.Post("/auth/login", s.handleAdminLogin)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Get("/stats", s.handleStats)
			r.Get("/plans", s.handleAdminPlansList)
			r.Post("/plans", s.handlePlanCreate)
			r.Put("/plans/{id}", s.handlePlanUpdate)
			r.Delete("/plans/{id}", s.handlePlanDelete)
			r.Get("/tickets", s.handleTicketsList)
			r.Get("/tickets/{id}", s.handleTicketGet)
			r.Post("/tickets/{id}/reply", s.handleTicketReply)
			r.Post("/tickets/{id}/close", s.handleTicketClose)
			r.Get("/users/{id}/subscription", s.handleUserSubscription)
			r.Post("/sync/plans", s.handlePlanSync)
		})
	})

	r.Get("/checkout/callback/{gateway}", s.handleCallback)

	r.With(RateLimit(s.limiter, 120, time.Minute, webhookRateKey)).
		Post("/webhooks/{gateway}", s.handleGatewayWebhook)
	r.Post("/webhooks/woocommerce/orders", s.handleWooWebhook)

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func checkoutRateKey(r *http.Request) string {
	return rds.CheckoutKey(clientIP(r))
}

func webhookRateKey(r *http.Request) string {
	return rds.WebhookKey(chi.URLParam(r, "gateway"))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
