// File: internal/infra/web/webhooks.go
package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/infra/logging"
	"iptv-subscription-platform/internal/infra/metrics"
	"iptv-subscription-platform/internal/infra/woocommerce"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// handleGatewayWebhook receives provider events. The signature is checked over
// the raw body before parsing; an unverifiable event changes nothing.
func (s *Server) handleGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	gatewayID := chi.URLParam(r, "gateway")
	gw, err := s.gateways.Gateway(gatewayID)
	if err != nil {
		metrics.IncWebhook(gatewayID, "unknown_gateway")
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get(signatureHeaderFor(gatewayID))
	if err := gw.VerifyWebhookSignature(body, sigHeader); err != nil {
		switch {
		case errors.Is(err, domain.ErrWebhookAuthNotConfigured):
			if s.dev {
				// Development convenience only; production without a webhook
				// secret is a deployment error.
				s.log.Warn().Str("gateway", gatewayID).Msg("webhook secret not configured, accepting unverified event")
				break
			}
			metrics.IncWebhook(gatewayID, "misconfigured")
			s.log.Error().Str("gateway", gatewayID).Msg("webhook received but no secret configured")
			http.Error(w, "Webhook verification not configured", http.StatusInternalServerError)
			return
		default:
			metrics.IncWebhook(gatewayID, "bad_signature")
			s.log.Warn().Str("gateway", gatewayID).Msg("webhook signature rejected")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	event, err := gw.ParseWebhook(body)
	if err != nil {
		metrics.IncWebhook(gatewayID, "unparseable")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	metrics.IncWebhook(gatewayID, "accepted")

	if event.Reference == "" {
		// Events the platform does not act on (disputes, transfers) are
		// acknowledged so the provider stops retrying.
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := logging.WithGateway(logging.WithReference(r.Context(), event.Reference), gatewayID)
	if _, err := s.reconcileUC.ByReference(ctx, "webhook", event.Reference); err != nil {
		if errors.Is(err, domain.ErrReferenceNotFound) {
			// Not ours (e.g. another system on the same provider account).
			s.log.Warn().Str("reference", event.Reference).Msg("webhook for unknown reference")
			w.WriteHeader(http.StatusOK)
			return
		}
		// Transient failure: non-2xx makes the provider redeliver.
		http.Error(w, "Reconciliation failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleWooWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	sig := r.Header.Get("X-WC-Webhook-Signature")
	if err := woocommerce.VerifySignature(s.wooSecret, body, sig); err != nil {
		switch {
		case errors.Is(err, domain.ErrWebhookAuthNotConfigured):
			if s.dev {
				s.log.Warn().Msg("woocommerce webhook secret not configured, accepting unverified event")
				break
			}
			metrics.IncWebhook("woocommerce", "misconfigured")
			http.Error(w, "Webhook verification not configured", http.StatusInternalServerError)
			return
		default:
			metrics.IncWebhook("woocommerce", "bad_signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	// WooCommerce pings with a non-JSON body when a webhook is first saved.
	ev, err := woocommerce.ParseOrderEvent(body)
	if err != nil || ev.ID == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}
	metrics.IncWebhook("woocommerce", "accepted")

	if err := s.wooUC.HandleOrderEvent(r.Context(), ev); err != nil {
		s.log.Error().Err(err).Int64("woo_order_id", ev.ID).Msg("order event handling failed")
		http.Error(w, "Order handling failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func signatureHeaderFor(gatewayID string) string {
	switch gatewayID {
	case "paystack":
		return "X-Paystack-Signature"
	case "stripe":
		return "Stripe-Signature"
	default:
		return "X-Webhook-Signature"
	}
}
