// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/infra/logging"
)

type checkoutRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"max=120"`
	PlanID  string `json:"plan_id" validate:"required,uuid4"`
	Gateway string `json:"gateway" validate:"omitempty,oneof=paystack stripe"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txn, checkoutURL, err := s.checkoutUC.Initiate(r.Context(), req.Email, req.Name, req.PlanID, req.Gateway)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Unknown or inactive plan", http.StatusBadRequest)
		case errors.Is(err, domain.ErrUnknownGateway):
			http.Error(w, "Unknown payment gateway", http.StatusBadRequest)
		case errors.Is(err, domain.ErrGatewayUnavailable):
			http.Error(w, "Payment gateway unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, "Failed to start checkout", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"reference":    txn.Reference,
		"gateway":      txn.Gateway,
		"checkout_url": checkoutURL,
	})
}

// handleCallback is where gateways redirect the customer after payment. The
// redirect is untrusted; the reference is re-verified against the gateway
// before anything changes.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	gateway := chi.URLParam(r, "gateway")
	q := r.URL.Query()
	reference := q.Get("reference")
	if reference == "" {
		reference = q.Get("trxref") // Paystack's redirect parameter
	}
	if reference == "" {
		reference = q.Get("session_id") // Stripe success URL substitution
	}
	if reference == "" {
		http.Error(w, "Missing payment reference", http.StatusBadRequest)
		return
	}

	ctx := logging.WithGateway(logging.WithReference(r.Context(), reference), gateway)
	res, err := s.reconcileUC.ByReference(ctx, "callback", reference)
	if err != nil {
		if errors.Is(err, domain.ErrReferenceNotFound) {
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		}
		// Verification outage: the record stays pending and the poller will
		// finish the job.
		resultPage(w, false, "We could not confirm your payment yet. You will receive an email once it is confirmed.")
		return
	}

	if res.Success {
		resultPage(w, true, "Your payment has been received. Your access details will be emailed to you shortly.")
		return
	}
	resultPage(w, false, "Your payment could not be completed. No charge was applied. Please try again.")
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	res, err := s.reconcileUC.Status(r.Context(), reference)
	if err != nil {
		if errors.Is(err, domain.ErrReferenceNotFound) || errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get payment status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reference":     res.Reference,
		"status":        res.Status,
		"is_successful": res.Success,
		"is_complete":   res.AlreadyFinal,
	})
}

func (s *Server) handlePlansList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListActive(r.Context())
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": plans})
}

func (s *Server) handleGatewaysList(w http.ResponseWriter, r *http.Request) {
	type gatewayInfo struct {
		ID         string   `json:"id"`
		Currencies []string `json:"currencies"`
	}
	var out []gatewayInfo
	for _, g := range s.checkoutUC.Gateways(r.Context()) {
		out = append(out, gatewayInfo{ID: g.Identifier(), Currencies: g.SupportedCurrencies()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func resultPage(w http.ResponseWriter, success bool, message string) {
	title, class := "Payment Failed", "error"
	if success {
		title, class = "Payment Successful", "success"
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        .success { color: #4CAF50; }
        .error { color: #F44336; }
    </style>
</head>
<body>
    <h1 class="%s">%s</h1>
    <p>%s</p>
</body>
</html>
`, title, class, title, message)
}
