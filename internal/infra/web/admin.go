// File: internal/infra/web/admin.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
)

type loginRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Secret string `json:"secret" validate:"required"`
}

// handleAdminLogin exchanges the shared operator secret for a short-lived
// token. Only allowlisted emails can log in.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.jwtSecret == "" || !constantTimeEq(req.Secret, s.jwtSecret) || !s.isAdmin(req.Email) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := IssueAdminToken(s.jwtSecret, req.Email, 12*time.Hour)
	if err != nil {
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Snapshot(r.Context())
	if err != nil {
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type planRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	PackageCode  string `json:"package_code" validate:"required"`
	DurationDays int    `json:"duration_days" validate:"required,gt=0"`
	Connections  int    `json:"connections" validate:"gte=0"`
	PriceMinor   int64  `json:"price_minor" validate:"required,gt=0"`
	Currency     string `json:"currency" validate:"required,iso4217"`
	Active       *bool  `json:"active"`
}

func (s *Server) handleAdminPlansList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": plans})
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := model.NewPlan(uuid.NewString(), req.Name, req.PackageCode, req.DurationDays, req.Connections, req.PriceMinor, req.Currency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.plans.Save(r.Context(), plan); err != nil {
		http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handlePlanUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	plan, err := s.plans.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get plan", http.StatusInternalServerError)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan.Name = req.Name
	plan.PackageCode = req.PackageCode
	plan.DurationDays = req.DurationDays
	if req.Connections > 0 {
		plan.Connections = req.Connections
	}
	plan.PriceMinor = req.PriceMinor
	plan.Currency = req.Currency
	if req.Active != nil {
		plan.Active = *req.Active
	}
	if err := s.plans.Save(r.Context(), plan); err != nil {
		http.Error(w, "Failed to update plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.plans.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to delete plan", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTicketsList(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.ticketUC.ListOpen(r.Context(), 100)
	if err != nil {
		http.Error(w, "Failed to list tickets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": tickets})
}

func (s *Server) handleTicketGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ticket, messages, err := s.ticketUC.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get ticket", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticket": ticket, "messages": messages})
}

type ticketReplyRequest struct {
	Body string `json:"body" validate:"required"`
}

func (s *Server) handleTicketReply(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ticketReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.ticketUC.Reply(r.Context(), id, req.Body, true); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to reply", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTicketClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ticketUC.Close(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to close ticket", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, account, err := s.subUC.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get subscription", http.StatusInternalServerError)
		return
	}
	resp := map[string]any{"subscription": sub}
	if account != nil {
		// Credentials stay server-side; operators only see line metadata.
		resp["service_account"] = map[string]any{
			"id":          account.ID,
			"username":    account.Username,
			"upstream_id": account.UpstreamID,
			"status":      account.Status,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlanSync(w http.ResponseWriter, r *http.Request) {
	n, err := s.wooUC.SyncPlans(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			http.Error(w, "Storefront not configured", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Plan sync failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"synced": n})
}
