package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/usecase"
)

type ClaimRequestBody struct {
	Number     string `json:"number"`
	GateAnswer string `json:"gate_answer"`
	OrderID    string `json:"order_id"`
	Owner      string `json:"owner"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type VerifyRequest struct {
	Number string `json:"number"`
	Email  string `json:"email"`
}

type ErrorResponse struct {
	Error          string `json:"error"`
	RefundRequired bool   `json:"refund_required,omitempty"`
}

type Handler struct {
	gateway    usecase.NumberGateway
	service    *usecase.NumberService
	adminToken string
}

// NewHandler wires the fan-facing routes through the gateway (direct or
// Kafka-backed) and the admin routes straight to the service.
func NewHandler(gateway usecase.NumberGateway, service *usecase.NumberService, adminToken string) *Handler {
	return &Handler{gateway: gateway, service: service, adminToken: adminToken}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/numbers/{number}", h.SearchNumber)
		r.Post("/numbers/claim", h.ClaimNumber)
		r.Post("/verify", h.VerifyOwnership)
		r.Get("/certificates", h.Certificates)
		r.Get("/event", h.GetEvent)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/numbers", h.ListNumbers)
			r.Get("/numbers/export", h.ExportCSV)
			r.Delete("/numbers/{number}", h.DeleteNumber)
			r.Get("/pricing", h.GetPricing)
			r.Put("/pricing", h.PutPricing)
			r.Get("/event", h.GetAdminEvent)
			r.Put("/event", h.PutEvent)
		})
	})
}

func (h *Handler) SearchNumber(w http.ResponseWriter, r *http.Request) {
	result, err := h.gateway.Search(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ClaimNumber(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.gateway.Claim(r.Context(), usecase.ClaimRequest{
		Number:     req.Number,
		GateAnswer: req.GateAnswer,
		OrderID:    req.OrderID,
		Registration: usecase.Registration{
			OwnerName: req.Owner,
			Email:     req.Email,
			Phone:     req.Phone,
		},
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) VerifyOwnership(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.gateway.VerifyOwnership(r.Context(), req.Number, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) Certificates(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	records, err := h.service.CertificatesByEmail(r.Context(), email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.ArmyNumber{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetEvent exposes the public part of the gate config; the accepted answer
// never leaves the server.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.EventConfig(r.Context())
	cfg.AuthAnswer = ""
	writeJSON(w, http.StatusOK, cfg)
}

// writeError maps domain errors onto HTTP statuses. Conflicts are expected
// outcomes of racing buyers, so they get their own status and, post-payment,
// a refund flag the client must surface.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidNumber),
		errors.Is(err, domain.ErrRegistrationInvalid),
		errors.Is(err, domain.ErrNegativePrice),
		errors.Is(err, domain.ErrUnknownTier),
		errors.Is(err, domain.ErrBadEventConfig):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrGateClosed), errors.Is(err, domain.ErrGateRejected):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrOwnershipMismatch):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNumberSold), errors.Is(err, domain.ErrEmailInUse):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrClaimedDuringPayment), errors.Is(err, domain.ErrClaimedAfterPayment):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), RefundRequired: true})
	case errors.Is(err, domain.ErrPaymentFailed):
		writeJSON(w, http.StatusPaymentRequired, ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
