package http

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/armyverse/army-number-service/internal/domain"
	"github.com/armyverse/army-number-service/internal/usecase"
)

// requireAdmin gates the admin surface behind a shared token. An empty
// configured token leaves the surface open for local development.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken != "" && r.Header.Get("X-Admin-Token") != h.adminToken {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "admin token required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) ListNumbers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	page, err := h.service.ListNumbers(r.Context(), usecase.ListQuery{
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) DeleteNumber(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteNumber(r.Context(), chi.URLParam(r, "number")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV streams every sold record, walking the same paginated query the
// admin table uses so the export stays consistent with it.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("army_numbers_%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"number", "tier", "owner", "owner_email", "phone", "price", "transaction_id", "purchased_at"})

	offset := 0
	for {
		page, err := h.service.ListNumbers(r.Context(), usecase.ListQuery{
			Search: r.URL.Query().Get("search"),
			Limit:  500,
			Offset: offset,
		})
		if err != nil {
			// Headers are already gone; all we can do is stop the stream.
			cw.Flush()
			return
		}
		for _, n := range page.Numbers {
			_ = cw.Write([]string{
				n.Number,
				string(n.Tier),
				n.OwnerName,
				n.OwnerEmail,
				n.Phone,
				strconv.FormatFloat(n.Price, 'f', 2, 64),
				n.TransactionID,
				n.PurchasedAt.UTC().Format(time.RFC3339),
			})
		}
		if len(page.Numbers) < page.Limit {
			break
		}
		offset += page.Limit
	}
	cw.Flush()
}

func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Pricing(r.Context()))
}

func (h *Handler) PutPricing(w http.ResponseWriter, r *http.Request) {
	var cfg domain.PricingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.UpdatePricing(r.Context(), cfg); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAdminEvent returns the full gate config, answer included; only the
// public event endpoint blanks it.
func (h *Handler) GetAdminEvent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.EventConfig(r.Context()))
}

func (h *Handler) PutEvent(w http.ResponseWriter, r *http.Request) {
	var cfg domain.EventConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateEventConfig(r.Context(), cfg); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
