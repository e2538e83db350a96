package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/flyttio/priskalk/internal/pricing"
	"github.com/flyttio/priskalk/internal/quotes"
	"github.com/flyttio/priskalk/internal/rates"
	"github.com/flyttio/priskalk/internal/route"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json: " + err.Error()})
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP statuses and user-facing
// messages.
func writeDomainError(w http.ResponseWriter, err error) {
	var cfgErr *rates.ConfigError

	switch {
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: cfgErr.Error()})
	case errors.Is(err, pricing.ErrPricingUnavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "this company has not configured pricing yet"})
	case errors.Is(err, rates.ErrNotFound), errors.Is(err, quotes.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, quotes.ErrBadTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, route.ErrAddressNotFound),
		errors.Is(err, route.ErrGeocodeTimeout),
		errors.Is(err, route.ErrRouteUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not calculate distance, try again"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

type estimateRequest struct {
	CompanyID int64                `json:"companyId"`
	Request   pricing.QuoteRequest `json:"request"`
}

// handleEstimate prices a job interactively. The result is not persisted;
// quote creation reprices authoritatively.
func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if !readJSON(w, r, &req) {
		return
	}

	cfg, err := s.rateStore.Load(req.CompanyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	breakdown, err := pricing.Calculate(req.Request, cfg)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

type distanceRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// handleDistance resolves the three-leg round trip for an address pair.
func (s *server) handleDistance(w http.ResponseWriter, r *http.Request) {
	var req distanceRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from and to are required"})
		return
	}

	result, err := s.resolver.Resolve(r.Context(), req.From, req.To)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
