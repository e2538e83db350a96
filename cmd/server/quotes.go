package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flyttio/priskalk/internal/pricing"
	"github.com/flyttio/priskalk/internal/quotes"
	"github.com/flyttio/priskalk/internal/rates"
)

type quoteCreateRequest struct {
	CompanyID   int64                `json:"companyId"`
	Customer    string               `json:"customer"`
	FromAddress string               `json:"fromAddress"`
	ToAddress   string               `json:"toAddress"`
	Request     pricing.QuoteRequest `json:"request"`
}

// handleQuoteCreate prices a job authoritatively and persists the breakdown
// as the quote's immutable snapshot. Missing distance is resolved from the
// addresses when the transport mode needs it; a resolution failure blocks
// creation only for per-km pricing with no override distance.
func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var req quoteCreateRequest
	if !readJSON(w, r, &req) {
		return
	}

	cfg, err := s.rateStore.Load(req.CompanyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	needsDistance := cfg.TransportMode == rates.TransportPerKmRoundtrip && req.Request.KmRoundtrip == 0
	needsDriveTime := cfg.TransportMode != rates.TransportPerKmRoundtrip && req.Request.TransportMinutes == 0

	if (needsDistance || needsDriveTime) && req.FromAddress != "" && req.ToAddress != "" {
		result, err := s.resolver.Resolve(r.Context(), req.FromAddress, req.ToAddress)
		switch {
		case err == nil:
			if needsDistance {
				req.Request.KmRoundtrip = result.TotalKm
			}
			if needsDriveTime {
				req.Request.TransportMinutes = result.Minutes
			}
		case needsDistance:
			// Per-km pricing without a distance cannot proceed; a zero would
			// silently underbill.
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error: "could not calculate distance and the pricing mode requires it; retry or supply kmRoundtrip",
			})
			return
		default:
			// Time-based modes stay priceable without the resolver.
		}
	} else if needsDistance {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "pricing mode requires a distance; supply addresses or kmRoundtrip",
		})
		return
	}

	breakdown, err := pricing.Calculate(req.Request, cfg)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	quote := quotes.Quote{
		CompanyID:   req.CompanyID,
		Customer:    strings.TrimSpace(req.Customer),
		FromAddress: strings.TrimSpace(req.FromAddress),
		ToAddress:   strings.TrimSpace(req.ToAddress),
		Request:     req.Request,
		Breakdown:   breakdown,
	}

	id, err := s.quoteStore.Create(quote)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.quoteStore.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleQuoteList(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("companyId"), 10, 64)
	if err != nil || companyID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "companyId is required"})
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	items, err := s.quoteStore.List(companyID, query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}

	quote, err := s.quoteStore.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

type transitionRequest struct {
	Status quotes.Status `json:"status"`
}

func (s *server) handleQuoteTransition(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}

	var req transitionRequest
	if !readJSON(w, r, &req) {
		return
	}
	if !quotes.ValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status"})
		return
	}

	if err := s.quoteStore.Transition(id, req.Status); err != nil {
		writeDomainError(w, err)
		return
	}

	quote, err := s.quoteStore.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func quoteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid quote id"})
		return 0, false
	}
	return id, true
}
