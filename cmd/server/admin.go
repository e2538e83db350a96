package main

import (
	"net/http"
	"strconv"

	"github.com/flyttio/priskalk/internal/rates"
)

func adminCompanyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("companyId"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "companyId is required"})
		return 0, false
	}
	return id, true
}

// handleRatesGet returns the canonical, normalized configuration regardless
// of the shape it was stored in.
func (s *server) handleRatesGet(w http.ResponseWriter, r *http.Request) {
	companyID, ok := adminCompanyID(w, r)
	if !ok {
		return
	}

	cfg, err := s.rateStore.Load(companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *server) handleRatesPut(w http.ResponseWriter, r *http.Request) {
	companyID, ok := adminCompanyID(w, r)
	if !ok {
		return
	}

	var cfg rates.RateConfig
	if !readJSON(w, r, &cfg) {
		return
	}

	if err := s.rateStore.Save(companyID, cfg); err != nil {
		writeDomainError(w, err)
		return
	}

	saved, err := s.rateStore.Load(companyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
