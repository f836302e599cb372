package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mwillis/coinfolio/internal/models"
	"github.com/mwillis/coinfolio/internal/services/pricing"
)

// parseSymbols splits a comma-separated symbols query parameter.
func parseSymbols(r *http.Request) []string {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if sym := models.NormalizeSymbol(strings.TrimSpace(p)); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	return symbols
}

// handlePrices handles GET /api/prices?symbols=BTC,ETH.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireUser(w, r); !ok {
		return
	}

	symbols := parseSymbols(r)
	if len(symbols) == 0 {
		WriteError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}

	quotes, err := s.app.PriceService.GetPrices(r.Context(), symbols)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch prices")
		WriteError(w, http.StatusBadGateway, "failed to fetch prices")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"prices": quotes})
}

// handleMarketData handles GET /api/prices/markets?symbols=BTC,ETH.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireUser(w, r); !ok {
		return
	}

	symbols := parseSymbols(r)
	if len(symbols) == 0 {
		WriteError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}

	markets, err := s.app.PriceService.GetMarketData(r.Context(), symbols)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch market data")
		WriteError(w, http.StatusBadGateway, "failed to fetch market data")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"markets": markets})
}

// handlePriceReload handles POST /api/prices/reload. A rate-limited reload
// still returns the cached quotes, flagged with the wait until the next
// permitted upstream call.
func (s *Server) handlePriceReload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req struct {
		Symbols []string `json:"symbols"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	symbols := make([]string, 0, len(req.Symbols))
	for _, p := range req.Symbols {
		if sym := models.NormalizeSymbol(strings.TrimSpace(p)); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		WriteError(w, http.StatusBadRequest, "symbols are required")
		return
	}

	quotes, err := s.app.PriceService.Reload(r.Context(), symbols)
	if err != nil {
		var rateErr *pricing.RateLimitError
		if errors.As(err, &rateErr) {
			WriteJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"prices":       quotes,
				"rate_limited": true,
				"retry_after":  rateErr.Wait.Seconds(),
				"error":        rateErr.Error(),
			})
			return
		}
		s.logger.Error().Err(err).Msg("Price reload failed")
		WriteError(w, http.StatusBadGateway, "failed to reload prices")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"prices": quotes, "rate_limited": false})
}
