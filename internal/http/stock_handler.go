package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/service"
)

type StockItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type stockHandler struct {
	stockSvc service.StockService
	srv      *Service
}

func newStockHandler(stockSvc service.StockService, srv *Service) *stockHandler {
	return &stockHandler{
		stockSvc: stockSvc,
		srv:      srv,
	}
}

func (h *stockHandler) ListStockItems(w http.ResponseWriter, r *http.Request) {
	var params service.ListStockItemsParams
	if raw := r.URL.Query().Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			h.srv.handleResponseError(w, r, apperr.ValidationErr.WrapParent(fmt.Errorf("invalid available query param %q: %w", raw, err)))
			return
		}
		params.Available = &available
	}

	entries, err := h.stockSvc.ListStockItems(r.Context(), params)
	if err != nil {
		h.srv.handleResponseError(w, r, fmt.Errorf("stock service list stock items: %w", err))
		return
	}

	items := make([]StockItemResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, StockItemResponse{
			ID:        e.ID,
			Name:      e.Name,
			Quantity:  e.Quantity,
			Available: e.Available,
		})
	}

	h.srv.writeJSON(w, r, http.StatusOK, items)
}

func (h *stockHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.stockSvc.CheckHealth(r.Context()); err != nil {
		h.srv.handleResponseError(w, r, err)
		return
	}

	h.srv.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
