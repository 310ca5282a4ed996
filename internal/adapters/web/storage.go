package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/app"
	"github.com/nurs7132/agroFarm/internal/core"
)

func (h *Handler) listFeedStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.svc.ListFeedStock(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, stock)
}

func (h *Handler) createFeedType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductType  string            `json:"product_type"`
		Category     core.FeedCategory `json:"feed_category"`
		Unit         string            `json:"unit"`
		MinQuantity  decimal.Decimal   `json:"min_quantity"`
		PricePerUnit decimal.Decimal   `json:"price_per_unit"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	line, err := h.svc.CreateFeedType(r.Context(), app.CreateFeedTypeRequest{
		ProductType:  req.ProductType,
		Category:     req.Category,
		Unit:         req.Unit,
		MinQuantity:  req.MinQuantity,
		PricePerUnit: req.PricePerUnit,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, line)
}

func (h *Handler) receiveFeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity decimal.Decimal `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	line, err := h.svc.ReceiveFeed(r.Context(), chi.URLParam(r, "productType"), req.Quantity)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, line)
}

func (h *Handler) setFeedQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity decimal.Decimal `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	line, err := h.svc.SetFeedQuantity(r.Context(), chi.URLParam(r, "productType"), req.Quantity)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, line)
}

func (h *Handler) recordConsumption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductType     string          `json:"product_type"`
		Quantity        decimal.Decimal `json:"quantity"`
		Purpose         string          `json:"purpose"`
		AnimalID        *int            `json:"animal_id"`
		ConsumptionDate time.Time       `json:"consumption_date"`
		Notes           *string         `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ConsumptionDate.IsZero() {
		req.ConsumptionDate = time.Now()
	}

	c := core.FeedConsumption{
		ProductType:     req.ProductType,
		Quantity:        req.Quantity,
		Purpose:         req.Purpose,
		AnimalID:        req.AnimalID,
		ConsumptionDate: req.ConsumptionDate,
		Notes:           req.Notes,
	}
	if claims := authFromContext(r.Context()); claims != nil {
		c.RecordedBy = &claims.UserID
	}

	if err := h.svc.RecordFeedConsumption(r.Context(), c); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
