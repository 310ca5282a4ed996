package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/core"
)

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Catalog(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// placeOrderRequest is the shared wire shape for web order placement.
type placeOrderRequest struct {
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	OrderType    core.OrderType  `json:"order_type"`
	AnimalID     int             `json:"animal_id,omitempty"`
	CarcassID    int             `json:"carcass_id,omitempty"`
	ProductType  string          `json:"product_type,omitempty"`
	Quantity     decimal.Decimal `json:"quantity,omitempty"`
}

func (req placeOrderRequest) toInput(origin core.Origin) core.PlaceOrderInput {
	return core.PlaceOrderInput{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		OrderType:    req.OrderType,
		Item: core.ItemRef{
			AnimalID:    req.AnimalID,
			CarcassID:   req.CarcassID,
			ProductType: req.ProductType,
		},
		Quantity: req.Quantity,
		Origin:   origin,
	}
}

// placePublicOrder handles POST /api/shop/orders, the unauthenticated
// customer-facing order form.
func (h *Handler) placePublicOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := req.toInput(originFromRequest(r))
	in.ActorName = "web_shop"
	order, err := h.svc.PlaceOrder(r.Context(), in)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// placeStaffOrder handles POST /api/orders: staff placing an order on a
// customer's behalf (phone orders, walk-ins).
func (h *Handler) placeStaffOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := req.toInput(originFromRequest(r))
	if claims := authFromContext(r.Context()); claims != nil {
		in.ActorID = &claims.UserID
		in.ActorName = claims.Username
	}
	order, err := h.svc.PlaceOrder(r.Context(), in)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := core.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.svc.ListOrders(r.Context(), status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status core.OrderStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.UpdateOrderStatus(r.Context(), id, req.Status, actorEntry(r))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) setOrderNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.UpdateOrderNotes(r.Context(), id, req.Notes)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(r.Context(), id, actorEntry(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
