package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType identifies what kind of item an order sells.
// live_animal and carcass are unique items (quantity always 1);
// grain and hay are bulk feed sold by divisible quantity.
type OrderType string

const (
	OrderLiveAnimal OrderType = "live_animal"
	OrderCarcass    OrderType = "carcass"
	OrderGrain      OrderType = "grain"
	OrderHay        OrderType = "hay"
)

// IsUnique reports whether the order type sells a unique physical item.
func (t OrderType) IsUnique() bool {
	return t == OrderLiveAnimal || t == OrderCarcass
}

// FeedCategory maps a bulk order type to its storage category.
func (t OrderType) FeedCategory() FeedCategory {
	switch t {
	case OrderGrain:
		return FeedGrain
	case OrderHay:
		return FeedHay
	default:
		return ""
	}
}

// OrderStatus progresses only forward:
//
//	new → processing → fulfilled
//
// with cancelled reachable from new or processing. Cancellation does not
// reverse the inventory debit; restocking is a deliberate staff action.
type OrderStatus string

const (
	OrderNew        OrderStatus = "new"
	OrderProcessing OrderStatus = "processing"
	OrderFulfilled  OrderStatus = "fulfilled"
	OrderCancelled  OrderStatus = "cancelled"
)

// CanTransitionTo reports whether a staff status update from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderNew:
		return next == OrderProcessing || next == OrderFulfilled || next == OrderCancelled
	case OrderProcessing:
		return next == OrderFulfilled || next == OrderCancelled
	default:
		return false
	}
}

// Order is the single source of truth for what was sold. It is created
// atomically with its inventory side effect and never silently deleted.
type Order struct {
	ID               int             `json:"id"`
	CustomerName     string          `json:"customer_name"`
	Phone            string          `json:"phone"`
	TelegramUsername *string         `json:"telegram_username,omitempty"`
	OrderType        OrderType       `json:"order_type"`
	ProductID        *int            `json:"product_id,omitempty"`
	ProductName      string          `json:"product_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Status           OrderStatus     `json:"status"`
	Notes            *string         `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	CreatedBy        *int            `json:"created_by,omitempty"`
}

// ItemRef identifies a sellable item: a unique animal/carcass by ID,
// or a bulk feed line by product type.
type ItemRef struct {
	AnimalID    int
	CarcassID   int
	ProductType string
}

// PlaceOrderInput is the coordinator's inbound request, arriving either
// from the web form or from the bot conversation state.
type PlaceOrderInput struct {
	CustomerName     string
	Phone            string
	TelegramUsername string
	OrderType        OrderType
	Item             ItemRef
	Quantity         decimal.Decimal // ignored for unique items
	ActorID          *int            // staff user placing on behalf, nil for bot orders
	ActorName        string          // audit username; "telegram_bot" when ActorID is nil
	Origin           Origin
}

// Quote is the current sellable state of an item, as shown to a customer
// before ordering. Availability is re-checked at commit time.
type Quote struct {
	DisplayName string          `json:"display_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        string          `json:"unit"`
	Available   decimal.Decimal `json:"available"` // unit count for unique items
}
