package app

import (
	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/core"
)

// CreateFeedTypeRequest registers a new storage line.
type CreateFeedTypeRequest struct {
	ProductType  string
	Category     core.FeedCategory
	Unit         string
	MinQuantity  decimal.Decimal
	PricePerUnit decimal.Decimal
}
