package app

import "github.com/nurs7132/agroFarm/internal/core"

// CatalogResult groups everything currently sellable.
type CatalogResult struct {
	Animals   []core.Animal    `json:"animals"`
	Carcasses []core.Carcass   `json:"carcasses"`
	Grain     []core.FeedStock `json:"grain"`
	Hay       []core.FeedStock `json:"hay"`
}

// DashboardResult aggregates the back-office landing screen numbers.
type DashboardResult struct {
	OrdersByStatus  map[core.OrderStatus]int  `json:"orders_by_status"`
	AnimalsByStatus map[core.AnimalStatus]int `json:"animals_by_status"`
	LowStock        []core.FeedStock          `json:"low_stock"`
}
