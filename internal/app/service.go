package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/core"
)

// ApplicationService is the single interface all adapters (web, Telegram bot,
// reconcile CLI) call. It decouples presentation from business logic.
// Implementations contain no display logic of any kind.
type ApplicationService interface {
	// Login authenticates a staff user by username and password.
	Login(ctx context.Context, username, password string, origin core.Origin) (*core.User, error)

	// GetUser returns a staff user by id.
	GetUser(ctx context.Context, id int) (*core.User, error)

	// Catalog returns everything currently sellable, grouped for the ordering
	// surfaces (bot menus, web shop list).
	Catalog(ctx context.Context) (*CatalogResult, error)

	// QuoteItem returns the current price and availability of one sellable item.
	QuoteItem(ctx context.Context, orderType core.OrderType, item core.ItemRef) (*core.Quote, error)

	// PlaceOrder runs the atomic order placement: order row, inventory
	// mutation, and audit entry in one transaction.
	PlaceOrder(ctx context.Context, in core.PlaceOrderInput) (*core.Order, error)

	// ListOrders returns orders, optionally filtered by status ("" = all).
	ListOrders(ctx context.Context, status core.OrderStatus) ([]core.Order, error)
	GetOrder(ctx context.Context, id int) (*core.Order, error)
	FindCustomerOrders(ctx context.Context, customerName, phone string) ([]core.Order, error)
	UpdateOrderStatus(ctx context.Context, id int, next core.OrderStatus, actor core.AuditEntry) (*core.Order, error)
	UpdateOrderNotes(ctx context.Context, id int, notes string) (*core.Order, error)
	DeleteOrder(ctx context.Context, id int, actor core.AuditEntry) error

	// Dashboard aggregates the numbers the back-office landing screen shows.
	Dashboard(ctx context.Context) (*DashboardResult, error)

	// Herd management.
	CreateAnimal(ctx context.Context, in core.CreateAnimalInput) (*core.Animal, error)
	ListAnimals(ctx context.Context, status core.AnimalStatus) ([]core.Animal, error)
	GetAnimal(ctx context.Context, id int) (*core.Animal, error)
	UpdateAnimal(ctx context.Context, id int, in core.UpdateAnimalInput) (*core.Animal, error)
	DeleteAnimal(ctx context.Context, id int, actor core.AuditEntry) error
	RecordWeight(ctx context.Context, animalID int, weight decimal.Decimal, date time.Time, measuredBy *int) (*core.Animal, error)
	GetWeightHistory(ctx context.Context, animalID int) ([]core.WeightEntry, error)
	SetAnimalPrice(ctx context.Context, animalID int, price decimal.Decimal) (*core.Animal, error)
	SetAnimalStatus(ctx context.Context, animalID int, status core.AnimalStatus, actor core.AuditEntry) (*core.Animal, error)

	// Carcasses.
	AddCarcass(ctx context.Context, in core.AddCarcassInput) (*core.Carcass, error)
	ListCarcasses(ctx context.Context, status core.CarcassStatus) ([]core.Carcass, error)
	UpdateCarcassStatus(ctx context.Context, id int, status core.CarcassStatus) (*core.Carcass, error)
	DeleteCarcass(ctx context.Context, id int, actor core.AuditEntry) error

	// Feed storage.
	ListFeedStock(ctx context.Context) ([]core.FeedStock, error)
	CreateFeedType(ctx context.Context, req CreateFeedTypeRequest) (*core.FeedStock, error)
	ReceiveFeed(ctx context.Context, productType string, qty decimal.Decimal) (*core.FeedStock, error)
	SetFeedQuantity(ctx context.Context, productType string, qty decimal.Decimal) (*core.FeedStock, error)
	RecordFeedConsumption(ctx context.Context, c core.FeedConsumption) error

	// Reconcile runs one status reconciliation pass.
	Reconcile(ctx context.Context) (*core.ReconcileReport, error)

	// AuditLog returns the most recent audit entries, newest first.
	AuditLog(ctx context.Context, limit int) ([]core.AuditEntry, error)
}
