package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/core"
)

type appService struct {
	pool      *pgxpool.Pool
	users     core.UserService
	inventory core.InventoryService
	orders    core.OrderService
	herd      core.HerdService
	reconcile core.ReconcileService
	audit     core.AuditService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	users core.UserService,
	inventory core.InventoryService,
	orders core.OrderService,
	herd core.HerdService,
	reconcile core.ReconcileService,
	audit core.AuditService,
) ApplicationService {
	return &appService{
		pool:      pool,
		users:     users,
		inventory: inventory,
		orders:    orders,
		herd:      herd,
		reconcile: reconcile,
		audit:     audit,
	}
}

func (s *appService) Login(ctx context.Context, username, password string, origin core.Origin) (*core.User, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, core.AuditEntry{
		UserID:     &u.ID,
		Username:   u.Username,
		Action:     core.ActionLogin,
		EntityType: "user",
		EntityID:   &u.ID,
		EntityName: u.Username,
		IPAddress:  origin.IP,
		UserAgent:  origin.UserAgent,
	})
	return u, nil
}

func (s *appService) GetUser(ctx context.Context, id int) (*core.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *appService) Catalog(ctx context.Context) (*CatalogResult, error) {
	animals, err := s.inventory.ListSellableAnimals(ctx)
	if err != nil {
		return nil, err
	}
	carcasses, err := s.inventory.ListSellableCarcasses(ctx)
	if err != nil {
		return nil, err
	}
	grain, err := s.inventory.ListSellableFeed(ctx, core.FeedGrain)
	if err != nil {
		return nil, err
	}
	hay, err := s.inventory.ListSellableFeed(ctx, core.FeedHay)
	if err != nil {
		return nil, err
	}
	return &CatalogResult{Animals: animals, Carcasses: carcasses, Grain: grain, Hay: hay}, nil
}

func (s *appService) QuoteItem(ctx context.Context, orderType core.OrderType, item core.ItemRef) (*core.Quote, error) {
	return s.inventory.Quote(ctx, orderType, item)
}

func (s *appService) PlaceOrder(ctx context.Context, in core.PlaceOrderInput) (*core.Order, error) {
	return s.orders.PlaceOrder(ctx, in)
}

func (s *appService) ListOrders(ctx context.Context, status core.OrderStatus) ([]core.Order, error) {
	return s.orders.GetOrders(ctx, status)
}

func (s *appService) GetOrder(ctx context.Context, id int) (*core.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *appService) FindCustomerOrders(ctx context.Context, customerName, phone string) ([]core.Order, error) {
	return s.orders.FindCustomerOrders(ctx, customerName, phone)
}

func (s *appService) UpdateOrderStatus(ctx context.Context, id int, next core.OrderStatus, actor core.AuditEntry) (*core.Order, error) {
	return s.orders.UpdateStatus(ctx, id, next, actor)
}

func (s *appService) UpdateOrderNotes(ctx context.Context, id int, notes string) (*core.Order, error) {
	return s.orders.UpdateNotes(ctx, id, notes)
}

func (s *appService) DeleteOrder(ctx context.Context, id int, actor core.AuditEntry) error {
	return s.orders.DeleteOrder(ctx, id, actor)
}

func (s *appService) Dashboard(ctx context.Context) (*DashboardResult, error) {
	orderCounts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	animalCounts := make(map[core.AnimalStatus]int)
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM animals GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status core.AnimalStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		animalCounts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stock, err := s.inventory.GetFeedStock(ctx)
	if err != nil {
		return nil, err
	}
	var low []core.FeedStock
	for _, f := range stock {
		if f.BelowMinimum() {
			low = append(low, f)
		}
	}

	return &DashboardResult{
		OrdersByStatus:  orderCounts,
		AnimalsByStatus: animalCounts,
		LowStock:        low,
	}, nil
}

func (s *appService) CreateAnimal(ctx context.Context, in core.CreateAnimalInput) (*core.Animal, error) {
	return s.herd.CreateAnimal(ctx, in)
}

func (s *appService) ListAnimals(ctx context.Context, status core.AnimalStatus) ([]core.Animal, error) {
	return s.herd.GetAnimals(ctx, status)
}

func (s *appService) GetAnimal(ctx context.Context, id int) (*core.Animal, error) {
	return s.herd.GetAnimal(ctx, id)
}

func (s *appService) UpdateAnimal(ctx context.Context, id int, in core.UpdateAnimalInput) (*core.Animal, error) {
	return s.herd.UpdateAnimal(ctx, id, in)
}

func (s *appService) DeleteAnimal(ctx context.Context, id int, actor core.AuditEntry) error {
	return s.herd.DeleteAnimal(ctx, id, actor)
}

func (s *appService) RecordWeight(ctx context.Context, animalID int, weight decimal.Decimal, date time.Time, measuredBy *int) (*core.Animal, error) {
	return s.herd.RecordWeight(ctx, animalID, weight, date, measuredBy)
}

func (s *appService) GetWeightHistory(ctx context.Context, animalID int) ([]core.WeightEntry, error) {
	return s.herd.GetWeightHistory(ctx, animalID)
}

func (s *appService) SetAnimalPrice(ctx context.Context, animalID int, price decimal.Decimal) (*core.Animal, error) {
	return s.herd.SetPrice(ctx, animalID, price)
}

func (s *appService) SetAnimalStatus(ctx context.Context, animalID int, status core.AnimalStatus, actor core.AuditEntry) (*core.Animal, error) {
	return s.herd.UpdateStatus(ctx, animalID, status, actor)
}

func (s *appService) AddCarcass(ctx context.Context, in core.AddCarcassInput) (*core.Carcass, error) {
	return s.herd.AddCarcass(ctx, in)
}

func (s *appService) ListCarcasses(ctx context.Context, status core.CarcassStatus) ([]core.Carcass, error) {
	return s.herd.GetCarcasses(ctx, status)
}

func (s *appService) UpdateCarcassStatus(ctx context.Context, id int, status core.CarcassStatus) (*core.Carcass, error) {
	return s.herd.UpdateCarcassStatus(ctx, id, status)
}

func (s *appService) DeleteCarcass(ctx context.Context, id int, actor core.AuditEntry) error {
	return s.herd.DeleteCarcass(ctx, id, actor)
}

func (s *appService) ListFeedStock(ctx context.Context) ([]core.FeedStock, error) {
	return s.inventory.GetFeedStock(ctx)
}

func (s *appService) CreateFeedType(ctx context.Context, req CreateFeedTypeRequest) (*core.FeedStock, error) {
	return s.inventory.CreateFeedType(ctx, req.ProductType, req.Category, req.Unit, req.MinQuantity, req.PricePerUnit)
}

func (s *appService) ReceiveFeed(ctx context.Context, productType string, qty decimal.Decimal) (*core.FeedStock, error) {
	return s.inventory.ReceiveFeed(ctx, productType, qty)
}

func (s *appService) SetFeedQuantity(ctx context.Context, productType string, qty decimal.Decimal) (*core.FeedStock, error) {
	return s.inventory.SetFeedQuantity(ctx, productType, qty)
}

func (s *appService) RecordFeedConsumption(ctx context.Context, c core.FeedConsumption) error {
	return s.inventory.RecordFeedConsumption(ctx, c)
}

func (s *appService) Reconcile(ctx context.Context) (*core.ReconcileReport, error) {
	return s.reconcile.Run(ctx)
}

func (s *appService) AuditLog(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	return s.audit.List(ctx, limit)
}
