package core_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE action_logs, orders, feed_consumption, weights, meat_carcasses, animals, storage, users CASCADE;

		INSERT INTO storage (product_type, feed_category, unit, current_quantity, min_quantity, price_per_unit) VALUES
		('barley', 'grain', 'kg', 2000.00, 100.00, 150.00),
		('alfalfa hay', 'hay', 'bale', 50.00, 10.00, 2500.00);

		INSERT INTO animals (id, name, species, breed, birth_date, current_weight, status, price) VALUES
		(7, 'Borat', 'cattle', 'Kazakh Whiteheaded', '2024-03-10', 470.00, 'ready_for_slaughter', 500000.00),
		(8, NULL,    'cattle', 'Angus',              '2024-05-02', 390.00, 'feeding',             NULL);
		SELECT setval('animals_id_seq', 100);

		INSERT INTO meat_carcasses (id, animal_id, breed, slaughter_date, carcass_weight, price, status) VALUES
		(3, NULL, 'Angus', NOW(), 270.00, 405000.00, 'in_stock');
		SELECT setval('meat_carcasses_id_seq', 100);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func newOrderService(pool *pgxpool.Pool) core.OrderService {
	inventory := core.NewInventoryService(pool)
	audit := core.NewAuditService(pool, nil)
	return core.NewOrderService(pool, inventory, audit, nil)
}

func TestPlaceOrder_BulkFeedDebit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	order, err := svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Aslan",
		Phone:        "87051234567",
		OrderType:    core.OrderGrain,
		Item:         core.ItemRef{ProductType: "barley"},
		Quantity:     decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	if order.Status != core.OrderNew {
		t.Errorf("expected status new, got %s", order.Status)
	}
	if order.Phone != "+77051234567" {
		t.Errorf("expected normalized phone, got %s", order.Phone)
	}
	if !order.TotalPrice.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("expected total 150000, got %s", order.TotalPrice)
	}

	var remaining decimal.Decimal
	if err := pool.QueryRow(ctx, `SELECT current_quantity FROM storage WHERE product_type = 'barley'`).Scan(&remaining); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	if !remaining.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected 1000 kg remaining, got %s", remaining)
	}

	// An audit row committed with the order.
	var auditCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM action_logs WHERE entity_type = 'order' AND entity_id = $1`, order.ID).Scan(&auditCount); err != nil {
		t.Fatalf("failed to count audit rows: %v", err)
	}
	if auditCount != 1 {
		t.Errorf("expected 1 audit row, got %d", auditCount)
	}

	// Draining the line to exactly zero is allowed.
	if _, err := svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Erlan",
		Phone:        "7057654321",
		OrderType:    core.OrderGrain,
		Item:         core.ItemRef{ProductType: "barley"},
		Quantity:     decimal.NewFromInt(1000),
	}); err != nil {
		t.Fatalf("draining order failed: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT current_quantity FROM storage WHERE product_type = 'barley'`).Scan(&remaining); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	if !remaining.IsZero() {
		t.Errorf("expected empty line, got %s", remaining)
	}

	// One more kilogram is one too many.
	_, err = svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Erlan",
		Phone:        "7057654321",
		OrderType:    core.OrderGrain,
		Item:         core.ItemRef{ProductType: "barley"},
		Quantity:     decimal.NewFromInt(1),
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock on empty line, got %v", err)
	}
}

func TestPlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	_, err := svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Aslan",
		Phone:        "87051234567",
		OrderType:    core.OrderGrain,
		Item:         core.ItemRef{ProductType: "barley"},
		Quantity:     decimal.NewFromInt(2500),
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// No order row survives the rollback and the stock is untouched.
	var orderCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("expected no orders, got %d", orderCount)
	}

	var remaining decimal.Decimal
	if err := pool.QueryRow(ctx, `SELECT current_quantity FROM storage WHERE product_type = 'barley'`).Scan(&remaining); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	if !remaining.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected 2000 kg remaining, got %s", remaining)
	}
}

func TestPlaceOrder_UniqueAnimal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	order, err := svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Dana",
		Phone:        "7051234567",
		OrderType:    core.OrderLiveAnimal,
		Item:         core.ItemRef{AnimalID: 7},
		Quantity:     decimal.NewFromInt(5), // forced to 1 for unique items
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if !order.Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected quantity 1, got %s", order.Quantity)
	}
	if !order.TotalPrice.Equal(decimal.NewFromInt(500000)) {
		t.Errorf("expected total 500000, got %s", order.TotalPrice)
	}
	if order.ProductName != "Borat" {
		t.Errorf("expected product name Borat, got %q", order.ProductName)
	}

	var status core.AnimalStatus
	if err := pool.QueryRow(ctx, `SELECT status FROM animals WHERE id = 7`).Scan(&status); err != nil {
		t.Fatalf("failed to read animal: %v", err)
	}
	if status != core.AnimalSold {
		t.Errorf("expected animal sold, got %s", status)
	}

	// A second attempt sees the animal as no longer sellable.
	_, err = svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Erlan",
		Phone:        "7057654321",
		OrderType:    core.OrderLiveAnimal,
		Item:         core.ItemRef{AnimalID: 7},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for sold animal, got %v", err)
	}
}

func TestPlaceOrder_AnimalStillFeeding(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	_, err := svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Dana",
		Phone:        "7051234567",
		OrderType:    core.OrderLiveAnimal,
		Item:         core.ItemRef{AnimalID: 8},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for animal still on feed, got %v", err)
	}
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	_, err := svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "D",
		Phone:        "7051234567",
		OrderType:    core.OrderCarcass,
		Item:         core.ItemRef{CarcassID: 3},
	})
	if !core.IsInvalidInput(err) {
		t.Fatalf("expected InvalidInputError for short name, got %v", err)
	}

	_, err = svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Dana",
		Phone:        "12345",
		OrderType:    core.OrderCarcass,
		Item:         core.ItemRef{CarcassID: 3},
	})
	if !core.IsInvalidInput(err) {
		t.Fatalf("expected InvalidInputError for short phone, got %v", err)
	}
}

// Two concurrent placements of the same unique item: exactly one commits, the
// other fails with ErrStaleState and leaves no order row behind.
func TestPlaceOrder_ConcurrentDoubleSell(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	input := func(name string) core.PlaceOrderInput {
		return core.PlaceOrderInput{
			CustomerName: name,
			Phone:        "7051234567",
			OrderType:    core.OrderCarcass,
			Item:         core.ItemRef{CarcassID: 3},
		}
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, name := range []string{"Dana", "Erlan"} {
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(ctx, input(name))
		}(i, name)
	}
	wg.Wait()

	var successes, stale int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, core.ErrStaleState), errors.Is(err, core.ErrNotFound):
			// ErrNotFound is the loser arriving after the winner committed;
			// ErrStaleState is the loser losing the race inside the UPDATE.
			stale++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || stale != 1 {
		t.Fatalf("expected exactly one success and one stale/not-found, got %d successes, %d stale", successes, stale)
	}

	var orderCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if orderCount != 1 {
		t.Errorf("expected exactly 1 order row, got %d", orderCount)
	}
}

func TestPlaceOrder_ConcurrentFeedDebit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	// Barley starts at 2000 kg. Either order fits alone, but together they
	// ask for 2400 kg, so the committed debits must never exceed the stock.
	input := func(name string) core.PlaceOrderInput {
		return core.PlaceOrderInput{
			CustomerName: name,
			Phone:        "7051234567",
			OrderType:    core.OrderGrain,
			Item:         core.ItemRef{ProductType: "barley"},
			Quantity:     decimal.NewFromInt(1200),
		}
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, name := range []string{"Dana", "Erlan"} {
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(ctx, input(name))
		}(i, name)
	}
	wg.Wait()

	var successes, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, core.ErrInsufficientStock):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || rejected != 1 {
		t.Fatalf("expected exactly one success and one insufficient-stock rejection, got %d successes, %d rejections", successes, rejected)
	}

	var remaining decimal.Decimal
	if err := pool.QueryRow(ctx, `SELECT current_quantity FROM storage WHERE product_type = 'barley'`).Scan(&remaining); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	if remaining.IsNegative() {
		t.Fatalf("stock went negative: %s", remaining)
	}
	if !remaining.Equal(decimal.NewFromInt(800)) {
		t.Errorf("expected 800 kg remaining after one 1200 kg debit, got %s", remaining)
	}

	var orderCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if orderCount != 1 {
		t.Errorf("expected exactly 1 order row, got %d", orderCount)
	}
}

func TestOrderStatus_UpdateFlow(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	order, err := svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Dana",
		Phone:        "7051234567",
		OrderType:    core.OrderCarcass,
		Item:         core.ItemRef{CarcassID: 3},
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	order, err = svc.UpdateStatus(ctx, order.ID, core.OrderProcessing, core.AuditEntry{Username: "tester"})
	if err != nil {
		t.Fatalf("UpdateStatus to processing failed: %v", err)
	}
	order, err = svc.UpdateStatus(ctx, order.ID, core.OrderFulfilled, core.AuditEntry{Username: "tester"})
	if err != nil {
		t.Fatalf("UpdateStatus to fulfilled failed: %v", err)
	}

	// Fulfilled is terminal.
	if _, err := svc.UpdateStatus(ctx, order.ID, core.OrderProcessing, core.AuditEntry{Username: "tester"}); !core.IsInvalidInput(err) {
		t.Fatalf("expected InvalidInputError for backwards transition, got %v", err)
	}
}

func TestFindCustomerOrders(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := newOrderService(pool)

	if _, err := svc.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName: "Dana",
		Phone:        "8 (705) 123-45-67",
		OrderType:    core.OrderGrain,
		Item:         core.ItemRef{ProductType: "barley"},
		Quantity:     decimal.NewFromInt(200),
	}); err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	// Lookup matches through normalization and is case-insensitive on the name.
	orders, err := svc.FindCustomerOrders(ctx, "dana", "87051234567")
	if err != nil {
		t.Fatalf("FindCustomerOrders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	orders, err = svc.FindCustomerOrders(ctx, "Dana", "7059999999")
	if err != nil {
		t.Fatalf("FindCustomerOrders failed: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected no orders for a different phone, got %d", len(orders))
	}
}
