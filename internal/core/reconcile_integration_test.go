package core_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/core"
)

func TestReconcile_WeightThreshold(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO animals (id, species, breed, birth_date, current_weight, status) VALUES
		(20, 'cattle', 'Angus',   '2024-01-01', 450.00, 'feeding'),
		(21, 'cattle', 'Angus',   '2024-01-01', 449.99, 'feeding'),
		(22, 'cattle', 'Hereford','2024-01-01', 430.00, 'ready_for_slaughter')
	`)
	if err != nil {
		t.Fatalf("failed to seed animals: %v", err)
	}

	report, err := core.NewReconcileService(pool, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Promoted != 1 {
		t.Errorf("expected 1 promotion (450.00 exactly), got %d", report.Promoted)
	}
	if report.Demoted != 1 {
		t.Errorf("expected 1 demotion, got %d", report.Demoted)
	}

	var status core.AnimalStatus
	if err := pool.QueryRow(ctx, `SELECT status FROM animals WHERE id = 20`).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != core.AnimalReadyForSlaughter {
		t.Errorf("animal at 450.00 should be promoted, got %s", status)
	}

	if err := pool.QueryRow(ctx, `SELECT status FROM animals WHERE id = 21`).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != core.AnimalFeeding {
		t.Errorf("animal at 449.99 must stay on feed, got %s", status)
	}

	if err := pool.QueryRow(ctx, `SELECT status FROM animals WHERE id = 22`).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != core.AnimalFeeding {
		t.Errorf("underweight ready animal should be demoted, got %s", status)
	}
}

func TestReconcile_CarcassMaterialization(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO animals (id, species, breed, birth_date, current_weight, status) VALUES
		(30, 'cattle', 'Angus', '2024-01-01', 500.00, 'slaughtered')
	`)
	if err != nil {
		t.Fatalf("failed to seed animal: %v", err)
	}

	svc := core.NewReconcileService(pool, nil)
	report, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.CarcassesCreated != 1 {
		t.Fatalf("expected 1 carcass created, got %d", report.CarcassesCreated)
	}

	var weight, price decimal.Decimal
	var status core.CarcassStatus
	err = pool.QueryRow(ctx, `
		SELECT carcass_weight, price, status FROM meat_carcasses WHERE animal_id = 30
	`).Scan(&weight, &price, &status)
	if err != nil {
		t.Fatalf("failed to read carcass: %v", err)
	}
	// 500.00 live × 0.6 = 300.00 dressed; 300.00 × 1500 = 450000.00.
	if !weight.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected carcass weight 300.00, got %s", weight)
	}
	if !price.Equal(decimal.NewFromInt(450000)) {
		t.Errorf("expected price 450000.00, got %s", price)
	}
	if status != core.CarcassInStock {
		t.Errorf("expected in_stock, got %s", status)
	}

	// A second pass is a no-op: no duplicate carcass.
	report, err = svc.Run(ctx)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if report.Changed() {
		t.Errorf("second run should change nothing, got %+v", report)
	}

	var carcassCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM meat_carcasses WHERE animal_id = 30`).Scan(&carcassCount); err != nil {
		t.Fatal(err)
	}
	if carcassCount != 1 {
		t.Errorf("expected exactly 1 carcass, got %d", carcassCount)
	}
}

func TestReconcile_CarcassPriceFromRoundedWeight(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	// 449.99 × 0.6 = 269.994, which rounds to 269.99. The price is computed
	// from the rounded dressed weight, not the raw product, so it must land
	// on 269.99 × 1500 = 404985.00 rather than ROUND(269.994 × 1500).
	_, err := pool.Exec(ctx, `
		INSERT INTO animals (id, species, breed, birth_date, current_weight, status) VALUES
		(31, 'cattle', 'Hereford', '2024-01-01', 449.99, 'slaughtered')
	`)
	if err != nil {
		t.Fatalf("failed to seed animal: %v", err)
	}

	report, err := core.NewReconcileService(pool, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.CarcassesCreated != 1 {
		t.Fatalf("expected 1 carcass created, got %d", report.CarcassesCreated)
	}

	var weight, price decimal.Decimal
	err = pool.QueryRow(ctx, `
		SELECT carcass_weight, price FROM meat_carcasses WHERE animal_id = 31
	`).Scan(&weight, &price)
	if err != nil {
		t.Fatalf("failed to read carcass: %v", err)
	}
	if !weight.Equal(decimal.RequireFromString("269.99")) {
		t.Errorf("expected carcass weight 269.99, got %s", weight)
	}
	if !price.Equal(decimal.RequireFromString("404985.00")) {
		t.Errorf("expected price 404985.00, got %s", price)
	}
	if !price.Equal(weight.Mul(decimal.NewFromInt(1500))) {
		t.Errorf("price %s does not equal carcass weight %s at 1500/kg", price, weight)
	}
}

func TestReconcile_SoldCarcassBlocksRematerialization(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	// The seed carcass for animal 30 is already sold; reconciliation must not
	// mint a fresh one.
	_, err := pool.Exec(ctx, `
		INSERT INTO animals (id, species, breed, birth_date, current_weight, status) VALUES
		(30, 'cattle', 'Angus', '2024-01-01', 500.00, 'slaughtered');
		INSERT INTO meat_carcasses (animal_id, breed, slaughter_date, carcass_weight, price, status)
		VALUES (30, 'Angus', NOW(), 300.00, 450000.00, 'sold');
	`)
	if err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	report, err := core.NewReconcileService(pool, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.CarcassesCreated != 0 {
		t.Errorf("expected no carcasses created, got %d", report.CarcassesCreated)
	}
}
