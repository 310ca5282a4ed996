package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InventoryService exposes the current sellable state of animals, carcasses,
// and feed stock, and provides the atomic debit/status-flip primitives the
// order coordinator builds on.
//
// The TX-scoped mutations use conditional UPDATE predicates evaluated at
// commit time: an UPDATE that matches zero rows means another transaction won
// the race, and the whole placement rolls back. This is what prevents
// double-selling a unique animal/carcass and overselling a feed line.
type InventoryService interface {
	// Catalog reads for the ordering surfaces.
	ListSellableAnimals(ctx context.Context) ([]Animal, error)
	ListSellableCarcasses(ctx context.Context) ([]Carcass, error)
	ListSellableFeed(ctx context.Context, category FeedCategory) ([]FeedStock, error)

	// Quote returns the current price and availability of one sellable item.
	// Returns ErrNotFound if the item no longer qualifies.
	Quote(ctx context.Context, orderType OrderType, item ItemRef) (*Quote, error)

	// TX-scoped primitives used by OrderService.PlaceOrder.
	DebitFeedTx(ctx context.Context, tx pgx.Tx, productType string, qty decimal.Decimal) error
	MarkAnimalSoldTx(ctx context.Context, tx pgx.Tx, animalID int) error
	MarkCarcassSoldTx(ctx context.Context, tx pgx.Tx, carcassID int) error

	// Staff stock management.
	GetFeedStock(ctx context.Context) ([]FeedStock, error)
	CreateFeedType(ctx context.Context, productType string, category FeedCategory, unit string, minQty, pricePerUnit decimal.Decimal) (*FeedStock, error)
	ReceiveFeed(ctx context.Context, productType string, qty decimal.Decimal) (*FeedStock, error)
	SetFeedQuantity(ctx context.Context, productType string, qty decimal.Decimal) (*FeedStock, error)
	RecordFeedConsumption(ctx context.Context, c FeedConsumption) error
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

// ── Catalog reads ─────────────────────────────────────────────────────────────

const animalColumns = `
	id, COALESCE(name, ''), species, breed, birth_date, current_weight, status, price,
	vaccination_type, vaccination_date, next_vaccination_date, vaccination_notes,
	last_weight_update, created_by, created_at
`

func scanAnimal(row pgx.Row) (*Animal, error) {
	var a Animal
	err := row.Scan(&a.ID, &a.Name, &a.Species, &a.Breed, &a.BirthDate, &a.CurrentWeight,
		&a.Status, &a.Price, &a.VaccinationType, &a.VaccinationDate, &a.NextVaccinationDate,
		&a.VaccinationNotes, &a.LastWeightUpdate, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *inventoryService) ListSellableAnimals(ctx context.Context) ([]Animal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+animalColumns+`
		FROM animals
		WHERE status = $1 AND price IS NOT NULL
		ORDER BY price
	`, AnimalReadyForSlaughter)
	if err != nil {
		return nil, fmt.Errorf("failed to query sellable animals: %w", err)
	}
	defer rows.Close()

	var animals []Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan animal: %w", err)
		}
		animals = append(animals, *a)
	}
	return animals, rows.Err()
}

const carcassColumns = `
	id, animal_id, breed, birth_date, slaughter_date, carcass_weight, price, status,
	description, created_by, created_at
`

func scanCarcass(row pgx.Row) (*Carcass, error) {
	var c Carcass
	err := row.Scan(&c.ID, &c.AnimalID, &c.Breed, &c.BirthDate, &c.SlaughterDate,
		&c.CarcassWeight, &c.Price, &c.Status, &c.Description, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *inventoryService) ListSellableCarcasses(ctx context.Context) ([]Carcass, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+carcassColumns+`
		FROM meat_carcasses
		WHERE status = $1
		ORDER BY price
	`, CarcassInStock)
	if err != nil {
		return nil, fmt.Errorf("failed to query sellable carcasses: %w", err)
	}
	defer rows.Close()

	var carcasses []Carcass
	for rows.Next() {
		c, err := scanCarcass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan carcass: %w", err)
		}
		carcasses = append(carcasses, *c)
	}
	return carcasses, rows.Err()
}

const feedColumns = `
	id, product_type, feed_category, unit, current_quantity, min_quantity, price_per_unit, last_updated
`

func scanFeed(row pgx.Row) (*FeedStock, error) {
	var f FeedStock
	err := row.Scan(&f.ID, &f.ProductType, &f.Category, &f.Unit, &f.CurrentQuantity,
		&f.MinQuantity, &f.PricePerUnit, &f.LastUpdated)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *inventoryService) ListSellableFeed(ctx context.Context, category FeedCategory) ([]FeedStock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+feedColumns+`
		FROM storage
		WHERE feed_category = $1 AND current_quantity > 0
		ORDER BY product_type
	`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query sellable feed: %w", err)
	}
	defer rows.Close()

	var lines []FeedStock
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed line: %w", err)
		}
		lines = append(lines, *f)
	}
	return lines, rows.Err()
}

// ── Quote ─────────────────────────────────────────────────────────────────────

func (s *inventoryService) Quote(ctx context.Context, orderType OrderType, item ItemRef) (*Quote, error) {
	switch orderType {
	case OrderLiveAnimal:
		var name, breed string
		var id int
		var price *decimal.Decimal
		err := s.pool.QueryRow(ctx, `
			SELECT id, COALESCE(name, ''), breed, price
			FROM animals
			WHERE id = $1 AND status = $2 AND price IS NOT NULL
		`, item.AnimalID, AnimalReadyForSlaughter).Scan(&id, &name, &breed, &price)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to quote animal %d: %w", item.AnimalID, err)
		}
		display := name
		if display == "" {
			display = fmt.Sprintf("%s #%d", breed, id)
		}
		return &Quote{DisplayName: display, UnitPrice: *price, Unit: "head", Available: decimal.NewFromInt(1)}, nil

	case OrderCarcass:
		var breed string
		var price decimal.Decimal
		err := s.pool.QueryRow(ctx, `
			SELECT breed, price
			FROM meat_carcasses
			WHERE id = $1 AND status = $2
		`, item.CarcassID, CarcassInStock).Scan(&breed, &price)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to quote carcass %d: %w", item.CarcassID, err)
		}
		return &Quote{DisplayName: breed, UnitPrice: price, Unit: "carcass", Available: decimal.NewFromInt(1)}, nil

	case OrderGrain, OrderHay:
		var f FeedStock
		err := s.pool.QueryRow(ctx, `
			SELECT product_type, unit, current_quantity, price_per_unit
			FROM storage
			WHERE product_type = $1 AND feed_category = $2 AND current_quantity > 0
		`, item.ProductType, orderType.FeedCategory()).Scan(&f.ProductType, &f.Unit, &f.CurrentQuantity, &f.PricePerUnit)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to quote feed %q: %w", item.ProductType, err)
		}
		return &Quote{DisplayName: f.ProductType, UnitPrice: f.PricePerUnit, Unit: f.Unit, Available: f.CurrentQuantity}, nil

	default:
		return nil, &InvalidInputError{Field: "order_type", Reason: fmt.Sprintf("unknown order type %q", orderType)}
	}
}

// ── TX-scoped primitives ──────────────────────────────────────────────────────

// DebitFeedTx decrements a feed line inside the caller's TX. The availability
// check lives in the UPDATE predicate, so it holds at commit time: a competing
// debit that drained the line first leaves this UPDATE matching zero rows.
func (s *inventoryService) DebitFeedTx(ctx context.Context, tx pgx.Tx, productType string, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return &InvalidInputError{Field: "quantity", Reason: "must be greater than zero"}
	}
	tag, err := tx.Exec(ctx, `
		UPDATE storage
		SET current_quantity = current_quantity - $1, last_updated = NOW()
		WHERE product_type = $2 AND current_quantity >= $1
	`, qty, productType)
	if err != nil {
		return fmt.Errorf("failed to debit feed %q: %w", productType, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// MarkAnimalSoldTx flips an animal ready_for_slaughter → sold with
// compare-and-set semantics: zero matched rows means the animal was sold
// (or re-statused) by a concurrent transaction.
func (s *inventoryService) MarkAnimalSoldTx(ctx context.Context, tx pgx.Tx, animalID int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE animals
		SET status = $1
		WHERE id = $2 AND status = $3
	`, AnimalSold, animalID, AnimalReadyForSlaughter)
	if err != nil {
		return fmt.Errorf("failed to mark animal %d sold: %w", animalID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// MarkCarcassSoldTx flips a carcass in_stock → sold, CAS semantics as above.
func (s *inventoryService) MarkCarcassSoldTx(ctx context.Context, tx pgx.Tx, carcassID int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE meat_carcasses
		SET status = $1
		WHERE id = $2 AND status = $3
	`, CarcassSold, carcassID, CarcassInStock)
	if err != nil {
		return fmt.Errorf("failed to mark carcass %d sold: %w", carcassID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// ── Staff stock management ────────────────────────────────────────────────────

func (s *inventoryService) GetFeedStock(ctx context.Context) ([]FeedStock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+feedColumns+`
		FROM storage
		ORDER BY feed_category, product_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage: %w", err)
	}
	defer rows.Close()

	var lines []FeedStock
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed line: %w", err)
		}
		lines = append(lines, *f)
	}
	return lines, rows.Err()
}

func (s *inventoryService) CreateFeedType(ctx context.Context, productType string, category FeedCategory, unit string, minQty, pricePerUnit decimal.Decimal) (*FeedStock, error) {
	if productType == "" {
		return nil, &InvalidInputError{Field: "product_type", Reason: "must not be empty"}
	}
	if minQty.IsNegative() || pricePerUnit.IsNegative() {
		return nil, &InvalidInputError{Field: "quantity", Reason: "thresholds and prices cannot be negative"}
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO storage (product_type, feed_category, unit, current_quantity, min_quantity, price_per_unit)
		VALUES ($1, $2, $3, 0, $4, $5)
		ON CONFLICT (product_type) DO NOTHING
		RETURNING `+feedColumns+`
	`, productType, category, unit, minQty, pricePerUnit)

	f, err := scanFeed(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &InvalidInputError{Field: "product_type", Reason: fmt.Sprintf("feed type %q already exists", productType)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create feed type %q: %w", productType, err)
	}
	return f, nil
}

func (s *inventoryService) ReceiveFeed(ctx context.Context, productType string, qty decimal.Decimal) (*FeedStock, error) {
	if !qty.IsPositive() {
		return nil, &InvalidInputError{Field: "quantity", Reason: "must be greater than zero"}
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE storage
		SET current_quantity = current_quantity + $1, last_updated = NOW()
		WHERE product_type = $2
		RETURNING `+feedColumns+`
	`, qty, productType)

	f, err := scanFeed(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to receive feed %q: %w", productType, err)
	}
	return f, nil
}

func (s *inventoryService) SetFeedQuantity(ctx context.Context, productType string, qty decimal.Decimal) (*FeedStock, error) {
	if qty.IsNegative() {
		return nil, &InvalidInputError{Field: "quantity", Reason: "cannot be negative"}
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE storage
		SET current_quantity = $1, last_updated = NOW()
		WHERE product_type = $2
		RETURNING `+feedColumns+`
	`, qty, productType)

	f, err := scanFeed(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set feed quantity for %q: %w", productType, err)
	}
	return f, nil
}

// RecordFeedConsumption journals an internal usage debit (feeding the herd).
// It shares the conditional-decrement discipline with sales debits: the stock
// check and the decrement are one statement inside one transaction.
func (s *inventoryService) RecordFeedConsumption(ctx context.Context, c FeedConsumption) error {
	if !c.Quantity.IsPositive() {
		return &InvalidInputError{Field: "quantity", Reason: "must be greater than zero"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.DebitFeedTx(ctx, tx, c.ProductType, c.Quantity); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO feed_consumption (product_type, quantity, purpose, animal_id, consumption_date, recorded_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ProductType, c.Quantity, c.Purpose, c.AnimalID, c.ConsumptionDate, c.RecordedBy, c.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert feed consumption: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit feed consumption: %w", err)
	}
	return nil
}
