package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService is the order coordinator. PlaceOrder is the only way an order
// comes into existence: the order row, its inventory side effect, and the
// audit record commit in one transaction or not at all.
type OrderService interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error)

	GetOrders(ctx context.Context, status OrderStatus) ([]Order, error)
	GetOrder(ctx context.Context, id int) (*Order, error)
	CountByStatus(ctx context.Context) (map[OrderStatus]int, error)

	// FindCustomerOrders looks up a customer's orders by name and phone,
	// the pair the bot collects during the conversation.
	FindCustomerOrders(ctx context.Context, customerName, phone string) ([]Order, error)

	UpdateStatus(ctx context.Context, id int, next OrderStatus, actor AuditEntry) (*Order, error)
	UpdateNotes(ctx context.Context, id int, notes string) (*Order, error)
	DeleteOrder(ctx context.Context, id int, actor AuditEntry) error
}

type orderService struct {
	pool      *pgxpool.Pool
	inventory InventoryService
	audit     AuditService
	logger    *zap.Logger
}

func NewOrderService(pool *pgxpool.Pool, inventory InventoryService, audit AuditService, logger *zap.Logger) OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderService{pool: pool, inventory: inventory, audit: audit, logger: logger}
}

const orderColumns = `
	id, customer_name, phone, telegram_username, order_type, product_id, product_name,
	quantity, price, total_price, status, notes, created_at, updated_at, created_by
`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.Phone, &o.TelegramUsername, &o.OrderType,
		&o.ProductID, &o.ProductName, &o.Quantity, &o.Price, &o.TotalPrice, &o.Status,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// PlaceOrder validates the customer input, then runs the placement
// transaction: read the item's current price, insert the order row, apply the
// inventory mutation, and append the audit record. The inventory mutation is
// a conditional UPDATE, so availability is enforced at commit time; when two
// placements race over a unique item, exactly one commits and the other gets
// ErrStaleState with its order row rolled back.
func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	name, err := ValidateCustomerName(in.CustomerName)
	if err != nil {
		return nil, err
	}
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	if in.OrderType.IsUnique() {
		in.Quantity = decimal.NewFromInt(1)
	} else if !in.Quantity.IsPositive() {
		return nil, &InvalidInputError{Field: "quantity", Reason: "must be greater than zero"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	productID, productName, unitPrice, err := s.quoteTx(ctx, tx, in.OrderType, in.Item)
	if err != nil {
		return nil, err
	}
	totalPrice := unitPrice.Mul(in.Quantity)

	var username *string
	if in.TelegramUsername != "" {
		username = &in.TelegramUsername
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO orders
		(customer_name, phone, telegram_username, order_type, product_id, product_name,
		 quantity, price, total_price, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+orderColumns+`
	`, name, phone, username, in.OrderType, productID, productName,
		in.Quantity, unitPrice, totalPrice, OrderNew, in.ActorID)

	order, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	switch in.OrderType {
	case OrderLiveAnimal:
		err = s.inventory.MarkAnimalSoldTx(ctx, tx, in.Item.AnimalID)
	case OrderCarcass:
		err = s.inventory.MarkCarcassSoldTx(ctx, tx, in.Item.CarcassID)
	default:
		err = s.inventory.DebitFeedTx(ctx, tx, in.Item.ProductType, in.Quantity)
	}
	if err != nil {
		return nil, err
	}

	actorName := in.ActorName
	if actorName == "" {
		actorName = "telegram_bot"
	}
	auditErr := s.audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     in.ActorID,
		Username:   actorName,
		Action:     ActionCreate,
		EntityType: "order",
		EntityID:   &order.ID,
		EntityName: productName,
		Details:    fmt.Sprintf("%s x%s for %s (%s)", productName, in.Quantity.String(), name, phone),
		IPAddress:  in.Origin.IP,
		UserAgent:  in.Origin.UserAgent,
	})
	if auditErr != nil {
		return nil, auditErr
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order placement: %w", err)
	}

	s.logger.Info("order placed",
		zap.Int("order_id", order.ID),
		zap.String("order_type", string(order.OrderType)),
		zap.String("product", order.ProductName),
		zap.String("total_price", order.TotalPrice.String()))
	return order, nil
}

// quoteTx resolves the ordered item's identity and unit price inside the
// placement transaction. A plain read is enough here: the conditional UPDATE
// that follows is what guards against concurrent state changes.
func (s *orderService) quoteTx(ctx context.Context, tx pgx.Tx, orderType OrderType, item ItemRef) (*int, string, decimal.Decimal, error) {
	switch orderType {
	case OrderLiveAnimal:
		var a Animal
		err := tx.QueryRow(ctx, `
			SELECT id, COALESCE(name, ''), breed, price
			FROM animals
			WHERE id = $1 AND status = $2 AND price IS NOT NULL
		`, item.AnimalID, AnimalReadyForSlaughter).Scan(&a.ID, &a.Name, &a.Breed, &a.Price)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", decimal.Zero, ErrNotFound
		}
		if err != nil {
			return nil, "", decimal.Zero, fmt.Errorf("failed to read animal %d: %w", item.AnimalID, err)
		}
		return &a.ID, a.DisplayName(), *a.Price, nil

	case OrderCarcass:
		var id int
		var breed string
		var price decimal.Decimal
		err := tx.QueryRow(ctx, `
			SELECT id, breed, price
			FROM meat_carcasses
			WHERE id = $1 AND status = $2
		`, item.CarcassID, CarcassInStock).Scan(&id, &breed, &price)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", decimal.Zero, ErrNotFound
		}
		if err != nil {
			return nil, "", decimal.Zero, fmt.Errorf("failed to read carcass %d: %w", item.CarcassID, err)
		}
		return &id, breed, price, nil

	case OrderGrain, OrderHay:
		var id int
		var price decimal.Decimal
		err := tx.QueryRow(ctx, `
			SELECT id, price_per_unit
			FROM storage
			WHERE product_type = $1 AND feed_category = $2
		`, item.ProductType, orderType.FeedCategory()).Scan(&id, &price)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", decimal.Zero, ErrNotFound
		}
		if err != nil {
			return nil, "", decimal.Zero, fmt.Errorf("failed to read feed %q: %w", item.ProductType, err)
		}
		return &id, item.ProductType, price, nil

	default:
		return nil, "", decimal.Zero, &InvalidInputError{Field: "order_type", Reason: fmt.Sprintf("unknown order type %q", orderType)}
	}
}

func (s *orderService) GetOrders(ctx context.Context, status OrderStatus) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *orderService) GetOrder(ctx context.Context, id int) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order %d: %w", id, err)
	}
	return o, nil
}

func (s *orderService) CountByStatus(ctx context.Context) (map[OrderStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[OrderStatus]int)
	for rows.Next() {
		var status OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// FindCustomerOrders matches on normalized phone plus case-insensitive name,
// the same identity the customer typed when ordering.
func (s *orderService) FindCustomerOrders(ctx context.Context, customerName, phone string) ([]Order, error) {
	name, err := ValidateCustomerName(customerName)
	if err != nil {
		return nil, err
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE phone = $1 AND LOWER(customer_name) = LOWER($2)
		ORDER BY created_at DESC
	`, normalized, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// UpdateStatus advances an order along the allowed transitions. The guard is
// part of the UPDATE predicate, so a concurrent update cannot sneak an order
// backwards: zero matched rows on an existing order means the stored status
// changed underneath us.
func (s *orderService) UpdateStatus(ctx context.Context, id int, next OrderStatus, actor AuditEntry) (*Order, error) {
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, &InvalidInputError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot change order status from %s to %s", current.Status, next),
		}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+orderColumns+`
	`, next, id, current.Status)

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStaleState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d status: %w", id, err)
	}

	actor.Action = ActionUpdate
	actor.EntityType = "order"
	actor.EntityID = &id
	actor.EntityName = o.ProductName
	actor.Details = fmt.Sprintf("status %s -> %s", current.Status, next)
	s.audit.Record(ctx, actor)
	return o, nil
}

func (s *orderService) UpdateNotes(ctx context.Context, id int, notes string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE orders
		SET notes = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+orderColumns+`
	`, notes, id)

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d notes: %w", id, err)
	}
	return o, nil
}

// DeleteOrder is an admin-only correction for records created in error.
// It does not restore inventory; that is a separate deliberate staff action.
func (s *orderService) DeleteOrder(ctx context.Context, id int, actor AuditEntry) error {
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	actor.Action = ActionDelete
	actor.EntityType = "order"
	actor.EntityID = &id
	actor.EntityName = current.ProductName
	actor.Details = fmt.Sprintf("deleted order for %s (%s)", current.CustomerName, current.Phone)
	s.audit.Record(ctx, actor)
	return nil
}
