package telegram

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/app"
	"github.com/nurs7132/agroFarm/internal/core"
)

type fakeAPI struct {
	catalog    app.CatalogResult
	quoteErr   error
	placeErr   error
	placed     []core.PlaceOrderInput
	nextID     int
	custOrders []core.Order
}

func (f *fakeAPI) Catalog(ctx context.Context) (*app.CatalogResult, error) {
	return &f.catalog, nil
}

func (f *fakeAPI) QuoteItem(ctx context.Context, orderType core.OrderType, item core.ItemRef) (*core.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	switch orderType {
	case core.OrderLiveAnimal:
		return &core.Quote{DisplayName: "Borat", UnitPrice: decimal.NewFromInt(500000), Unit: "head", Available: decimal.NewFromInt(1)}, nil
	case core.OrderCarcass:
		return &core.Quote{DisplayName: "Angus", UnitPrice: decimal.NewFromInt(405000), Unit: "carcass", Available: decimal.NewFromInt(1)}, nil
	default:
		return &core.Quote{DisplayName: item.ProductType, UnitPrice: decimal.NewFromInt(150), Unit: "kg", Available: decimal.NewFromInt(2000)}, nil
	}
}

func (f *fakeAPI) PlaceOrder(ctx context.Context, in core.PlaceOrderInput) (*core.Order, error) {
	if f.placeErr != nil {
		err := f.placeErr
		f.placeErr = nil
		return nil, err
	}
	name, err := core.ValidateCustomerName(in.CustomerName)
	if err != nil {
		return nil, err
	}
	phone, err := core.NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	in.CustomerName = name
	in.Phone = phone
	f.placed = append(f.placed, in)
	f.nextID++
	qty := in.Quantity
	if in.OrderType.IsUnique() {
		qty = decimal.NewFromInt(1)
	}
	return &core.Order{
		ID:          f.nextID,
		ProductName: "barley",
		Quantity:    qty,
		TotalPrice:  decimal.NewFromInt(150).Mul(qty),
		Status:      core.OrderNew,
	}, nil
}

func (f *fakeAPI) FindCustomerOrders(ctx context.Context, customerName, phone string) ([]core.Order, error) {
	if _, err := core.NormalizePhone(phone); err != nil {
		return nil, err
	}
	return f.custOrders, nil
}

func barleyCatalog() app.CatalogResult {
	return app.CatalogResult{
		Grain: []core.FeedStock{{
			ProductType:     "barley",
			Category:        core.FeedGrain,
			Unit:            "kg",
			CurrentQuantity: decimal.NewFromInt(2000),
			PricePerUnit:    decimal.NewFromInt(150),
		}},
	}
}

func TestFlow_BulkOrderHappyPath(t *testing.T) {
	api := &fakeAPI{catalog: barleyCatalog()}
	flow := NewFlow(api)
	sess := &Session{State: StateIdle}
	ctx := context.Background()
	from := User{ID: 1, Username: "aslan_kz"}

	reply := flow.Start(sess)
	if sess.State != StateSelectingCategory || reply.Keyboard == nil {
		t.Fatalf("Start: state %s, keyboard %v", sess.State, reply.Keyboard)
	}

	reply = flow.HandleCallback(ctx, sess, cbCategory+string(core.OrderGrain))
	if sess.State != StateSelectingItem {
		t.Fatalf("after category: state %s", sess.State)
	}

	reply = flow.HandleCallback(ctx, sess, cbFeed+"barley")
	if sess.State != StateEnteringQuantity {
		t.Fatalf("after item: state %s", sess.State)
	}
	if !strings.Contains(reply.Text, "barley") {
		t.Errorf("quantity prompt should name the item, got %q", reply.Text)
	}

	reply = flow.HandleText(ctx, sess, from, "1000")
	if sess.State != StateEnteringName {
		t.Fatalf("after quantity: state %s", sess.State)
	}

	reply = flow.HandleText(ctx, sess, from, "Aslan")
	if sess.State != StateEnteringPhone {
		t.Fatalf("after name: state %s", sess.State)
	}

	reply = flow.HandleText(ctx, sess, from, "87051234567")
	if sess.State != StateIdle {
		t.Fatalf("after phone: state %s", sess.State)
	}
	if !strings.Contains(reply.Text, "Order #1 placed") {
		t.Errorf("expected confirmation, got %q", reply.Text)
	}

	if len(api.placed) != 1 {
		t.Fatalf("expected 1 placed order, got %d", len(api.placed))
	}
	placed := api.placed[0]
	if placed.Phone != "+77051234567" {
		t.Errorf("expected normalized phone, got %q", placed.Phone)
	}
	if placed.TelegramUsername != "aslan_kz" {
		t.Errorf("expected telegram username carried, got %q", placed.TelegramUsername)
	}
	if !placed.Quantity.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected quantity 1000, got %s", placed.Quantity)
	}
}

func TestFlow_RePromptBranches(t *testing.T) {
	ctx := context.Background()
	from := User{ID: 1}

	t.Run("invalid quantity", func(t *testing.T) {
		flow := NewFlow(&fakeAPI{catalog: barleyCatalog()})
		sess := &Session{State: StateEnteringQuantity, OrderType: core.OrderGrain, Item: core.ItemRef{ProductType: "barley"}}

		for _, input := range []string{"abc", "-5", "0"} {
			flow.HandleText(ctx, sess, from, input)
			if sess.State != StateEnteringQuantity {
				t.Fatalf("input %q should re-prompt quantity, state %s", input, sess.State)
			}
		}
		flow.HandleText(ctx, sess, from, "12,5")
		if sess.State != StateEnteringName {
			t.Fatalf("comma decimal should be accepted, state %s", sess.State)
		}
		if !sess.Quantity.Equal(decimal.RequireFromString("12.5")) {
			t.Errorf("expected 12.5, got %s", sess.Quantity)
		}
	})

	t.Run("short name re-prompts", func(t *testing.T) {
		flow := NewFlow(&fakeAPI{})
		sess := &Session{State: StateEnteringName}
		flow.HandleText(ctx, sess, from, "A")
		if sess.State != StateEnteringName {
			t.Fatalf("short name should re-prompt, state %s", sess.State)
		}
	})

	t.Run("bad phone re-prompts", func(t *testing.T) {
		flow := NewFlow(&fakeAPI{})
		sess := &Session{State: StateEnteringPhone, CustomerName: "Aslan", OrderType: core.OrderGrain, Quantity: decimal.NewFromInt(10)}
		reply := flow.HandleText(ctx, sess, from, "12345")
		if sess.State != StateEnteringPhone {
			t.Fatalf("bad phone should re-prompt, state %s", sess.State)
		}
		if !strings.Contains(reply.Text, "10 digits") {
			t.Errorf("re-prompt should explain the rule, got %q", reply.Text)
		}
	})

	t.Run("insufficient stock returns to quantity", func(t *testing.T) {
		flow := NewFlow(&fakeAPI{placeErr: core.ErrInsufficientStock})
		sess := &Session{
			State: StateEnteringPhone, CustomerName: "Aslan",
			OrderType: core.OrderGrain, ItemLabel: "barley", Unit: "kg",
			Quantity: decimal.NewFromInt(5000),
		}
		flow.HandleText(ctx, sess, from, "87051234567")
		if sess.State != StateEnteringQuantity {
			t.Fatalf("insufficient stock should return to quantity entry, state %s", sess.State)
		}
	})

	t.Run("stale item restarts selection", func(t *testing.T) {
		flow := NewFlow(&fakeAPI{placeErr: core.ErrStaleState})
		sess := &Session{
			State: StateEnteringPhone, CustomerName: "Aslan",
			OrderType: core.OrderLiveAnimal, Item: core.ItemRef{AnimalID: 7},
		}
		reply := flow.HandleText(ctx, sess, from, "87051234567")
		if sess.State != StateSelectingCategory {
			t.Fatalf("stale item should restart, state %s", sess.State)
		}
		if !strings.Contains(reply.Text, "just sold") {
			t.Errorf("restart message should explain, got %q", reply.Text)
		}
	})
}

func TestFlow_SelectSoldItem(t *testing.T) {
	flow := NewFlow(&fakeAPI{quoteErr: core.ErrNotFound})
	sess := &Session{State: StateSelectingItem, OrderType: core.OrderLiveAnimal}

	reply := flow.HandleCallback(context.Background(), sess, cbAnimal+"7")
	if !strings.Contains(reply.Text, "just sold") {
		t.Errorf("expected sold notice, got %q", reply.Text)
	}
	if reply.Keyboard == nil {
		t.Error("expected a way back to the catalog")
	}
}

func TestFlow_MyOrders(t *testing.T) {
	api := &fakeAPI{custOrders: []core.Order{{
		ID: 42, ProductName: "barley", Quantity: decimal.NewFromInt(100),
		TotalPrice: decimal.NewFromInt(15000), Status: core.OrderNew,
	}}}
	flow := NewFlow(api)
	sess := &Session{State: StateSelectingCategory}
	ctx := context.Background()
	from := User{ID: 1}

	flow.HandleCallback(ctx, sess, cbMyOrders)
	if sess.State != StateMyOrdersName {
		t.Fatalf("expected name prompt, state %s", sess.State)
	}

	flow.HandleText(ctx, sess, from, "Aslan")
	if sess.State != StateMyOrdersPhone {
		t.Fatalf("expected phone prompt, state %s", sess.State)
	}

	reply := flow.HandleText(ctx, sess, from, "87051234567")
	if sess.State != StateIdle {
		t.Fatalf("expected reset, state %s", sess.State)
	}
	if !strings.Contains(reply.Text, "#42") {
		t.Errorf("expected order listing, got %q", reply.Text)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore()
	sess := store.Get(1)
	sess.State = StateEnteringName
	store.Put(1, sess)

	if got := store.Get(1); got.State != StateEnteringName {
		t.Fatalf("expected stored state, got %s", got.State)
	}

	// Age the session past the TTL; the next Get starts fresh.
	store.mu.Lock()
	store.sessions[1].UpdatedAt = store.sessions[1].UpdatedAt.Add(-sessionTTL - 1)
	store.mu.Unlock()

	if got := store.Get(1); got.State != StateIdle {
		t.Fatalf("expected fresh session after expiry, got %s", got.State)
	}
}
