package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/app"
	"github.com/nurs7132/agroFarm/internal/core"
)

// OrderAPI is the slice of the application service the conversation needs.
// app.ApplicationService satisfies it; tests substitute a fake.
type OrderAPI interface {
	Catalog(ctx context.Context) (*app.CatalogResult, error)
	QuoteItem(ctx context.Context, orderType core.OrderType, item core.ItemRef) (*core.Quote, error)
	PlaceOrder(ctx context.Context, in core.PlaceOrderInput) (*core.Order, error)
	FindCustomerOrders(ctx context.Context, customerName, phone string) ([]core.Order, error)
}

// Reply is what the flow wants sent back to the chat.
type Reply struct {
	Text     string
	Keyboard *InlineKeyboardMarkup
}

// Callback data prefixes.
const (
	cbCategory = "cat:"
	cbAnimal   = "animal:"
	cbCarcass  = "carcass:"
	cbFeed     = "feed:"
	cbMyOrders = "my_orders"
	cbRestart  = "restart"
)

// Flow is the ordering conversation state machine. It owns no I/O: the
// handler feeds it updates and sends whatever Reply it returns, so the whole
// flow is unit-testable against a fake OrderAPI.
type Flow struct {
	api OrderAPI
}

func NewFlow(api OrderAPI) *Flow {
	return &Flow{api: api}
}

func categoryMenu() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		Row(Btn("Live animals", cbCategory+string(core.OrderLiveAnimal))),
		Row(Btn("Meat carcasses", cbCategory+string(core.OrderCarcass))),
		Row(Btn("Grain", cbCategory+string(core.OrderGrain)), Btn("Hay", cbCategory+string(core.OrderHay))),
		Row(Btn("My orders", cbMyOrders)),
	}}
}

func restartMenu() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		Row(Btn("Back to catalog", cbRestart)),
	}}
}

// Start handles /start: reset the conversation and show the catalog menu.
func (f *Flow) Start(sess *Session) Reply {
	*sess = Session{State: StateSelectingCategory}
	return Reply{
		Text:     "Welcome to the farm shop. What would you like to order?",
		Keyboard: categoryMenu(),
	}
}

// HandleCallback processes an inline button press.
func (f *Flow) HandleCallback(ctx context.Context, sess *Session, data string) Reply {
	switch {
	case data == cbRestart:
		return f.Start(sess)

	case data == cbMyOrders:
		*sess = Session{State: StateMyOrdersName}
		return Reply{Text: "Please enter the name you ordered under."}

	case strings.HasPrefix(data, cbCategory):
		return f.showCategory(ctx, sess, core.OrderType(strings.TrimPrefix(data, cbCategory)))

	case strings.HasPrefix(data, cbAnimal):
		id, err := strconv.Atoi(strings.TrimPrefix(data, cbAnimal))
		if err != nil {
			return f.Start(sess)
		}
		return f.selectItem(ctx, sess, core.OrderLiveAnimal, core.ItemRef{AnimalID: id})

	case strings.HasPrefix(data, cbCarcass):
		id, err := strconv.Atoi(strings.TrimPrefix(data, cbCarcass))
		if err != nil {
			return f.Start(sess)
		}
		return f.selectItem(ctx, sess, core.OrderCarcass, core.ItemRef{CarcassID: id})

	case strings.HasPrefix(data, cbFeed):
		if sess.OrderType != core.OrderGrain && sess.OrderType != core.OrderHay {
			return f.Start(sess)
		}
		return f.selectItem(ctx, sess, sess.OrderType, core.ItemRef{ProductType: strings.TrimPrefix(data, cbFeed)})

	default:
		return f.Start(sess)
	}
}

func (f *Flow) showCategory(ctx context.Context, sess *Session, orderType core.OrderType) Reply {
	catalog, err := f.api.Catalog(ctx)
	if err != nil {
		return Reply{Text: "The shop is temporarily unavailable, please try again later.", Keyboard: restartMenu()}
	}

	var rows [][]InlineKeyboardButton
	switch orderType {
	case core.OrderLiveAnimal:
		for _, a := range catalog.Animals {
			label := fmt.Sprintf("%s, %s kg — %s", a.DisplayName(), a.CurrentWeight.String(), a.Price.String())
			rows = append(rows, Row(Btn(label, cbAnimal+strconv.Itoa(a.ID))))
		}
	case core.OrderCarcass:
		for _, c := range catalog.Carcasses {
			label := fmt.Sprintf("%s, %s kg — %s", c.Breed, c.CarcassWeight.String(), c.Price.String())
			rows = append(rows, Row(Btn(label, cbCarcass+strconv.Itoa(c.ID))))
		}
	case core.OrderGrain, core.OrderHay:
		lines := catalog.Grain
		if orderType == core.OrderHay {
			lines = catalog.Hay
		}
		for _, l := range lines {
			label := fmt.Sprintf("%s — %s per %s", l.ProductType, l.PricePerUnit.String(), l.Unit)
			rows = append(rows, Row(Btn(label, cbFeed+l.ProductType)))
		}
	default:
		return f.Start(sess)
	}

	if len(rows) == 0 {
		return Reply{Text: "Nothing is available in this category right now.", Keyboard: restartMenu()}
	}

	sess.State = StateSelectingItem
	sess.OrderType = orderType
	rows = append(rows, Row(Btn("« Back", cbRestart)))
	return Reply{Text: "Please choose:", Keyboard: &InlineKeyboardMarkup{InlineKeyboard: rows}}
}

func (f *Flow) selectItem(ctx context.Context, sess *Session, orderType core.OrderType, item core.ItemRef) Reply {
	quote, err := f.api.QuoteItem(ctx, orderType, item)
	if errors.Is(err, core.ErrNotFound) {
		return Reply{Text: "That item was just sold. Please pick another.", Keyboard: restartMenu()}
	}
	if err != nil {
		return Reply{Text: "The shop is temporarily unavailable, please try again later.", Keyboard: restartMenu()}
	}

	sess.OrderType = orderType
	sess.Item = item
	sess.ItemLabel = quote.DisplayName
	sess.UnitPrice = quote.UnitPrice
	sess.Unit = quote.Unit
	sess.Quantity = decimal.NewFromInt(1)

	if orderType.IsUnique() {
		sess.State = StateEnteringName
		return Reply{Text: fmt.Sprintf("%s — %s.\nPlease enter your name.", quote.DisplayName, quote.UnitPrice.String())}
	}

	sess.State = StateEnteringQuantity
	return Reply{Text: fmt.Sprintf("%s — %s per %s, %s %s available.\nHow much would you like (%s)?",
		quote.DisplayName, quote.UnitPrice.String(), quote.Unit, quote.Available.String(), quote.Unit, quote.Unit)}
}

// HandleText processes a free-text message according to the current state.
func (f *Flow) HandleText(ctx context.Context, sess *Session, from User, text string) Reply {
	text = strings.TrimSpace(text)
	if text == "/start" {
		return f.Start(sess)
	}

	switch sess.State {
	case StateEnteringQuantity:
		qty, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
		if err != nil || !qty.IsPositive() {
			return Reply{Text: "Please enter a positive number."}
		}
		sess.Quantity = qty
		sess.State = StateEnteringName
		return Reply{Text: "Please enter your name."}

	case StateEnteringName:
		name, err := core.ValidateCustomerName(text)
		if err != nil {
			return Reply{Text: "The name must be at least 2 characters. Please try again."}
		}
		sess.CustomerName = name
		sess.State = StateEnteringPhone
		return Reply{Text: "Please enter your phone number."}

	case StateEnteringPhone:
		return f.placeOrder(ctx, sess, from, text)

	case StateMyOrdersName:
		name, err := core.ValidateCustomerName(text)
		if err != nil {
			return Reply{Text: "The name must be at least 2 characters. Please try again."}
		}
		sess.CustomerName = name
		sess.State = StateMyOrdersPhone
		return Reply{Text: "Please enter your phone number."}

	case StateMyOrdersPhone:
		return f.listMyOrders(ctx, sess, text)

	default:
		return f.Start(sess)
	}
}

func (f *Flow) placeOrder(ctx context.Context, sess *Session, from User, phone string) Reply {
	order, err := f.api.PlaceOrder(ctx, core.PlaceOrderInput{
		CustomerName:     sess.CustomerName,
		Phone:            phone,
		TelegramUsername: from.Username,
		OrderType:        sess.OrderType,
		Item:             sess.Item,
		Quantity:         sess.Quantity,
		Origin:           core.Origin{UserAgent: "telegram"},
	})

	switch {
	case err == nil:
		text := fmt.Sprintf("Order #%d placed: %s x%s, total %s.\nWe will contact you shortly.",
			order.ID, order.ProductName, order.Quantity.String(), order.TotalPrice.String())
		*sess = Session{State: StateIdle}
		return Reply{Text: text, Keyboard: restartMenu()}

	case core.IsInvalidInput(err):
		return Reply{Text: "That phone number does not look right, it needs at least 10 digits. Please try again."}

	case errors.Is(err, core.ErrInsufficientStock):
		sess.State = StateEnteringQuantity
		return Reply{Text: fmt.Sprintf("Not enough %s in stock for that quantity. Please enter a smaller amount (%s).", sess.ItemLabel, sess.Unit)}

	case errors.Is(err, core.ErrStaleState), errors.Is(err, core.ErrNotFound):
		reply := f.Start(sess)
		reply.Text = "Unfortunately that item was just sold. " + reply.Text
		return reply

	default:
		*sess = Session{State: StateIdle}
		return Reply{Text: "Something went wrong, please try again later.", Keyboard: restartMenu()}
	}
}

func (f *Flow) listMyOrders(ctx context.Context, sess *Session, phone string) Reply {
	orders, err := f.api.FindCustomerOrders(ctx, sess.CustomerName, phone)
	if core.IsInvalidInput(err) {
		return Reply{Text: "That phone number does not look right, it needs at least 10 digits. Please try again."}
	}
	*sess = Session{State: StateIdle}
	if err != nil {
		return Reply{Text: "Something went wrong, please try again later.", Keyboard: restartMenu()}
	}
	if len(orders) == 0 {
		return Reply{Text: "No orders found for that name and phone.", Keyboard: restartMenu()}
	}

	var b strings.Builder
	b.WriteString("Your orders:\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "#%d %s x%s — %s (%s)\n",
			o.ID, o.ProductName, o.Quantity.String(), o.TotalPrice.String(), o.Status)
	}
	return Reply{Text: b.String(), Keyboard: restartMenu()}
}
