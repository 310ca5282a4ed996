package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurs7132/agroFarm/internal/core"
)

// State is the current step of one ordering conversation.
type State string

const (
	StateIdle              State = "idle"
	StateSelectingCategory State = "selecting_category"
	StateSelectingItem     State = "selecting_item"
	StateEnteringQuantity  State = "entering_quantity"
	StateEnteringName      State = "entering_name"
	StateEnteringPhone     State = "entering_phone"
	StateMyOrdersName      State = "my_orders_name"
	StateMyOrdersPhone     State = "my_orders_phone"
)

// Session is the conversation state for one chat. The order draft accumulates
// as the customer walks through the flow and is discarded on completion,
// cancellation, or expiry.
type Session struct {
	State        State
	OrderType    core.OrderType
	Item         core.ItemRef
	ItemLabel    string
	UnitPrice    decimal.Decimal
	Unit         string
	Quantity     decimal.Decimal
	CustomerName string
	UpdatedAt    time.Time
}

const sessionTTL = 30 * time.Minute

// SessionStore keeps per-chat conversations. The mutex guards conversation
// state only; inventory consistency is the store's transactions, never this lock.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get returns the chat's session, creating an idle one if absent or expired.
func (s *SessionStore) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok || time.Since(sess.UpdatedAt) > sessionTTL {
		sess = &Session{State: StateIdle, UpdatedAt: time.Now()}
		s.sessions[chatID] = sess
	}
	return sess
}

// Put stores the chat's session with a refreshed timestamp.
func (s *SessionStore) Put(chatID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedAt = time.Now()
	s.sessions[chatID] = sess
}

// Clear resets the chat back to idle.
func (s *SessionStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// StartPurge removes expired sessions periodically until ctx is cancelled.
func (s *SessionStore) StartPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purgeExpired()
			}
		}
	}()
}

func (s *SessionStore) purgeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chatID, sess := range s.sessions {
		if time.Since(sess.UpdatedAt) > sessionTTL {
			delete(s.sessions, chatID)
		}
	}
}
