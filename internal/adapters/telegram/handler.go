package telegram

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler receives Bot API webhook updates, drives the conversation flow,
// and sends the replies. Each update is acknowledged with 200 regardless of
// processing outcome; Telegram retries on anything else and the flow already
// reports failures to the user in-band.
type Handler struct {
	flow          *Flow
	client        Client
	sessions      *SessionStore
	webhookSecret string
	logger        *zap.Logger
}

func NewHandler(flow *Flow, client Client, sessions *SessionStore, webhookSecret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		flow:          flow,
		client:        client,
		sessions:      sessions,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// ServeHTTP handles POST <webhook path>. The secret token header is the
// only authentication Telegram offers for webhooks.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != h.webhookSecret {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("malformed webhook update", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	h.handleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleUpdate(ctx context.Context, update Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if err := h.client.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		h.logger.Warn("failed to answer callback query", zap.Error(err))
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	sess := h.sessions.Get(chatID)
	reply := h.flow.HandleCallback(ctx, sess, cb.Data)
	h.sessions.Put(chatID, sess)

	// Edit the menu message in place; fall back to a fresh message if the
	// original is too old to edit.
	if err := h.client.EditMessageText(ctx, chatID, cb.Message.MessageID, reply.Text, reply.Keyboard); err != nil {
		h.logger.Debug("edit failed, sending new message", zap.Error(err))
		h.send(ctx, chatID, reply)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	var from User
	if msg.From != nil {
		from = *msg.From
	}

	sess := h.sessions.Get(chatID)
	reply := h.flow.HandleText(ctx, sess, from, msg.Text)
	h.sessions.Put(chatID, sess)

	h.send(ctx, chatID, reply)
}

func (h *Handler) send(ctx context.Context, chatID int64, reply Reply) {
	if reply.Text == "" {
		return
	}
	if err := h.client.SendMessage(ctx, chatID, reply.Text, reply.Keyboard); err != nil {
		h.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
