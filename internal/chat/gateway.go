package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/payoutpilot/mentorchat/internal/domain"
)

const (
	defaultHistoryLimit = 50
	defaultStoreTimeout = 5 * time.Second
)

// MessageStore is the persistence contract the gateway depends on.
type MessageStore interface {
	Append(ctx context.Context, message domain.ChatMessage) (domain.StoredMessage, error)
	Recent(ctx context.Context, roomID string, limit int) ([]domain.StoredMessage, error)
}

// Gateway binds a participant's live connection to domain events: room
// membership in the registry, message persistence, and relay of results
// back to connected participants. Handler failures are isolated per event;
// nothing here is fatal to the process.
type Gateway struct {
	registry     *Registry
	store        MessageStore
	historyLimit int
	storeTimeout time.Duration
}

func NewGateway(registry *Registry, store MessageStore, historyLimit int, storeTimeout time.Duration) *Gateway {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}

	return &Gateway{
		registry:     registry,
		store:        store,
		historyLimit: historyLimit,
		storeTimeout: storeTimeout,
	}
}

func (g *Gateway) Registry() *Registry {
	return g.registry
}

// HandleJoin registers the session in the room, then sends the most recent
// history (oldest first) to the joining session only. The history is a
// snapshot convenience: a message broadcast between join and snapshot
// delivery may arrive before the snapshot or appear in both. A failed
// fetch is logged and does not undo the join.
func (g *Gateway) HandleJoin(ctx context.Context, sess Session, ev JoinEvent) {
	g.registry.Join(ev.RoomID, sess)
	zap.L().Info("user joined room",
		zap.String("room_id", ev.RoomID),
		zap.String("user_id", ev.UserID),
		zap.String("user_name", ev.UserName),
		zap.String("session_id", sess.ID()))

	ctx, cancel := context.WithTimeout(ctx, g.storeTimeout)
	defer cancel()

	history, err := g.store.Recent(ctx, ev.RoomID, g.historyLimit)
	if err != nil {
		zap.L().Error("failed to fetch room history",
			zap.String("room_id", ev.RoomID),
			zap.String("session_id", sess.ID()),
			zap.Error(err))
		return
	}

	// Newest-first from the store; the client wants oldest-first.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	if payload := historyPayload(history); payload != nil {
		sess.Send(payload)
	}
}

func (g *Gateway) HandleLeave(sess Session, ev LeaveEvent) {
	g.registry.Leave(ev.RoomID, sess.ID())
	zap.L().Info("user left room",
		zap.String("room_id", ev.RoomID),
		zap.String("user_id", ev.UserID),
		zap.String("user_name", ev.UserName))
}

// HandleSend persists the message and broadcasts the stored result to all
// current members of the room, sender included. Empty or whitespace-only
// content is rejected with an error event to the sender. A failed append
// is logged and nothing is broadcast; the message is lost with no retry.
func (g *Gateway) HandleSend(ctx context.Context, sess Session, ev SendEvent) {
	if strings.TrimSpace(ev.Content) == "" {
		sess.Send(ErrorPayload(CodeEmptyContent, "message content must not be empty"))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, g.storeTimeout)
	defer cancel()

	stored, err := g.store.Append(ctx, domain.ChatMessage{
		RoomID:     ev.RoomID,
		SenderID:   ev.UserID,
		SenderName: ev.UserName,
		Content:    ev.Content,
	})
	if err != nil {
		zap.L().Error("failed to persist message",
			zap.String("room_id", ev.RoomID),
			zap.String("sender_id", ev.UserID),
			zap.Error(err))
		return
	}

	// Delivery goes to whoever is a member now that the append committed;
	// joins and disconnects during the append shift the recipient set.
	if payload := messagePayload(stored); payload != nil {
		g.registry.Broadcast(ev.RoomID, payload)
	}
}

// HandleDisconnect removes the session from every room. Terminal.
func (g *Gateway) HandleDisconnect(sess Session, reason string) {
	g.registry.DropSession(sess.ID())
	zap.L().Info("session disconnected",
		zap.String("session_id", sess.ID()),
		zap.String("reason", reason))
}
