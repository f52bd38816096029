package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payoutpilot/mentorchat/internal/domain"
)

// fakeStore is an in-memory message store. afterAppend, when set, runs
// after a message committed but before Append returns, which is exactly
// the window between commit and broadcast.
type fakeStore struct {
	mu       sync.Mutex
	messages []domain.StoredMessage
	nextID   uint

	appendErr   error
	recentErr   error
	afterAppend func()
}

func (s *fakeStore) Append(_ context.Context, message domain.ChatMessage) (domain.StoredMessage, error) {
	if s.appendErr != nil {
		return domain.StoredMessage{}, s.appendErr
	}

	s.mu.Lock()
	s.nextID++
	stored := domain.StoredMessage{
		ID:         s.nextID,
		RoomID:     message.RoomID,
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Content:    message.Content,
		CreatedAt:  time.Now().UTC(),
	}
	s.messages = append(s.messages, stored)
	s.mu.Unlock()

	if s.afterAppend != nil {
		s.afterAppend()
	}

	return stored, nil
}

func (s *fakeStore) Recent(_ context.Context, roomID string, limit int) ([]domain.StoredMessage, error) {
	if s.recentErr != nil {
		return nil, s.recentErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first, like the real store.
	var out []domain.StoredMessage
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if s.messages[i].RoomID == roomID {
			out = append(out, s.messages[i])
		}
	}

	return out, nil
}

func decodeEnvelope(t *testing.T, payload []byte) (string, json.RawMessage) {
	t.Helper()

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &env))

	return env.Event, env.Data
}

func decodeMessages(t *testing.T, data json.RawMessage) []domain.StoredMessage {
	t.Helper()

	var messages []domain.StoredMessage
	require.NoError(t, json.Unmarshal(data, &messages))

	return messages
}

func newTestGateway(store MessageStore) *Gateway {
	return NewGateway(NewRegistry(), store, 50, time.Second)
}

func TestGatewayJoinDeliversEmptyHistoryToJoinerOnly(t *testing.T) {
	store := &fakeStore{}
	gw := newTestGateway(store)
	a := newMockSession("a")
	b := newMockSession("b")

	gw.HandleJoin(context.Background(), b, JoinEvent{RoomID: "r1", UserID: "u2", UserName: "Bea"})
	b.Reset()

	gw.HandleJoin(context.Background(), a, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})

	sent := a.Sent()
	require.Len(t, sent, 1)
	event, data := decodeEnvelope(t, sent[0])
	assert.Equal(t, EventHistory, event)
	assert.Empty(t, decodeMessages(t, data))

	assert.Empty(t, b.Sent(), "history must go to the requesting session only")
}

func TestGatewayJoinHistoryIsOldestFirst(t *testing.T) {
	store := &fakeStore{}
	gw := newTestGateway(store)
	sender := newMockSession("sender")

	gw.HandleJoin(context.Background(), sender, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})
	for i := 1; i <= 3; i++ {
		gw.HandleSend(context.Background(), sender, SendEvent{
			RoomID: "r1", UserID: "u1", UserName: "Ada", Content: fmt.Sprintf("msg %d", i),
		})
	}

	joiner := newMockSession("joiner")
	gw.HandleJoin(context.Background(), joiner, JoinEvent{RoomID: "r1", UserID: "u2", UserName: "Bea"})

	sent := joiner.Sent()
	require.Len(t, sent, 1)
	event, data := decodeEnvelope(t, sent[0])
	require.Equal(t, EventHistory, event)

	history := decodeMessages(t, data)
	require.Len(t, history, 3)
	for i, m := range history {
		assert.Equal(t, fmt.Sprintf("msg %d", i+1), m.Content)
	}
}

func TestGatewayJoinSurvivesHistoryFetchFailure(t *testing.T) {
	store := &fakeStore{recentErr: errors.New("store down")}
	gw := newTestGateway(store)
	a := newMockSession("a")

	gw.HandleJoin(context.Background(), a, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})

	assert.Empty(t, a.Sent(), "no history frame on fetch failure")
	assert.Equal(t, []string{"a"}, gw.Registry().Members("r1"), "the join must stand")

	// The member still receives later broadcasts.
	store.recentErr = nil
	gw.HandleSend(context.Background(), a, SendEvent{RoomID: "r1", UserID: "u1", UserName: "Ada", Content: "hi"})
	assert.Len(t, a.Sent(), 1)
}

func TestGatewaySendBroadcastsStoredMessageToAllMembers(t *testing.T) {
	store := &fakeStore{}
	gw := newTestGateway(store)
	a := newMockSession("a")
	b := newMockSession("b")

	gw.HandleJoin(context.Background(), a, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})
	gw.HandleJoin(context.Background(), b, JoinEvent{RoomID: "r1", UserID: "u2", UserName: "Bea"})
	a.Reset()
	b.Reset()

	gw.HandleSend(context.Background(), b, SendEvent{RoomID: "r1", UserID: "u2", UserName: "Bea", Content: "hello"})

	for _, sess := range []*mockSession{a, b} {
		sent := sess.Sent()
		require.Len(t, sent, 1, "sender included in broadcast")
		event, data := decodeEnvelope(t, sent[0])
		assert.Equal(t, EventMessage, event)

		var m domain.StoredMessage
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, "hello", m.Content)
		assert.Equal(t, "r1", m.RoomID)
		assert.Equal(t, "u2", m.SenderID)
		assert.Equal(t, "Bea", m.SenderName)
		assert.NotZero(t, m.ID, "broadcast carries the store-assigned identifier")
		assert.False(t, m.CreatedAt.IsZero())
	}
}

func TestGatewaySendRejectsEmptyContent(t *testing.T) {
	store := &fakeStore{}
	gw := newTestGateway(store)
	a := newMockSession("a")
	b := newMockSession("b")

	gw.HandleJoin(context.Background(), a, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})
	gw.HandleJoin(context.Background(), b, JoinEvent{RoomID: "r1", UserID: "u2", UserName: "Bea"})
	a.Reset()
	b.Reset()

	for _, content := range []string{"", "   ", "\n\t"} {
		gw.HandleSend(context.Background(), a, SendEvent{RoomID: "r1", UserID: "u1", UserName: "Ada", Content: content})
	}

	sent := a.Sent()
	require.Len(t, sent, 3)
	for _, payload := range sent {
		event, data := decodeEnvelope(t, payload)
		assert.Equal(t, EventError, event)

		var errData ErrorData
		require.NoError(t, json.Unmarshal(data, &errData))
		assert.Equal(t, CodeEmptyContent, errData.Code)
	}

	assert.Empty(t, b.Sent(), "rejected content must not be broadcast")
	assert.Empty(t, store.messages, "rejected content must not be persisted")
}

func TestGatewaySendAppendFailureAbortsBroadcast(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("disk full")}
	gw := newTestGateway(store)
	a := newMockSession("a")
	b := newMockSession("b")

	gw.HandleJoin(context.Background(), a, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})
	gw.HandleJoin(context.Background(), b, JoinEvent{RoomID: "r1", UserID: "u2", UserName: "Bea"})
	a.Reset()
	b.Reset()

	require.NotPanics(t, func() {
		gw.HandleSend(context.Background(), a, SendEvent{RoomID: "r1", UserID: "u1", UserName: "Ada", Content: "lost"})
	})

	assert.Empty(t, a.Sent())
	assert.Empty(t, b.Sent())

	// The failure is isolated to that one message.
	store.appendErr = nil
	gw.HandleSend(context.Background(), a, SendEvent{RoomID: "r1", UserID: "u1", UserName: "Ada", Content: "recovered"})
	assert.Len(t, a.Sent(), 1)
	assert.Len(t, b.Sent(), 1)
}

func TestGatewayBroadcastUsesMembershipAtCommitTime(t *testing.T) {
	store := &fakeStore{}
	gw := newTestGateway(store)
	sender := newMockSession("sender")
	lateJoiner := newMockSession("late")
	leaver := newMockSession("leaver")

	gw.HandleJoin(context.Background(), sender, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})
	gw.HandleJoin(context.Background(), leaver, JoinEvent{RoomID: "r1", UserID: "u3", UserName: "Cal"})
	sender.Reset()
	leaver.Reset()

	// Membership shifts between commit and broadcast: a session joining in
	// that window is delivered to, a disconnecting one is not.
	store.afterAppend = func() {
		gw.Registry().Join("r1", lateJoiner)
		gw.Registry().DropSession(leaver.ID())
	}

	gw.HandleSend(context.Background(), sender, SendEvent{RoomID: "r1", UserID: "u1", UserName: "Ada", Content: "hello"})

	assert.Len(t, sender.Sent(), 1)
	assert.Len(t, lateJoiner.Sent(), 1, "a join completing before broadcast receives the message")
	assert.Empty(t, leaver.Sent(), "a disconnect completing before broadcast is excluded")
}

func TestGatewayJoinSendDisconnectScenario(t *testing.T) {
	store := &fakeStore{}
	gw := newTestGateway(store)
	a := newMockSession("a")
	b := newMockSession("b")

	// A joins an empty room and gets an empty history.
	gw.HandleJoin(context.Background(), a, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})
	sent := a.Sent()
	require.Len(t, sent, 1)
	event, data := decodeEnvelope(t, sent[0])
	require.Equal(t, EventHistory, event)
	require.Empty(t, decodeMessages(t, data))
	a.Reset()

	// B joins and says hello; both receive it exactly once.
	gw.HandleJoin(context.Background(), b, JoinEvent{RoomID: "r1", UserID: "u2", UserName: "Bea"})
	b.Reset()
	gw.HandleSend(context.Background(), b, SendEvent{RoomID: "r1", UserID: "u2", UserName: "Bea", Content: "hello"})
	require.Len(t, a.Sent(), 1)
	require.Len(t, b.Sent(), 1)
	a.Reset()
	b.Reset()

	// A disconnects; B's next message reaches B once and A never.
	gw.HandleDisconnect(a, "going away")
	gw.HandleSend(context.Background(), b, SendEvent{RoomID: "r1", UserID: "u2", UserName: "Bea", Content: "bye"})
	assert.Empty(t, a.Sent())
	require.Len(t, b.Sent(), 1)
	event, data = decodeEnvelope(t, b.Sent()[0])
	assert.Equal(t, EventMessage, event)

	var m domain.StoredMessage
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "bye", m.Content)
}

func TestGatewayHistoryCapsAtLimit(t *testing.T) {
	store := &fakeStore{}
	gw := NewGateway(NewRegistry(), store, 5, time.Second)
	sender := newMockSession("sender")

	gw.HandleJoin(context.Background(), sender, JoinEvent{RoomID: "r1", UserID: "u1", UserName: "Ada"})
	for i := 1; i <= 8; i++ {
		gw.HandleSend(context.Background(), sender, SendEvent{
			RoomID: "r1", UserID: "u1", UserName: "Ada", Content: fmt.Sprintf("msg %d", i),
		})
	}

	joiner := newMockSession("joiner")
	gw.HandleJoin(context.Background(), joiner, JoinEvent{RoomID: "r1", UserID: "u2", UserName: "Bea"})

	sent := joiner.Sent()
	require.Len(t, sent, 1)
	_, data := decodeEnvelope(t, sent[0])
	history := decodeMessages(t, data)
	require.Len(t, history, 5)
	assert.Equal(t, "msg 4", history[0].Content, "the oldest surviving message opens the snapshot")
	assert.Equal(t, "msg 8", history[4].Content)
}
