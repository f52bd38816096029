package chat

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/payoutpilot/mentorchat/internal/domain"
)

// Inbound event names.
const (
	EventJoin  = "join"
	EventLeave = "leave"
	EventSend  = "send"
)

// Outbound event names.
const (
	EventHistory = "history"
	EventMessage = "message"
	EventError   = "error"
)

// Error codes carried by outbound error events.
const (
	CodeBadEvent     = "BAD_EVENT"
	CodeEmptyContent = "EMPTY_CONTENT"
)

// JoinEvent and LeaveEvent carry a room membership change. The user fields
// are client-supplied display identity, not verified here.
type JoinEvent struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type LeaveEvent struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type SendEvent struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Content  string `json:"content"`
}

// Envelope is the outbound wire frame.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encodeEnvelope(event string, data any) []byte {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		zap.L().Error("failed to encode outbound event", zap.String("event", event), zap.Error(err))
		return nil
	}

	return payload
}

func historyPayload(messages []domain.StoredMessage) []byte {
	return encodeEnvelope(EventHistory, messages)
}

func messagePayload(message domain.StoredMessage) []byte {
	return encodeEnvelope(EventMessage, message)
}

// ErrorPayload builds an error frame for delivery to a single session.
func ErrorPayload(code, message string) []byte {
	return encodeEnvelope(EventError, ErrorData{Code: code, Message: message})
}
