package domain

import "time"

// ChatMessage is a message as submitted by a participant. It carries no ID
// until the store has accepted it.
type ChatMessage struct {
	RoomID     string `json:"room_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
}

// StoredMessage is a ChatMessage after durable commit, augmented with the
// store-assigned identifier and server timestamp. Immutable once created.
type StoredMessage struct {
	ID         uint      `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
