package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ChatMessage struct {
	ID uint `gorm:"primaryKey"`

	RoomID     string `gorm:"index;not null"`
	SenderID   string `gorm:"not null"`
	SenderName string `gorm:"not null"`
	Content    string `gorm:"not null"`

	CreatedAt time.Time `gorm:"index;not null"`
}

type MessageDAO struct {
	db *gorm.DB
}

func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{
		db: db,
	}
}

func (d *MessageDAO) Insert(ctx context.Context, message ChatMessage) (ChatMessage, error) {
	result := d.db.WithContext(ctx).Create(&message)
	if result.Error != nil {
		return ChatMessage{}, result.Error
	}

	return message, nil
}

// FindRecentByRoom returns up to limit messages for the room, newest first.
// The ID tie-break makes commit order win when timestamps collide.
func (d *MessageDAO) FindRecentByRoom(ctx context.Context, roomID string, limit, offset int) ([]ChatMessage, error) {
	var messages []ChatMessage

	result := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}

	return messages, nil
}
