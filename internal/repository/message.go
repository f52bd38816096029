package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/payoutpilot/mentorchat/internal/domain"
	"github.com/payoutpilot/mentorchat/internal/repository/dao"
)

type MessageDAO interface {
	Insert(ctx context.Context, message dao.ChatMessage) (dao.ChatMessage, error)
	FindRecentByRoom(ctx context.Context, roomID string, limit, offset int) ([]dao.ChatMessage, error)
}

// MessageRepository is the message-store adapter: append-only persistence of
// chat messages, queryable per room in reverse-chronological order.
type MessageRepository struct {
	dao MessageDAO
}

func NewMessageRepository(dao MessageDAO) *MessageRepository {
	return &MessageRepository{
		dao: dao,
	}
}

// Append persists the message with a server-assigned timestamp and returns
// it with its store-assigned identifier.
func (r *MessageRepository) Append(ctx context.Context, message domain.ChatMessage) (domain.StoredMessage, error) {
	created, err := r.dao.Insert(ctx, dao.ChatMessage{
		RoomID:     message.RoomID,
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Content:    message.Content,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return domain.StoredMessage{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

// Recent returns up to limit messages for the room, newest first.
func (r *MessageRepository) Recent(ctx context.Context, roomID string, limit int) ([]domain.StoredMessage, error) {
	return r.RecentPage(ctx, roomID, limit, 0)
}

func (r *MessageRepository) RecentPage(ctx context.Context, roomID string, limit, offset int) ([]domain.StoredMessage, error) {
	found, err := r.dao.FindRecentByRoom(ctx, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindRecentByRoom -> %w", err)
	}

	messages := make([]domain.StoredMessage, len(found))
	for i, m := range found {
		messages[i] = r.daoToDomain(m)
	}

	return messages, nil
}

func (r *MessageRepository) daoToDomain(m dao.ChatMessage) domain.StoredMessage {
	return domain.StoredMessage{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}
