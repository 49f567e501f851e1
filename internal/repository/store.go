package store

import (
	"context"

	"github.com/convokeep/convokeep/internal/domain"
)

// Store defines the persistence surface for conversations. A missing
// conversation or message is never an error; loads return empty results.
type Store interface {
	SaveConversation(ctx context.Context, channelID int64, conv *domain.Conversation) error
	LoadConversation(ctx context.Context, channelID int64) (*domain.Conversation, error)
	LoadConversations(ctx context.Context) (map[int64]*domain.Conversation, error)
	DeleteConversation(ctx context.Context, channelID int64) error
	MessageByUUID(ctx context.Context, uuid string) (*domain.Message, error)
	Ping(ctx context.Context) error
	Close() error
}
