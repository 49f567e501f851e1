package service

import (
	"context"
	"fmt"

	"github.com/convokeep/convokeep/internal/domain"
	"github.com/convokeep/convokeep/internal/metrics"
)

// SaveConversation persists the conversation for a channel, replacing any
// previously stored history.
func (s *Service) SaveConversation(ctx context.Context, channelID int64, conv *domain.Conversation) error {
	if err := s.store.SaveConversation(ctx, channelID, conv); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	metrics.ConversationsSaved.Inc()
	for _, m := range conv.Messages {
		if !m.Context {
			metrics.MessagesPersisted.Inc()
		}
	}
	return nil
}

// LoadConversation returns the stored history for a channel. A channel with
// no stored history yields an empty conversation.
func (s *Service) LoadConversation(ctx context.Context, channelID int64) (*domain.Conversation, error) {
	conv, err := s.store.LoadConversation(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

// LoadConversations returns all stored histories keyed by channel id.
func (s *Service) LoadConversations(ctx context.Context) (map[int64]*domain.Conversation, error) {
	convs, err := s.store.LoadConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	return convs, nil
}

// DeleteConversation removes a channel's stored history.
func (s *Service) DeleteConversation(ctx context.Context, channelID int64) error {
	if err := s.store.DeleteConversation(ctx, channelID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// MessageByUUID returns a single stored message with its reply chain
// resolved, or nil when the uuid is unknown.
func (s *Service) MessageByUUID(ctx context.Context, uuid string) (*domain.Message, error) {
	msg, err := s.store.MessageByUUID(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return msg, nil
}

// Ping verifies storage connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ModerateAndSave runs the moderation pipeline over the conversation and
// persists the result. When moderation fails the conversation is still
// saved, with the affected messages left unmoderated for a later retry.
func (s *Service) ModerateAndSave(ctx context.Context, channelID int64, conv *domain.Conversation) error {
	modErr := s.RunModeration(ctx, conv)
	if err := s.SaveConversation(ctx, channelID, conv); err != nil {
		return err
	}
	if modErr != nil {
		return fmt.Errorf("conversation saved but moderation failed: %w", modErr)
	}
	return nil
}
