package service

import (
	"context"
	"fmt"
	"log"

	"github.com/convokeep/convokeep/internal/adapter/moderation"
	"github.com/convokeep/convokeep/internal/domain"
	"github.com/convokeep/convokeep/internal/metrics"
)

// RunModeration classifies every unmoderated message in the conversation
// and folds the verdicts into each message's moderation state. Messages
// already moderated and system messages are left alone. Banned word hits
// are resolved locally and never reach the remote classifier. A failed
// remote batch leaves its messages unmoderated so the next run retries.
func (s *Service) RunModeration(ctx context.Context, conv *domain.Conversation) error {
	var (
		items  []moderation.ContentItem
		owners []*domain.Message
	)

	for _, msg := range conv.Messages {
		if msg.Moderation.Moderated {
			continue
		}
		if msg.Author.Name == s.config.SystemAuthor {
			continue
		}

		if word := s.bannedWord(ctx, msg.Content); word != "" {
			msg.Moderation.Merge(domain.ModerationResult{
				Flagged:    true,
				Moderated:  true,
				Categories: domain.Categories{BannedWord: word},
			})
			metrics.MessagesFlagged.Inc()
			continue
		}

		if msg.Content != "" {
			items = append(items, moderation.TextItem(msg.Content))
			owners = append(owners, msg)
		}
		for _, att := range msg.Attachments {
			switch a := att.(type) {
			case domain.TextAttachment:
				items = append(items, moderation.TextItem(string(a.Data)))
				owners = append(owners, msg)
			case domain.ImageAttachment:
				if a.URL != "" {
					items = append(items, moderation.ImageItem(a.URL))
					owners = append(owners, msg)
				}
			}
		}
	}

	if len(items) == 0 {
		return nil
	}

	results, err := s.classifier.Classify(ctx, items)
	if err != nil {
		metrics.ModerationBatches.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to classify batch: %w", err)
	}
	metrics.ModerationBatches.WithLabelValues("ok").Inc()

	flagged := make(map[*domain.Message]bool)
	for i, res := range results {
		owner := owners[i]
		owner.Moderation.Merge(domain.ModerationResult{
			Flagged:    res.Flagged,
			Moderated:  true,
			Categories: domain.CategoriesFromMap(res.Categories),
		})
		if owner.Moderation.Flagged && !flagged[owner] {
			flagged[owner] = true
			metrics.MessagesFlagged.Inc()
		}
	}
	return nil
}

// bannedWord runs the local wordlist pre-filter. Policy failures are logged
// and treated as no match so the message still reaches the classifier.
func (s *Service) bannedWord(ctx context.Context, content string) string {
	if len(s.config.BannedWords) == 0 || content == "" {
		return ""
	}
	word, err := s.policy.BannedWord(ctx, content, s.config.BannedWords)
	if err != nil {
		log.Printf("WARN: banned word policy failed: %v", err)
		return ""
	}
	return word
}
