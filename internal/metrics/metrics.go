// Package metrics exposes Prometheus counters for the conversation store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConversationsSaved counts successful conversation save operations.
	ConversationsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "convokeep_conversations_saved_total",
		Help: "Number of conversations persisted.",
	})

	// MessagesPersisted counts messages written across all saves.
	MessagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "convokeep_messages_persisted_total",
		Help: "Number of messages written to storage.",
	})

	// ModerationBatches counts classifier batches by outcome.
	ModerationBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convokeep_moderation_batches_total",
		Help: "Number of moderation batches submitted, by outcome.",
	}, []string{"outcome"})

	// MessagesFlagged counts messages the moderation pipeline flagged.
	MessagesFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "convokeep_messages_flagged_total",
		Help: "Number of messages flagged by moderation.",
	})
)
