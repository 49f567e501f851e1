// Package service wires storage, moderation and the author cache into the
// operations the transport layer exposes.
package service

import (
	"github.com/convokeep/convokeep/config"
	"github.com/convokeep/convokeep/internal/adapter/moderation"
	"github.com/convokeep/convokeep/internal/authorcache"
	"github.com/convokeep/convokeep/internal/repository"
	"github.com/convokeep/convokeep/policy"
)

type Service struct {
	store      store.Store
	classifier *moderation.Client
	policy     *policy.Engine
	authors    *authorcache.Cache
	config     *config.Config
}

func New(st store.Store, classifier *moderation.Client, policyEngine *policy.Engine, authors *authorcache.Cache, cfg *config.Config) *Service {
	return &Service{
		store:      st,
		classifier: classifier,
		policy:     policyEngine,
		authors:    authors,
		config:     cfg,
	}
}
