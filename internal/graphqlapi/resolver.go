// Package graphqlapi implements the operations named in §6's GraphQL
// surface as plain Go methods on a Resolver, deliberately without schema
// generation or scalar adapters (the spec's GraphQL schema boilerplate
// Non-goal) — dispatch and JSON marshaling live in transport.go.
package graphqlapi

import (
	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/hub"
	"nexamediaserver/internal/jobs"
)

// Resolver holds every dependency an operation needs, the same
// constructor-aggregation shape the teacher's handler types use.
type Resolver struct {
	Sections    catalog.LibrarySectionRepository
	Items       catalog.ItemRepository
	Parts       catalog.MediaPartRepository
	Relations   catalog.RelationRepository
	Settings    catalog.SettingsRepository
	Hub         *hub.Resolver
	HubConfig   hub.ConfigurationStore
	Scheduler   *jobs.Scheduler
	JobStore    jobs.Store
	Registry    *agents.Registry
	GenreMap    agents.GenreMap
	TagPolicy   agents.TagPolicy
	FFprobePath string

	itemUpdates *itemUpdateBus
}

func NewResolver(
	sections catalog.LibrarySectionRepository,
	items catalog.ItemRepository,
	parts catalog.MediaPartRepository,
	relations catalog.RelationRepository,
	settings catalog.SettingsRepository,
	hubResolver *hub.Resolver,
	hubConfig hub.ConfigurationStore,
	scheduler *jobs.Scheduler,
	jobStore jobs.Store,
	registry *agents.Registry,
	genreMap agents.GenreMap,
	tagPolicy agents.TagPolicy,
	ffprobePath string,
) *Resolver {
	return &Resolver{
		Sections:    sections,
		Items:       items,
		Parts:       parts,
		Relations:   relations,
		Settings:    settings,
		Hub:         hubResolver,
		HubConfig:   hubConfig,
		Scheduler:   scheduler,
		JobStore:    jobStore,
		Registry:    registry,
		GenreMap:    genreMap,
		TagPolicy:   tagPolicy,
		FFprobePath: ffprobePath,
		itemUpdates: newItemUpdateBus(),
	}
}
