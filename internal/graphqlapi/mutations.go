package graphqlapi

import (
	"context"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/hub"
	"nexamediaserver/internal/jobs"
)

// StartLibraryScan enqueues a full scan of sectionUUID's roots, returning
// the existing job id if one is already running for that section.
func (r *Resolver) StartLibraryScan(ctx context.Context, sectionUUID string) (string, error) {
	section, err := r.Sections.GetByUUID(ctx, sectionUUID)
	if err != nil {
		return "", err
	}
	id := uint(section.ID)
	return r.Scheduler.Submit(ctx, &id, jobs.TypeLibraryScan)
}

// RefreshLibraryMetadata enqueues a metadata-only re-extraction pass over
// every item already catalogued in sectionUUID (no disk rescan).
func (r *Resolver) RefreshLibraryMetadata(ctx context.Context, sectionUUID string) (string, error) {
	section, err := r.Sections.GetByUUID(ctx, sectionUUID)
	if err != nil {
		return "", err
	}
	id := uint(section.ID)
	return r.Scheduler.Submit(ctx, &id, jobs.TypeMetadataRefresh)
}

// RefreshItemMetadata re-runs the agent chain against one item, optionally
// recursing into its parent-of children, and publishes each updated item to
// onMetadataItemUpdated subscribers.
func (r *Resolver) RefreshItemMetadata(ctx context.Context, itemID uint64, includeChildren bool) (*catalog.MetadataItem, error) {
	item, err := r.refreshOneItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if includeChildren {
		children, err := r.Relations.ChildrenOf(ctx, itemID, catalog.EdgeParentOf)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, err := r.refreshOneItem(ctx, child.ID); err != nil {
				return nil, err
			}
		}
	}
	return item, nil
}

func (r *Resolver) refreshOneItem(ctx context.Context, itemID uint64) (*catalog.MetadataItem, error) {
	item, err := r.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	section, err := r.Sections.GetByID(ctx, item.LibrarySectionID)
	if err != nil {
		return nil, err
	}
	parts, err := r.Parts.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return item, nil
	}

	unit := agents.ExtractionUnit{
		LibraryType:   section.Type,
		IntendedType:  item.Type,
		PrimaryPath:   parts[0].Path,
		ProbableTitle: item.Title,
		ProbableYear:  item.Year,
	}
	for _, p := range parts {
		unit.Paths = append(unit.Paths, p.Path)
	}

	var hintsChain []agents.Hints
	for _, agent := range r.Registry.ChainFor(section.Type) {
		h, err := agent.Extract(ctx, unit)
		if err != nil {
			continue
		}
		hintsChain = append(hintsChain, h)
	}
	merged := agents.Merge(hintsChain, item.LockedFields)
	if merged.Genres != nil {
		merged.Genres = r.GenreMap.Canonicalize(merged.Genres)
	}
	if merged.Tags != nil {
		merged.Tags = r.TagPolicy.Apply(merged.Tags)
	}

	updated, err := r.Items.Update(ctx, itemID, func(i *catalog.MetadataItem) error {
		agents.ApplyHints(i, merged)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.itemUpdates.publish(*updated)
	return updated, nil
}

// AnalyzeItem refreshes the technical (container/codec/resolution/bitrate)
// fields on every MediaPart backing itemID by re-probing the file on disk.
func (r *Resolver) AnalyzeItem(ctx context.Context, itemID uint64) (*catalog.MetadataItem, error) {
	item, err := r.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	parts, err := r.Parts.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		info, err := agents.ProbeTechnical(ctx, r.FFprobePath, part.Path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, err, "probing media part")
		}
		part.Container = info.Container
		part.VideoCodec = info.VideoCodec
		part.AudioCodec = info.AudioCodec
		part.Width = info.Width
		part.Height = info.Height
		part.BitrateKbps = info.BitrateKbps
		part.DurationMs = info.DurationMs
		if err := r.Parts.Upsert(ctx, part); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// MetadataItemPatch carries the user-editable fields updateMetadataItem may
// change; nil fields are left untouched.
type MetadataItemPatch struct {
	Title         *string
	SortTitle     *string
	OriginalTitle *string
	Summary       *string
	Tagline       *string
	ContentRating *string
	Year          *int
	Genres        []string
	Tags          []string
}

// UpdateMetadataItem applies patch to itemID, bypassing locked-field
// enforcement (an explicit admin edit, unlike an agent-sourced update) and
// publishing the result to onMetadataItemUpdated subscribers.
func (r *Resolver) UpdateMetadataItem(ctx context.Context, itemID uint64, patch MetadataItemPatch) (*catalog.MetadataItem, error) {
	updated, err := r.Items.Update(ctx, itemID, func(i *catalog.MetadataItem) error {
		if patch.Title != nil {
			i.Title = *patch.Title
		}
		if patch.SortTitle != nil {
			i.SortTitle = *patch.SortTitle
		}
		if patch.OriginalTitle != nil {
			i.OriginalTitle = *patch.OriginalTitle
		}
		if patch.Summary != nil {
			i.Summary = *patch.Summary
		}
		if patch.Tagline != nil {
			i.Tagline = *patch.Tagline
		}
		if patch.ContentRating != nil {
			i.ContentRating = *patch.ContentRating
		}
		if patch.Year != nil {
			i.Year = *patch.Year
		}
		if patch.Genres != nil {
			i.Genres = patch.Genres
		}
		if patch.Tags != nil {
			i.Tags = patch.Tags
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.itemUpdates.publish(*updated)
	return updated, nil
}

// LockMetadataFields adds fields to itemID's locked set so future agent
// passes leave them untouched.
func (r *Resolver) LockMetadataFields(ctx context.Context, itemID uint64, fields []string) (*catalog.MetadataItem, error) {
	updated, err := r.Items.Update(ctx, itemID, func(i *catalog.MetadataItem) error {
		i.LockedFields = i.LockedFields.Lock(fields...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.itemUpdates.publish(*updated)
	return updated, nil
}

// UnlockMetadataFields removes fields from itemID's locked set.
func (r *Resolver) UnlockMetadataFields(ctx context.Context, itemID uint64, fields []string) (*catalog.MetadataItem, error) {
	updated, err := r.Items.Update(ctx, itemID, func(i *catalog.MetadataItem) error {
		i.LockedFields = i.LockedFields.Unlock(fields...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.itemUpdates.publish(*updated)
	return updated, nil
}

const promotedExtraKey = "promoted"

// PromoteItem flags itemID as promoted by setting the "promoted" extra
// field — an editorial pin, not a rating. No hub source reads the flag, so
// it does not change hub ordering.
func (r *Resolver) PromoteItem(ctx context.Context, itemID uint64) (*catalog.MetadataItem, error) {
	updated, err := r.Items.Update(ctx, itemID, func(i *catalog.MetadataItem) error {
		if i.ExtraFields == nil {
			i.ExtraFields = catalog.ExtraFields{}
		}
		i.ExtraFields[promotedExtraKey] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.itemUpdates.publish(*updated)
	return updated, nil
}

// UnpromoteItem clears a prior PromoteItem.
func (r *Resolver) UnpromoteItem(ctx context.Context, itemID uint64) (*catalog.MetadataItem, error) {
	updated, err := r.Items.Update(ctx, itemID, func(i *catalog.MetadataItem) error {
		delete(i.ExtraFields, promotedExtraKey)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.itemUpdates.publish(*updated)
	return updated, nil
}

// UpdateServerSettings merges patch into the server's (key, value) settings.
func (r *Resolver) UpdateServerSettings(ctx context.Context, patch map[string]string) (map[string]string, error) {
	for k, v := range patch {
		if err := r.Settings.Set(ctx, k, v); err != nil {
			return nil, err
		}
	}
	return r.Settings.All(ctx)
}

// UpdateHubConfiguration replaces the enabled/disabled hub ordering for one
// scope, validating the scope/context alignment rule before writing.
func (r *Resolver) UpdateHubConfiguration(ctx context.Context, cfg hub.Configuration) (*hub.Configuration, error) {
	if err := cfg.Scope.Validate(); err != nil {
		return nil, err
	}
	if err := r.HubConfig.Set(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AdminDetailFieldConfiguration controls which MetadataItem fields the admin
// detail editor surfaces for a given metadata type, stored as a settings
// key of the form "adminDetailFields.<type>".
type AdminDetailFieldConfiguration struct {
	MetadataType catalog.MetadataType
	Fields       []string
}

// UpdateAdminDetailFieldConfiguration persists which fields the admin detail
// editor shows for a metadata type.
func (r *Resolver) UpdateAdminDetailFieldConfiguration(ctx context.Context, cfg AdminDetailFieldConfiguration) error {
	key := "adminDetailFields." + string(cfg.MetadataType)
	return r.Settings.Set(ctx, key, joinFields(cfg.Fields))
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}
