package agents

import "nexamediaserver/internal/catalog"

// ApplyHints copies the set fields of hints onto item; SortTitle and
// Performers are not copied (the sort title is regenerated from the title
// when the item is saved, and credits are not written here). Callers pass hints
// already folded through Merge with the item's current LockedFields, so a
// nil field here means either no agent had an opinion or the field is
// locked — either way it must not touch item.
func ApplyHints(item *catalog.MetadataItem, hints Hints) {
	if hints.Title != nil {
		item.Title = *hints.Title
	}
	if hints.OriginalTitle != nil {
		item.OriginalTitle = *hints.OriginalTitle
	}
	if hints.Summary != nil {
		item.Summary = *hints.Summary
	}
	if hints.Tagline != nil {
		item.Tagline = *hints.Tagline
	}
	if hints.ContentRating != nil {
		item.ContentRating = *hints.ContentRating
	}
	if hints.ReleaseDate != nil {
		item.OriginallyAvailable = hints.ReleaseDate
	}
	if hints.Year != nil {
		item.Year = *hints.Year
	}
	if hints.Genres != nil {
		item.Genres = hints.Genres
	}
	if hints.Tags != nil {
		item.Tags = hints.Tags
	}
	if len(hints.ExternalIDs) > 0 {
		if item.ExternalIDs == nil {
			item.ExternalIDs = catalog.ExternalIDs{}
		}
		for k, v := range hints.ExternalIDs {
			item.ExternalIDs[k] = v
		}
	}
	if len(hints.Extra) > 0 {
		if item.ExtraFields == nil {
			item.ExtraFields = catalog.ExtraFields{}
		}
		for k, v := range hints.Extra {
			item.ExtraFields[k] = v
		}
	}
	if hints.Composer != nil || hints.Work != nil || hints.Movement != nil {
		if item.ExtraFields == nil {
			item.ExtraFields = catalog.ExtraFields{}
		}
		if hints.Composer != nil {
			item.ExtraFields["composer"] = *hints.Composer
		}
		if hints.Work != nil {
			item.ExtraFields["work"] = *hints.Work
		}
		if hints.Movement != nil {
			item.ExtraFields["movement"] = *hints.Movement
		}
	}
}
