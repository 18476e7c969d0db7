package agents

// Merge folds an ordered sequence of agent Hints into one, later agents
// overriding earlier ones, except that a field named in locked is never
// taken from any agent and stays unset in the result — per §4.B step 5 ("later agents
// never overwrite a locked field") and the invariant in §8 ("any
// agent-sourced update ... leaves I.f unchanged" for a locked field).
func Merge(ordered []Hints, locked map[string]bool) Hints {
	var out Hints
	out.ExternalIDs = map[string]string{}
	out.Extra = map[string]any{}

	for _, h := range ordered {
		if h.Title != nil && !locked["title"] {
			out.Title = h.Title
		}
		if h.SortTitle != nil && !locked["sortTitle"] {
			out.SortTitle = h.SortTitle
		}
		if h.OriginalTitle != nil && !locked["originalTitle"] {
			out.OriginalTitle = h.OriginalTitle
		}
		if h.Summary != nil && !locked["summary"] {
			out.Summary = h.Summary
		}
		if h.Tagline != nil && !locked["tagline"] {
			out.Tagline = h.Tagline
		}
		if h.ContentRating != nil && !locked["contentRating"] {
			out.ContentRating = h.ContentRating
		}
		if h.ReleaseDate != nil && !locked["originallyAvailableAt"] {
			out.ReleaseDate = h.ReleaseDate
		}
		if h.Year != nil && !locked["year"] {
			out.Year = h.Year
		}
		if h.Genres != nil && !locked["genres"] {
			out.Genres = h.Genres
		}
		if h.Tags != nil && !locked["tags"] {
			out.Tags = h.Tags
		}
		if h.Composer != nil && !locked["composer"] {
			out.Composer = h.Composer
		}
		if h.Work != nil && !locked["work"] {
			out.Work = h.Work
		}
		if h.Movement != nil && !locked["movement"] {
			out.Movement = h.Movement
		}
		if len(h.Performers) > 0 && !locked["performers"] {
			out.Performers = h.Performers
		}
		for k, v := range h.ExternalIDs {
			if !locked["externalIds"] {
				out.ExternalIDs[k] = v
			}
		}
		for k, v := range h.Extra {
			if !locked["extraFields."+k] {
				out.Extra[k] = v
			}
		}
	}
	return out
}
