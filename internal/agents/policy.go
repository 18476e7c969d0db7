package agents

import "strings"

// GenreMap canonicalizes raw agent-supplied genre strings, e.g. "Sci-Fi" ->
// "Science Fiction" (§4.B step 6, §8 scenario 4).
type GenreMap map[string]string

// Canonicalize maps each genre through m, leaving unmapped genres untouched.
func (m GenreMap) Canonicalize(genres []string) []string {
	out := make([]string, len(genres))
	for i, g := range genres {
		if mapped, ok := m[g]; ok {
			out[i] = mapped
		} else {
			out[i] = g
		}
	}
	return out
}

// TagPolicy implements the moderation rule from §4.B step 6: if Allowed is
// non-empty, only those tags pass; else Blocked entries are removed; else
// everything passes.
type TagPolicy struct {
	Allowed []string
	Blocked []string
}

func (p TagPolicy) Apply(tags []string) []string {
	if len(p.Allowed) > 0 {
		allow := toSet(p.Allowed)
		var out []string
		for _, t := range tags {
			if allow[strings.ToLower(t)] {
				out = append(out, t)
			}
		}
		return out
	}
	if len(p.Blocked) > 0 {
		block := toSet(p.Blocked)
		var out []string
		for _, t := range tags {
			if !block[strings.ToLower(t)] {
				out = append(out, t)
			}
		}
		return out
	}
	return tags
}

func toSet(xs []string) map[string]bool {
	set := make(map[string]bool, len(xs))
	for _, x := range xs {
		set[strings.ToLower(x)] = true
	}
	return set
}
