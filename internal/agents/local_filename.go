package agents

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"nexamediaserver/internal/catalog"
)

// yearPattern matches a parenthesized or bare release year token, e.g.
// "Movie Name (2019)" or "Movie.Name.2019.1080p".
var yearPattern = regexp.MustCompile(`\(?((?:19|20)\d{2})\)?`)

// releaseTokenSplit matches the dot/underscore separators of release-style
// names, which are turned into spaces. Once a year token is found,
// everything from the year onward is dropped, since it is almost always
// encode/source metadata, not title.
var releaseTokenSplit = regexp.MustCompile(`[\._]+`)

// FilenameAgent derives a title and year from the media file's own name,
// the Local category of §4.B. Local runs after Sidecar and Embedded, so its
// title and year override theirs in Merge; only Remote agents override it.
type FilenameAgent struct{}

func NewFilenameAgent() *FilenameAgent { return &FilenameAgent{} }

func (a *FilenameAgent) Name() string                   { return "filename-local" }
func (a *FilenameAgent) Category() catalog.AgentCategory { return catalog.CategoryLocal }
func (a *FilenameAgent) DefaultOrder() int               { return 0 }

func (a *FilenameAgent) SupportsLibraryType(catalog.LibraryType) bool { return true }

func (a *FilenameAgent) Extract(ctx context.Context, unit ExtractionUnit) (Hints, error) {
	base := filepath.Base(unit.PrimaryPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	title, year := parseTitleAndYear(base)
	hints := Hints{}
	if title != "" {
		hints.Title = &title
	}
	if year != 0 {
		hints.Year = &year
	}
	return hints, nil
}

func parseTitleAndYear(name string) (string, int) {
	normalized := releaseTokenSplit.ReplaceAllString(name, " ")
	loc := yearPattern.FindStringSubmatchIndex(normalized)
	if loc == nil {
		return strings.TrimSpace(normalized), 0
	}
	title := strings.TrimSpace(normalized[:loc[0]])
	title = strings.Trim(title, "- ")
	year, _ := strconv.Atoi(normalized[loc[2]:loc[3]])
	return title, year
}
