package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSortName(t *testing.T) {
	cases := []struct {
		title, lang, want string
	}{
		{"The Expanse", "en", "Expanse"},
		{"A Quiet Place", "en", "Quiet Place"},
		{"Theremin", "en", "Theremin"},
		{"L'Étranger", "fr", "Étranger"},
		{"D’Artagnan", "fr", "Artagnan"},
		{"Amélie", "fr", "Amélie"},
		{"Unknown Language Title", "xx", "Unknown Language Title"},
		{"  ¡Hola!", "es", "Hola!"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, GenerateSortName(c.title, c.lang), "title=%q lang=%q", c.title, c.lang)
	}
}

func TestNaturalCompareTotalOrder(t *testing.T) {
	xs := []string{"Episode 10", "Episode 2", "episode 1", "Episode"}
	NaturalSortStrings(xs)
	assert.Equal(t, []string{"Episode", "episode 1", "Episode 2", "Episode 10"}, xs)

	once := append([]string(nil), xs...)
	NaturalSortStrings(xs)
	assert.Equal(t, once, xs, "sorting an already-sorted slice must be a no-op")
}

func TestLockedFieldsIdempotent(t *testing.T) {
	var l LockedFields
	l = l.Lock("title").Lock("title")
	assert.True(t, l.IsLocked("title"))
	assert.Len(t, l, 1)

	l = l.Unlock("title").Unlock("title")
	assert.False(t, l.IsLocked("title"))
}

func TestExtraFieldsGetString(t *testing.T) {
	e := ExtraFields{"s": "hi", "n": float64(3), "b": true, "arr": []any{1, 2}}

	v, res := e.GetString("s")
	assert.Equal(t, ExtraPresentTyped, res)
	assert.Equal(t, "hi", v)

	v, res = e.GetString("n")
	assert.Equal(t, ExtraPresentTyped, res)
	assert.Equal(t, "3", v)

	v, res = e.GetString("b")
	assert.Equal(t, ExtraPresentTyped, res)
	assert.Equal(t, "1", v)

	_, res = e.GetString("arr")
	assert.Equal(t, ExtraPresentUncoercible, res)

	_, res = e.GetString("missing")
	assert.Equal(t, ExtraAbsent, res)
}
