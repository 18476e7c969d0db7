package hub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/hub"
)

type stubSource struct {
	recentlyAdded []catalog.MetadataItem
	readableSections []uint
}

func (s *stubSource) RecentlyAdded(ids []uint, mt catalog.MetadataType, count int) ([]catalog.MetadataItem, error) {
	return s.recentlyAdded, nil
}
func (s *stubSource) RecentlyReleased(ids []uint, mt catalog.MetadataType, count int) ([]catalog.MetadataItem, error) {
	return nil, nil
}
func (s *stubSource) TopRated(ids []uint, mt catalog.MetadataType, count int) ([]catalog.MetadataItem, error) {
	return nil, nil
}
func (s *stubSource) ByGenre(ids []uint, genre string, count int) ([]catalog.MetadataItem, error) {
	return nil, nil
}
func (s *stubSource) ByDirector(ids []uint, name string, count int) ([]catalog.MetadataItem, error) {
	return nil, nil
}
func (s *stubSource) MoreFromShow(showID, excludeID uint, count int) ([]catalog.MetadataItem, error) {
	return nil, nil
}
func (s *stubSource) ContinueWatching(userID uint64, ids []uint, count int) ([]catalog.MetadataItem, error) {
	return nil, nil
}
func (s *stubSource) Credits(itemID uint, relation catalog.RelationType, count int) ([]hub.Person, error) {
	return []hub.Person{{Name: "B", Order: 1}, {Name: "A", Order: 0}}, nil
}
func (s *stubSource) ReadableLibrarySections(userID uint64) ([]uint, error) {
	return s.readableSections, nil
}

func TestGetHubItemsHomeUnionsReadableSections(t *testing.T) {
	source := &stubSource{recentlyAdded: []catalog.MetadataItem{{Title: "Movie A"}}, readableSections: []uint{1, 2}}
	resolver := hub.NewResolver(source)

	items, err := resolver.GetHubItems(7, hub.TypeRecentlyAdded, hub.ContextHome, nil, nil, "", 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGetHubItemsLibraryDiscoverRequiresSection(t *testing.T) {
	resolver := hub.NewResolver(&stubSource{})
	_, err := resolver.GetHubItems(1, hub.TypeRecentlyAdded, hub.ContextLibraryDiscover, nil, nil, "", 10)
	assert.True(t, apperrors.Is(err, apperrors.InvalidArgument))
}

func TestGetHubPeopleOrdersByOrder(t *testing.T) {
	resolver := hub.NewResolver(&stubSource{})
	people, err := resolver.GetHubPeople(hub.TypeCast, 1, 10)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "A", people[0].Name)
	assert.Equal(t, "B", people[1].Name)
}

func TestScopeValidateHomeRejectsLibrary(t *testing.T) {
	section := uint(1)
	scope := hub.Scope{Context: hub.ContextHome, LibrarySectionID: &section}
	err := scope.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Home hub configuration cannot be scoped to library")
}

func TestScopeValidateLibraryDiscoverRequiresSection(t *testing.T) {
	scope := hub.Scope{Context: hub.ContextLibraryDiscover}
	assert.Error(t, scope.Validate())
}

func TestConfigurationReconcileAddsUnknownAsEnabled(t *testing.T) {
	cfg := hub.Configuration{
		Enabled:  []hub.Type{hub.TypeRecentlyAdded},
		Disabled: []hub.Type{hub.TypeTopRated},
	}
	result := cfg.Reconcile([]hub.Type{hub.TypeRecentlyAdded, hub.TypeTopRated, hub.TypeByGenre})
	assert.Equal(t, []hub.Type{hub.TypeRecentlyAdded, hub.TypeByGenre}, result)
}
