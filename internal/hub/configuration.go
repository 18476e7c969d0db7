package hub

import (
	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
)

// Scope identifies one HubConfiguration row: Home, LibraryDiscover+library,
// or ItemDetail+metadata-type, per §4.D.
type Scope struct {
	Context          Context
	LibrarySectionID *uint
	MetadataType     *catalog.MetadataType
}

// Validate enforces the scope/context alignment rule: "Home MUST omit
// library and metadata-type; LibraryDiscover MUST set library only;
// ItemDetail MUST set metadata-type." Scenario 5 in §8 names the exact
// message for the Home violation.
func (s Scope) Validate() error {
	switch s.Context {
	case ContextHome:
		if s.LibrarySectionID != nil || s.MetadataType != nil {
			return apperrors.New(apperrors.InvalidArgument, "Home hub configuration cannot be scoped to library")
		}
	case ContextLibraryDiscover:
		if s.LibrarySectionID == nil {
			return apperrors.New(apperrors.InvalidArgument, "LibraryDiscover hub configuration requires a library section")
		}
		if s.MetadataType != nil {
			return apperrors.New(apperrors.InvalidArgument, "LibraryDiscover hub configuration cannot be scoped to a metadata type")
		}
	case ContextItemDetail:
		if s.MetadataType == nil {
			return apperrors.New(apperrors.InvalidArgument, "ItemDetail hub configuration requires a metadata type")
		}
		if s.LibrarySectionID != nil {
			return apperrors.New(apperrors.InvalidArgument, "ItemDetail hub configuration cannot be scoped to a library")
		}
	default:
		return apperrors.Newf(apperrors.InvalidArgument, "unknown hub context %q", s.Context)
	}
	return nil
}

// Configuration is a HubConfiguration row: an ordered enabled list and an
// explicit disabled list for one Scope. Unknown hub types added later
// default to enabled, per §4.D.
type Configuration struct {
	Scope    Scope
	Enabled  []Type
	Disabled []Type
}

// Reconcile returns the enabled set that should actually be shown,
// appending any knownType not already present in Enabled or Disabled
// (newly known hub types default to enabled), without mutating c.
func (c Configuration) Reconcile(knownTypes []Type) []Type {
	present := make(map[Type]bool, len(c.Enabled)+len(c.Disabled))
	for _, t := range c.Enabled {
		present[t] = true
	}
	for _, t := range c.Disabled {
		present[t] = true
	}

	out := append([]Type(nil), c.Enabled...)
	for _, t := range knownTypes {
		if !present[t] {
			out = append(out, t)
		}
	}
	return out
}

// ConfigurationStore persists HubConfiguration rows keyed by Scope.
type ConfigurationStore interface {
	Get(scope Scope) (*Configuration, error)
	Set(cfg Configuration) error
}
