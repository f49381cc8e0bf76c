package domain

import (
	"bytes"
	"encoding/json"

	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
)

// AllLocationsToken is the wire sentinel for org-wide location scope. It is
// stored and transmitted as a literal string so that caches and profiles
// written by older builds stay readable.
const AllLocationsToken = "ALL"

// LocationKind discriminates the three states a location reference can be in.
type LocationKind int

const (
	// LocationNone means no location is selected. Identities whose active
	// organization grants zero locations land here.
	LocationNone LocationKind = iota
	// LocationAll means every location of the active organization.
	LocationAll
	// LocationSingle means exactly one concrete location.
	LocationSingle
)

// LocationRef is a tagged reference to zero, one, or all locations of an
// organization. The zero value is LocationNone.
type LocationRef struct {
	kind LocationKind
	id   LocationID
}

// NoLocation returns the empty reference.
func NoLocation() LocationRef { return LocationRef{} }

// AllLocations returns the org-wide reference.
func AllLocations() LocationRef { return LocationRef{kind: LocationAll} }

// SingleLocation returns a reference to one concrete location.
func SingleLocation(id LocationID) LocationRef {
	if id.IsZero() {
		return LocationRef{}
	}
	return LocationRef{kind: LocationSingle, id: id}
}

// ParseLocationRef decodes the wire form: empty means none, the ALL token
// means org-wide, anything else is a concrete location identifier.
func ParseLocationRef(raw string) (LocationRef, error) {
	if raw == "" {
		return NoLocation(), nil
	}
	if raw == AllLocationsToken {
		return AllLocations(), nil
	}
	id, err := ParseLocationID(raw)
	if err != nil {
		return LocationRef{}, err
	}
	return SingleLocation(id), nil
}

// Kind returns the discriminator.
func (r LocationRef) Kind() LocationKind { return r.kind }

// IsNone reports whether no location is referenced.
func (r LocationRef) IsNone() bool { return r.kind == LocationNone }

// IsAll reports whether the reference is org-wide.
func (r LocationRef) IsAll() bool { return r.kind == LocationAll }

// ID returns the concrete location identifier and true when the reference is
// a single location.
func (r LocationRef) ID() (LocationID, bool) {
	if r.kind != LocationSingle {
		return "", false
	}
	return r.id, true
}

// Token returns the stored wire form: "" for none, "ALL" for org-wide, the
// identifier otherwise.
func (r LocationRef) Token() string {
	switch r.kind {
	case LocationAll:
		return AllLocationsToken
	case LocationSingle:
		return string(r.id)
	default:
		return ""
	}
}

func (r LocationRef) String() string {
	switch r.kind {
	case LocationAll:
		return AllLocationsToken
	case LocationSingle:
		return string(r.id)
	default:
		return "<none>"
	}
}

var jsonNull = []byte("null")

// MarshalJSON encodes none as null, org-wide as "ALL", and a single location
// as its identifier string.
func (r LocationRef) MarshalJSON() ([]byte, error) {
	if r.kind == LocationNone {
		return jsonNull, nil
	}
	return json.Marshal(r.Token())
}

// UnmarshalJSON accepts null, "ALL", or an identifier string.
func (r *LocationRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*r = NoLocation()
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "location reference must be null or a string")
	}
	parsed, err := ParseLocationRef(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Selection is a resolved working scope: the active organization plus a
// location reference within it.
type Selection struct {
	OrgID    OrgID       `json:"org_id"`
	Location LocationRef `json:"location"`
}

// IsZero reports whether the selection is unset.
func (s Selection) IsZero() bool { return s.OrgID.IsZero() && s.Location.IsNone() }

// Equal reports whether two selections reference the same organization and
// location.
func (s Selection) Equal(o Selection) bool {
	return s.OrgID == o.OrgID && s.Location == o.Location
}
