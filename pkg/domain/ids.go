// Package domain holds shared domain primitives: typed identifiers and the
// scope selection value types. Identifiers for identities, organizations,
// locations, and devices are opaque strings minted by external systems (the
// identity provider and the remote document store); the typed wrappers exist
// so the compiler rejects cross-type assignment.
package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
)

// IdentityID identifies an authenticated caller, independent of any organization.
type IdentityID string

// OrgID identifies an organization in the catalog.
type OrgID string

// LocationID identifies a physical location within an organization.
type LocationID string

// DeviceID identifies the device a request originates from. It keys the
// device scope cache.
type DeviceID string

const maxIDLength = 128

// validateID enforces the shared invariant for externally minted identifiers:
// non-empty, bounded, and printable without whitespace.
func validateID(kind, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	if len(trimmed) > maxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" id exceeds maximum length")
	}
	if !utf8.ValidString(trimmed) {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" id is not valid UTF-8")
	}
	for _, r := range trimmed {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, kind+" id contains whitespace or control characters")
		}
	}
	return trimmed, nil
}

// ParseIdentityID validates and returns an IdentityID.
func ParseIdentityID(raw string) (IdentityID, error) {
	v, err := validateID("identity", raw)
	if err != nil {
		return "", err
	}
	return IdentityID(v), nil
}

// ParseOrgID validates and returns an OrgID.
func ParseOrgID(raw string) (OrgID, error) {
	v, err := validateID("organization", raw)
	if err != nil {
		return "", err
	}
	return OrgID(v), nil
}

// ParseLocationID validates and returns a LocationID.
func ParseLocationID(raw string) (LocationID, error) {
	v, err := validateID("location", raw)
	if err != nil {
		return "", err
	}
	return LocationID(v), nil
}

// ParseDeviceID validates and returns a DeviceID.
func ParseDeviceID(raw string) (DeviceID, error) {
	v, err := validateID("device", raw)
	if err != nil {
		return "", err
	}
	return DeviceID(v), nil
}

func (id IdentityID) String() string { return string(id) }
func (id OrgID) String() string      { return string(id) }
func (id LocationID) String() string { return string(id) }
func (id DeviceID) String() string   { return string(id) }

// IsZero reports whether the identifier is unset.
func (id IdentityID) IsZero() bool { return id == "" }

// IsZero reports whether the identifier is unset.
func (id OrgID) IsZero() bool { return id == "" }

// IsZero reports whether the identifier is unset.
func (id LocationID) IsZero() bool { return id == "" }

// IsZero reports whether the identifier is unset.
func (id DeviceID) IsZero() bool { return id == "" }
