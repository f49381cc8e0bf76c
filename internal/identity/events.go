package identity

import (
	"encoding/json"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
)

// EventKind discriminates provider session events.
type EventKind string

const (
	// EventSignedIn fires when an identity completes sign-in on a device.
	EventSignedIn EventKind = "signed_in"
	// EventSignedOut fires when an identity signs out or the provider
	// invalidates the session.
	EventSignedOut EventKind = "signed_out"
	// EventMembershipChanged fires when an identity's organization access
	// changes and its scope must be recomputed.
	EventMembershipChanged EventKind = "membership_changed"
)

// Event is one provider session event. Sign-in events carry the asserted
// identity; the other kinds only need the identity ID.
type Event struct {
	Kind       EventKind
	Identity   domain.Identity
	DeviceID   domain.DeviceID
	OccurredAt time.Time
}

// eventPayload is the wire form consumed from the identity events topic.
type eventPayload struct {
	Kind       string            `json:"kind"`
	IdentityID string            `json:"identity_id"`
	Email      string            `json:"email,omitempty"`
	Master     bool              `json:"master,omitempty"`
	Attributes map[string]string `json:"attrs,omitempty"`
	DeviceID   string            `json:"device_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// DecodeEvent parses a wire payload into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var payload eventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed identity event payload")
	}

	kind := EventKind(payload.Kind)
	switch kind {
	case EventSignedIn, EventSignedOut, EventMembershipChanged:
	default:
		return Event{}, dErrors.New(dErrors.CodeInvalidInput, "unknown identity event kind")
	}

	identityID, err := domain.ParseIdentityID(payload.IdentityID)
	if err != nil {
		return Event{}, err
	}

	event := Event{
		Kind: kind,
		Identity: domain.Identity{
			ID:    identityID,
			Email: payload.Email,
			Trusted: domain.TrustedAttributes{
				Master: payload.Master,
				Extra:  payload.Attributes,
			},
		},
		OccurredAt: payload.OccurredAt,
	}

	if payload.DeviceID != "" {
		deviceID, err := domain.ParseDeviceID(payload.DeviceID)
		if err != nil {
			return Event{}, err
		}
		event.DeviceID = deviceID
	}

	return event, nil
}

// EncodeEvent renders an Event into its wire form. The identity ID doubles as
// the partition key so one identity's events stay ordered.
func EncodeEvent(event Event) (key, value []byte, err error) {
	payload := eventPayload{
		Kind:       string(event.Kind),
		IdentityID: event.Identity.ID.String(),
		Email:      event.Identity.Email,
		Master:     event.Identity.Trusted.Master,
		Attributes: event.Identity.Trusted.Extra,
		DeviceID:   event.DeviceID.String(),
		OccurredAt: event.OccurredAt,
	}
	value, err = json.Marshal(payload)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode identity event")
	}
	return []byte(event.Identity.ID.String()), value, nil
}
