package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

// DeviceIDHeader identifies the device a request originates from. Clients
// receive the value at enrollment and send it on every call.
const DeviceIDHeader = "X-Device-ID"

// DeviceSecretHeader carries the enrollment secret checked when enforcement
// is on.
const DeviceSecretHeader = "X-Device-Secret"

// DeviceVerifier checks an enrolled device credential.
type DeviceVerifier interface {
	Verify(ctx context.Context, id domain.DeviceID, secret string) error
}

// DeviceContext extracts the device identifier from the request header.
// Requests without one proceed; scope resolution then skips the device
// cache. With enforcement on, an id that fails verification is dropped the
// same way rather than failing the request: the cache is an accelerator,
// never a gate.
func DeviceContext(verifier DeviceVerifier, enforce bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(DeviceIDHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			deviceID, err := domain.ParseDeviceID(raw)
			if err != nil {
				logger.WarnContext(r.Context(), "ignoring malformed device id header",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			if enforce && verifier != nil {
				secret := r.Header.Get(DeviceSecretHeader)
				if err := verifier.Verify(r.Context(), deviceID, secret); err != nil {
					logger.WarnContext(r.Context(), "ignoring unverified device id",
						"request_id", requestcontext.RequestID(r.Context()),
						"device_id", deviceID,
						"error", err,
					)
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := requestcontext.WithDeviceID(r.Context(), deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
