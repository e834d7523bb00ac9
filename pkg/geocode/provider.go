package geocode

import (
	"context"
	"encoding/json"
)

// Location is a single forward-geocoding match.
type Location struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	// Raw is the provider's JSON for the match, kept for audit logging.
	Raw json.RawMessage
}

// Provider is a forward-geocoding backend. Forward returns (nil, nil) when
// the provider answered but found no match. Failures should be *Error values
// so the client can classify them.
type Provider interface {
	Name() string
	Forward(ctx context.Context, query string) (*Location, error)
}
