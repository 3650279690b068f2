package intensity

import (
	"context"
)

// Provider abstracts a carbon-intensity data source (e.g. Electricity Maps).
type Provider interface {
	Name() string
	// Authenticate validates credentials and returns a session that holds them
	// for the rest of one batch.
	Authenticate(ctx context.Context) (Session, error)
}

// Session is an authenticated handle on a Provider.
type Session interface {
	// FetchIntensity returns hourly samples covering w, in chronological order.
	FetchIntensity(ctx context.Context, w Window, loc Location) ([]HourlySample, error)
}
