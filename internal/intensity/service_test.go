package intensity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	authErr   error
	authCalls int
	session   *fakeSession
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Authenticate(ctx context.Context) (Session, error) {
	p.authCalls++
	if p.authErr != nil {
		return nil, p.authErr
	}
	return p.session, nil
}

type fakeSession struct {
	samples map[string][]float64
	failOn  string
	windows []Window
	locKeys []string
}

func (s *fakeSession) FetchIntensity(ctx context.Context, w Window, loc Location) ([]HourlySample, error) {
	s.windows = append(s.windows, w)
	s.locKeys = append(s.locKeys, loc.Key())
	if loc.Key() == s.failOn {
		return nil, NewError(APIRequestError, "ElectricityMapsAPI", "", "Error from Electricity Maps API. boom", nil)
	}
	return hourSamples(w.Start.Truncate(time.Hour), s.samples[loc.Key()]...), nil
}

func newTestService(p Provider) *Service {
	return NewService(p, zerolog.Nop())
}

func TestService_Execute(t *testing.T) {
	session := &fakeSession{samples: map[string][]float64{
		"PJM":             {289, 135, 140},
		"55.6762:12.5683": {100, 100, 100},
	}}
	provider := &fakeProvider{session: session}
	svc := newTestService(provider)

	batch := []Observation{
		{"timestamp": "2024-03-18T01:36:00Z", "zone": "PJM", "duration": 7200},
		{"timestamp": "2024-03-18T01:36:00Z", "latitude": 55.6762, "longitude": 12.5683, "duration": 7200, "power_consumption": 2},
	}

	records, err := svc.Execute(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, provider.authCalls)
	assert.Equal(t, []string{"PJM", "55.6762:12.5683"}, session.locKeys)

	assert.InDelta(t, 331.6, records[0][FieldCarbonIntensity], tolerance)
	assert.Equal(t, "gCO2eq", records[0][FieldUnit])
	assert.Equal(t, "PJM", records[0][FieldZone])

	assert.InDelta(t, 400.0, records[1][FieldCarbonIntensity], tolerance)
	assert.Equal(t, "gCO2eq", records[1][FieldUnit])

	assert.NotContains(t, batch[0], FieldCarbonIntensity)

	want := Window{
		Start: time.Date(2024, 3, 18, 1, 36, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 18, 3, 36, 0, 0, time.UTC),
	}
	assert.True(t, want.Start.Equal(session.windows[0].Start))
	assert.True(t, want.End.Equal(session.windows[0].End))
}

func TestService_AuthorizationFailureStopsBatch(t *testing.T) {
	authErr := NewError(AuthorizationError, "ElectricityMapsAPI", "authorization", "Invalid API token", nil)
	session := &fakeSession{}
	svc := newTestService(&fakeProvider{authErr: authErr, session: session})

	_, err := svc.Execute(context.Background(), []Observation{
		{"timestamp": "2024-03-18T01:36:00Z", "zone": "PJM", "duration": 7200},
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, AuthorizationError))
	assert.Empty(t, session.windows)
}

func TestService_ValidationFailureBeforeFetch(t *testing.T) {
	session := &fakeSession{samples: map[string][]float64{"PJM": {1, 1, 1}}}
	svc := newTestService(&fakeProvider{session: session})

	_, err := svc.Execute(context.Background(), []Observation{
		{"timestamp": "2024-03-18T01:36:00Z", "zone": "PJM", "duration": 7200},
		{"timestamp": "2024-03-18T01:36:00Z", "duration": 7200},
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, InputValidationError))
	assert.Empty(t, session.windows)
}

func TestService_FetchFailureAborts(t *testing.T) {
	session := &fakeSession{
		samples: map[string][]float64{"DE": {1, 1, 1}, "FR": {1, 1, 1}},
		failOn:  "PJM",
	}
	svc := newTestService(&fakeProvider{session: session})

	records, err := svc.Execute(context.Background(), []Observation{
		{"timestamp": "2024-03-18T01:36:00Z", "zone": "DE", "duration": 7200},
		{"timestamp": "2024-03-18T01:36:00Z", "zone": "PJM", "duration": 7200},
		{"timestamp": "2024-03-18T01:36:00Z", "zone": "FR", "duration": 7200},
	})
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, IsKind(err, APIRequestError))
	assert.Equal(t, []string{"DE", "PJM"}, session.locKeys)
}

func TestService_CanceledContext(t *testing.T) {
	session := &fakeSession{samples: map[string][]float64{"DE": {1, 1}}}
	svc := newTestService(&fakeProvider{session: session})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Execute(ctx, []Observation{
		{"timestamp": "2024-03-18T01:00:00Z", "zone": "DE", "duration": 7200},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, session.windows)
}
