package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/carbon-intensity-aggregation/internal/common"
	"github.com/i474232898/carbon-intensity-aggregation/internal/intensity"
)

const (
	DefaultElectricityMapsURL = "https://api.electricitymap.org/v3"
	DefaultTokenEnv           = "EMAPS_TOKEN"

	electricityMapsSource = "ElectricityMapsAPI"
	authTokenHeader       = "auth-token"
	invalidTokenMessage   = "Token is invalid"
)

// ElectricityMapsOptions configures an ElectricityMapsProvider.
// Zero values fall back to the public API and EMAPS_TOKEN.
type ElectricityMapsOptions struct {
	BaseURL  string
	TokenEnv string
	Backoff  BackoffConfig
	Logger   zerolog.Logger
}

// ElectricityMapsProvider implements intensity.Provider for the Electricity Maps v3 API.
type ElectricityMapsProvider struct {
	name     string
	baseURL  string
	tokenEnv string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

// NewElectricityMapsProvider creates a provider with its own circuit breaker.
func NewElectricityMapsProvider(client *http.Client, opts ElectricityMapsOptions) *ElectricityMapsProvider {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultElectricityMapsURL
	}
	tokenEnv := opts.TokenEnv
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}
	backoff := opts.Backoff
	if backoff.InitialInterval <= 0 {
		backoff.InitialInterval = 500 * time.Millisecond
	}
	if backoff.MaxInterval <= 0 {
		backoff.MaxInterval = 5 * time.Second
	}

	return &ElectricityMapsProvider{
		name:     "electricitymaps",
		baseURL:  baseURL,
		tokenEnv: tokenEnv,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("electricitymaps"),
		logger:  opts.Logger.With().Str("component", "electricitymaps").Logger(),
	}
}

// Name returns the provider identifier used in logs.
func (p *ElectricityMapsProvider) Name() string {
	return p.name
}

// Authenticate reads the token from the environment and checks it against /zones.
func (p *ElectricityMapsProvider) Authenticate(ctx context.Context) (intensity.Session, error) {
	token := os.Getenv(p.tokenEnv)
	if token == "" {
		return nil, intensity.NewError(intensity.AuthorizationError, electricityMapsSource, "",
			fmt.Sprintf("Invalid credentials provided. The `%s` ENV variable is required", p.tokenEnv), nil)
	}

	ok, err := p.checkToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, intensity.NewError(intensity.AuthorizationError, electricityMapsSource, "authorization",
			"Invalid API token", nil)
	}

	p.logger.Debug().Msg("token accepted")
	return &electricityMapsSession{provider: p, token: token}, nil
}

// checkToken reports false when the provider rejects the token itself.
func (p *ElectricityMapsProvider) checkToken(ctx context.Context, token string) (bool, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, p.baseURL+"/zones", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(authTokenHeader, token)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && isInvalidTokenBody(statusErr.Body) {
			return false, nil
		}
		return false, apiRequestError(err)
	}
	resp.Body.Close()

	return true, nil
}

func isInvalidTokenBody(body []byte) bool {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return payload.Error == invalidTokenMessage
}

func apiRequestError(err error) error {
	return intensity.NewError(intensity.APIRequestError, electricityMapsSource, "",
		fmt.Sprintf("Error from Electricity Maps API. %q", err.Error()), err)
}

type electricityMapsSession struct {
	provider *ElectricityMapsProvider
	token    string
}

// FetchIntensity queries /carbon-intensity/past-range for w.
func (s *electricityMapsSession) FetchIntensity(ctx context.Context, w intensity.Window, loc intensity.Location) ([]intensity.HourlySample, error) {
	p := s.provider

	values := url.Values{}
	switch l := loc.(type) {
	case intensity.Zone:
		values.Set("zone", l.Code)
	case intensity.Coordinates:
		values.Set("lon", strconv.FormatFloat(l.Longitude, 'f', -1, 64))
		values.Set("lat", strconv.FormatFloat(l.Latitude, 'f', -1, 64))
	default:
		return nil, apiRequestError(fmt.Errorf("unsupported location type %T", loc))
	}
	values.Set("start", common.FormatISOTime(w.Start))
	values.Set("end", common.FormatISOTime(w.End))

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/carbon-intensity/past-range?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(authTokenHeader, s.token)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, apiRequestError(err)
	}
	defer resp.Body.Close()

	var payload struct {
		Zone string `json:"zone"`
		Data []struct {
			Datetime        string  `json:"datetime"`
			CarbonIntensity float64 `json:"carbonIntensity"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apiRequestError(fmt.Errorf("decode past-range payload: %w", err))
	}

	samples := make([]intensity.HourlySample, 0, len(payload.Data))
	for _, d := range payload.Data {
		ts, err := time.Parse(time.RFC3339Nano, d.Datetime)
		if err != nil {
			return nil, apiRequestError(fmt.Errorf("invalid datetime %q: %w", d.Datetime, err))
		}
		samples = append(samples, intensity.HourlySample{
			HourStart: ts.UTC(),
			Intensity: d.CarbonIntensity,
		})
	}

	p.logger.Debug().
		Str("location", loc.Key()).
		Str("zone", payload.Zone).
		Int("samples", len(samples)).
		Msg("past-range fetched")

	return samples, nil
}
