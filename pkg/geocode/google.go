package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/georef/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []json.RawMessage `json:"results"`
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// GoogleProvider geocodes with the Google Geocoding API.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
}

// NewGoogleProvider creates a GoogleProvider. The API key is required.
func NewGoogleProvider(apiKey string, hc *http.Client) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &GoogleProvider{apiKey: apiKey, httpClient: hc}, nil
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Forward implements Provider.
func (p *GoogleProvider) Forward(ctx context.Context, query string) (*Location, error) {
	params := url.Values{
		"address": {query},
		"key":     {p.apiKey},
	}

	reqURL := googleGeocodeURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, newError(KindOther, p.Name(), 0, eris.Wrap(err, "build request"))
	}

	body, err := doRequest(p.httpClient, req, p.Name())
	if err != nil {
		return nil, err
	}

	var resp googleGeocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newError(KindService, p.Name(), 0, eris.Wrap(err, "parse response"))
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	case "OVER_QUERY_LIMIT":
		return nil, newError(KindService, p.Name(), 0, eris.Errorf("status %s: %s", resp.Status, resp.ErrorMessage))
	default:
		// INVALID_REQUEST, REQUEST_DENIED, UNKNOWN_ERROR: the request itself was refused.
		return nil, newError(KindQuery, p.Name(), 0, eris.Errorf("status %s: %s", resp.Status, resp.ErrorMessage))
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}

	var first googleResult
	if err := json.Unmarshal(resp.Results[0], &first); err != nil {
		return nil, newError(KindService, p.Name(), 0, eris.Wrap(err, "parse result"))
	}

	return &Location{
		Latitude:    first.Geometry.Location.Lat,
		Longitude:   first.Geometry.Location.Lng,
		DisplayName: first.FormattedAddress,
		Raw:         resp.Results[0],
	}, nil
}

// doRequest executes req and returns the body of a 200 response, mapping
// transport failures and non-200 statuses to classified errors.
func doRequest(hc *http.Client, req *http.Request, provider string) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		kind := KindService
		switch {
		case resilience.IsTimeout(err):
			kind = KindTimeout
		case errors.Is(err, context.Canceled):
			kind = KindOther
		}
		return nil, newError(kind, provider, 0, eris.Wrap(err, "request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := KindService
		if resilience.IsTimeout(err) {
			kind = KindTimeout
		}
		return nil, newError(kind, provider, resp.StatusCode, eris.Wrap(err, "read body"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newError(kindForStatus(resp.StatusCode), provider, resp.StatusCode,
			eris.Errorf("returned status %d", resp.StatusCode))
	}

	return body, nil
}
