package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimProvider geocodes with an OpenStreetMap Nominatim server.
// Nominatim's usage policy requires an identifying User-Agent.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatimProvider creates a NominatimProvider against baseURL.
func NewNominatimProvider(baseURL, userAgent string, hc *http.Client) (*NominatimProvider, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, eris.New("geocode: nominatim requires a user agent")
	}
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &NominatimProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: hc,
	}, nil
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Forward implements Provider.
func (p *NominatimProvider) Forward(ctx context.Context, query string) (*Location, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, newError(KindOther, p.Name(), 0, eris.Wrap(err, "build request"))
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	body, err := doRequest(p.httpClient, req, p.Name())
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, newError(KindService, p.Name(), 0, eris.Wrap(err, "parse response"))
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var place nominatimPlace
	if err := json.Unmarshal(raw[0], &place); err != nil {
		return nil, newError(KindService, p.Name(), 0, eris.Wrap(err, "parse place"))
	}

	lat, latErr := strconv.ParseFloat(place.Lat, 64)
	lon, lonErr := strconv.ParseFloat(place.Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, newError(KindService, p.Name(), 0,
			eris.Errorf("unparseable coordinates lat=%q lon=%q", place.Lat, place.Lon))
	}

	return &Location{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: place.DisplayName,
		Raw:         raw[0],
	}, nil
}
