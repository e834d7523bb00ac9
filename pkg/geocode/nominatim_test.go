package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNominatim(t *testing.T, handler http.HandlerFunc) *NominatimProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewNominatimProvider(srv.URL+"/", "georef-test/1.0", srv.Client())
	require.NoError(t, err)
	return p
}

func TestNominatimForward_Match(t *testing.T) {
	p := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Calle Larios 1, Málaga, Málaga", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "georef-test/1.0", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `[{"lat":"36.7196","lon":"-4.4214","display_name":"Calle Larios, Centro, Málaga"}]`)
	})

	loc, err := p.Forward(context.Background(), "Calle Larios 1, Málaga, Málaga")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, 36.7196, loc.Latitude, 0.0001)
	assert.InDelta(t, -4.4214, loc.Longitude, 0.0001)
	assert.Equal(t, "Calle Larios, Centro, Málaga", loc.DisplayName)
	assert.Contains(t, string(loc.Raw), "display_name")
}

func TestNominatimForward_NoMatch(t *testing.T) {
	p := newTestNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	loc, err := p.Forward(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestNominatimForward_BadCoordinates(t *testing.T) {
	p := newTestNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"lat":"north","lon":"-4.4"}]`)
	})

	_, err := p.Forward(context.Background(), "Somewhere")
	require.Error(t, err)
	assert.Equal(t, KindService, KindOf(err))
}

func TestNominatimForward_HTTPErrors(t *testing.T) {
	tests := []struct {
		code int
		kind Kind
	}{
		{http.StatusBadGateway, KindService},
		{http.StatusTooManyRequests, KindService},
		{http.StatusRequestTimeout, KindTimeout},
		{http.StatusBadRequest, KindQuery},
		{http.StatusNotFound, KindOther},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			p := newTestNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
			})

			_, err := p.Forward(context.Background(), "A St, X, Y")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestNewNominatimProvider_Defaults(t *testing.T) {
	p, err := NewNominatimProvider("", "agent", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultNominatimURL, p.baseURL)
	assert.Equal(t, "nominatim", p.Name())

	_, err = NewNominatimProvider("", " ", nil)
	require.Error(t, err)
}
