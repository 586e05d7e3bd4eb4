package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suggestBody = `{"suggestions":[
	{"mapbox_id":"dXJuOm1ieGFkcjox","name":"112 Flagler Avenue","place_formatted":"New Smyrna Beach, Florida 32169, United States"},
	{"mapbox_id":"dXJuOm1ieGFkcjoy","name":"112 Flagler Street","full_address":"112 Flagler Street, Miami, Florida 33130, United States"}
]}`

const retrieveBody = `{"type":"FeatureCollection","features":[{"type":"Feature",
	"geometry":{"type":"Point","coordinates":[-80.9121,29.0362]},
	"properties":{"full_address":"112 Flagler Avenue, New Smyrna Beach, Florida 32169, United States"}}]}`

const geocodeBody = `{"type":"FeatureCollection","features":[
	{"place_name":"112 Flagler Ave, New Smyrna Beach, Florida 32169, United States","center":[-80.9120,29.0360]}]}`

type fakeMapbox struct {
	retrieveStatus int
	suggests       atomic.Int32
	geocodes       atomic.Int32

	mu       sync.Mutex
	sessions []string
}

func (f *fakeMapbox) seenSessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sessions...)
}

func (f *fakeMapbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("access_token") != "tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	f.sessions = append(f.sessions, r.URL.Query().Get("session_token"))
	f.mu.Unlock()
	switch {
	case r.URL.Path == "/search/searchbox/v1/suggest":
		f.suggests.Add(1)
		w.Write([]byte(suggestBody))
	case strings.HasPrefix(r.URL.Path, "/search/searchbox/v1/retrieve/"):
		if f.retrieveStatus != 0 {
			w.WriteHeader(f.retrieveStatus)
			return
		}
		w.Write([]byte(retrieveBody))
	case strings.HasPrefix(r.URL.Path, "/geocoding/v5/mapbox.places/"):
		f.geocodes.Add(1)
		if strings.Contains(r.URL.Path, "Nowhere") {
			w.Write([]byte(`{"features":[]}`))
			return
		}
		w.Write([]byte(geocodeBody))
	default:
		http.NotFound(w, r)
	}
}

func newTestMapbox(t *testing.T, fake *fakeMapbox) *Mapbox {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewMapbox("tok", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestSuggest(t *testing.T) {
	fake := &fakeMapbox{}
	m := newTestMapbox(t, fake)

	got, err := m.Suggest(context.Background(), "112 Flag")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "112 Flagler Avenue, New Smyrna Beach, Florida 32169, United States", got[0].Text())
	assert.Equal(t, "112 Flagler Street, Miami, Florida 33130, United States", got[1].Text())
}

func TestShortQueriesSkipTheNetwork(t *testing.T) {
	fake := &fakeMapbox{}
	m := newTestMapbox(t, fake)

	for _, q := range []string{"", "1", "12", "  12  "} {
		got, err := m.Suggest(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Zero(t, fake.suggests.Load())
}

func TestResolveRotatesSession(t *testing.T) {
	fake := &fakeMapbox{}
	m := newTestMapbox(t, fake)
	ctx := context.Background()

	before := m.SessionToken()
	cands, err := m.Suggest(ctx, "112 Flagler")
	require.NoError(t, err)

	place, err := m.Resolve(ctx, cands[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "112 Flagler Avenue, New Smyrna Beach, Florida 32169, United States", place.Address)
	assert.InDelta(t, 29.0362, place.Lat, 1e-9)
	assert.InDelta(t, -80.9121, place.Lng, 1e-9)

	assert.Equal(t, []string{before, before}, fake.seenSessions())
	assert.NotEqual(t, before, m.SessionToken())
	assert.Zero(t, fake.geocodes.Load())
}

func TestResolveFallsBackToGeocoding(t *testing.T) {
	fake := &fakeMapbox{retrieveStatus: http.StatusInternalServerError}
	m := newTestMapbox(t, fake)
	ctx := context.Background()

	cands, err := m.Suggest(ctx, "112 Flagler")
	require.NoError(t, err)

	place, err := m.Resolve(ctx, cands[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "112 Flagler Ave, New Smyrna Beach, Florida 32169, United States", place.Address)
	assert.InDelta(t, 29.0360, place.Lat, 1e-9)
	assert.Equal(t, int32(1), fake.geocodes.Load())
}

func TestResolveUnknownCandidateWithoutRetrieve(t *testing.T) {
	fake := &fakeMapbox{retrieveStatus: http.StatusNotFound}
	m := newTestMapbox(t, fake)

	_, err := m.Resolve(context.Background(), "never-suggested")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestGeocodeNoResults(t *testing.T) {
	m := newTestMapbox(t, &fakeMapbox{})
	_, err := m.Geocode(context.Background(), "Nowhere Lane")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestMissingToken(t *testing.T) {
	m := NewMapbox("")
	_, err := m.Suggest(context.Background(), "112 Flagler")
	assert.ErrorIs(t, err, ErrNoToken)
	_, err = m.Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestBadTokenIsAnError(t *testing.T) {
	srv := httptest.NewServer(&fakeMapbox{})
	defer srv.Close()
	m := NewMapbox("wrong", WithBaseURL(srv.URL))

	_, err := m.Suggest(context.Background(), "112 Flagler")
	assert.ErrorContains(t, err, "status 401")
}
