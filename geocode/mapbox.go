package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.mapbox.com"

// Mapbox resolves addresses with the Search Box API, falling back to the
// v5 geocoding endpoint when a suggestion cannot be retrieved.
type Mapbox struct {
	baseURL string
	token   string
	country string
	limit   int
	http    *http.Client
	log     *zap.Logger

	mu      sync.Mutex
	session string
	seen    map[string]Candidate
}

type Option func(*Mapbox)

func WithBaseURL(u string) Option {
	return func(m *Mapbox) {
		if u != "" {
			m.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithCountry(c string) Option {
	return func(m *Mapbox) { m.country = c }
}

func WithHTTPClient(c *http.Client) Option {
	return func(m *Mapbox) {
		if c != nil {
			m.http = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Mapbox) {
		if l != nil {
			m.log = l.Named("geocode")
		}
	}
}

func NewMapbox(token string, opts ...Option) *Mapbox {
	m := &Mapbox{
		baseURL: DefaultBaseURL,
		token:   token,
		country: "US",
		limit:   5,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
		session: uuid.NewString(),
		seen:    map[string]Candidate{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SessionToken is the billing session the next request belongs to.
func (m *Mapbox) SessionToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *Mapbox) rotate() {
	m.mu.Lock()
	m.session = uuid.NewString()
	m.seen = map[string]Candidate{}
	m.mu.Unlock()
}

type suggestResponse struct {
	Suggestions []struct {
		MapboxID       string `json:"mapbox_id"`
		Name           string `json:"name"`
		PlaceFormatted string `json:"place_formatted"`
		FullAddress    string `json:"full_address"`
	} `json:"suggestions"`
}

// Suggest returns up to five address candidates. Queries shorter than
// MinQueryLen return nothing without a request.
func (m *Mapbox) Suggest(ctx context.Context, text string) ([]Candidate, error) {
	if tooShort(text) {
		return nil, nil
	}
	if m.token == "" {
		return nil, ErrNoToken
	}

	q := url.Values{}
	q.Set("q", strings.TrimSpace(text))
	q.Set("access_token", m.token)
	q.Set("session_token", m.SessionToken())
	q.Set("types", "address,place")
	q.Set("limit", fmt.Sprint(m.limit))
	if m.country != "" {
		q.Set("country", m.country)
	}

	var resp suggestResponse
	if err := m.getJSON(ctx, "/search/searchbox/v1/suggest", q, &resp); err != nil {
		return nil, fmt.Errorf("suggest %q: %w", text, err)
	}

	out := make([]Candidate, 0, len(resp.Suggestions))
	m.mu.Lock()
	for _, s := range resp.Suggestions {
		c := Candidate{ID: s.MapboxID, Name: s.Name, PlaceFormatted: s.PlaceFormatted, FullAddress: s.FullAddress}
		m.seen[c.ID] = c
		out = append(out, c)
	}
	m.mu.Unlock()
	return out, nil
}

// Resolve looks up the coordinates of a suggestion from the last Suggest
// call. The session token rotates after every successful resolve.
func (m *Mapbox) Resolve(ctx context.Context, candidateID string) (Place, error) {
	if m.token == "" {
		return Place{}, ErrNoToken
	}
	m.mu.Lock()
	cand, ok := m.seen[candidateID]
	m.mu.Unlock()

	place, err := m.retrieve(ctx, candidateID, cand)
	if err != nil {
		m.log.Debug("retrieve failed, falling back to geocoding", zap.String("id", candidateID), zap.Error(err))
		if !ok {
			return Place{}, fmt.Errorf("resolve %s: %w", candidateID, ErrUnknown)
		}
		place, err = m.Geocode(ctx, cand.Text())
		if err != nil {
			return Place{}, fmt.Errorf("resolve %s: %w", candidateID, err)
		}
	}
	m.rotate()
	return place, nil
}

func (m *Mapbox) retrieve(ctx context.Context, id string, cand Candidate) (Place, error) {
	q := url.Values{}
	q.Set("access_token", m.token)
	q.Set("session_token", m.SessionToken())

	body, err := m.get(ctx, "/search/searchbox/v1/retrieve/"+url.PathEscape(id), q)
	if err != nil {
		return Place{}, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return Place{}, fmt.Errorf("decoding retrieve response: %w", err)
	}
	if len(fc.Features) == 0 {
		return Place{}, ErrNoResults
	}
	f := fc.Features[0]
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return Place{}, fmt.Errorf("retrieve returned %s geometry: %w", f.Geometry.GeoJSONType(), ErrNoResults)
	}
	return Place{
		Address: f.Properties.MustString("full_address", cand.Text()),
		Lat:     pt.Lat(),
		Lng:     pt.Lon(),
	}, nil
}

type geocodeResponse struct {
	Features []struct {
		PlaceName string     `json:"place_name"`
		Center    [2]float64 `json:"center"`
	} `json:"features"`
}

// Geocode forward-geocodes free address text to its best match.
func (m *Mapbox) Geocode(ctx context.Context, address string) (Place, error) {
	if m.token == "" {
		return Place{}, ErrNoToken
	}
	q := url.Values{}
	q.Set("access_token", m.token)
	q.Set("types", "address")
	if m.country != "" {
		q.Set("country", m.country)
	}

	var resp geocodeResponse
	path := "/geocoding/v5/mapbox.places/" + url.PathEscape(address) + ".json"
	if err := m.getJSON(ctx, path, q, &resp); err != nil {
		return Place{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(resp.Features) == 0 {
		return Place{}, fmt.Errorf("geocode %q: %w", address, ErrNoResults)
	}
	f := resp.Features[0]
	place := Place{Address: f.PlaceName, Lng: f.Center[0], Lat: f.Center[1]}
	if place.Address == "" {
		place.Address = address
	}
	return place, nil
}

func (m *Mapbox) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	body, err := m.get(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (m *Mapbox) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	res, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", path, res.StatusCode)
	}
	return body, nil
}
