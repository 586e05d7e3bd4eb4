// Package geocode resolves typed addresses to map coordinates.
package geocode

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNoResults = errors.New("no matching address")
	ErrNoToken   = errors.New("geocoder token not configured")
	ErrUnknown   = errors.New("unknown suggestion")
)

// MinQueryLen is the shortest query that produces suggestions.
const MinQueryLen = 3

// Candidate is one autocomplete suggestion.
type Candidate struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PlaceFormatted string `json:"placeFormatted,omitempty"`
	FullAddress    string `json:"fullAddress,omitempty"`
}

// Text is the best display form of the candidate's address.
func (c Candidate) Text() string {
	if c.FullAddress != "" {
		return c.FullAddress
	}
	if c.PlaceFormatted == "" {
		return c.Name
	}
	return c.Name + ", " + c.PlaceFormatted
}

// Place is a resolved address.
type Place struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Resolver turns free text into candidates and candidates into places.
type Resolver interface {
	Suggest(ctx context.Context, text string) ([]Candidate, error)
	Resolve(ctx context.Context, candidateID string) (Place, error)
}

func tooShort(text string) bool {
	return len([]rune(strings.TrimSpace(text))) < MinQueryLen
}
