// Package store persists named drainage projects.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/treeshoptech/freedom-drains-pro/design"
)

var ErrNotFound = errors.New("project not found")

// Status is where a project is in the sales pipeline.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusQuoted    Status = "quoted"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{StatusDraft, StatusQuoted, StatusApproved, StatusCompleted}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown project status %q", s)
}

// Next is the following pipeline status, wrapping back to draft.
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusDraft
}

// Customer is the optional contact on a project.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Totals are the quote figures stored alongside a design for listing.
type Totals struct {
	HydrobloxLF     float64 `json:"hydrobloxLF"`
	ParallelLF      float64 `json:"parallelLF"`
	TransitionCount int     `json:"transitionCount"`
	StormwaterCount int     `json:"stormwaterCount"`
	TotalCost       int64   `json:"totalCost"`
}

// Project is one saved design with its site and customer details.
type Project struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Address  string           `json:"address"`
	Lat      float64          `json:"lat"`
	Lng      float64          `json:"lng"`
	Design   []design.Feature `json:"-"`
	Customer Customer         `json:"customer"`
	Notes    string           `json:"notes,omitempty"`
	Status   Status           `json:"status"`
	Totals   Totals           `json:"totals"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the listing view of a project.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	TotalCost int64     `json:"totalCost"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store saves and loads projects by opaque id.
type Store interface {
	// Save inserts p when its ID is empty and updates it otherwise,
	// returning the stored record.
	Save(ctx context.Context, p Project) (Project, error)
	Load(ctx context.Context, id string) (Project, error)
	// List returns summaries, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status Status) (Project, error)
}
