package shared

import (
	"github.com/treeshoptech/freedom-drains-pro/geocode"
	"github.com/treeshoptech/freedom-drains-pro/project"
	"github.com/treeshoptech/freedom-drains-pro/store"
)

// SaveStatusMsg carries a save status change from the autosave goroutine.
type SaveStatusMsg struct {
	Status project.SaveStatus
}

type SaveCompleteMsg struct {
	Err error
}

type ProjectsListedMsg struct {
	Projects []store.Summary
	Err      error
}

// OpenProjectMsg asks the app to load a stored project into the editor.
type OpenProjectMsg struct {
	ID string
}

type ProjectDeletedMsg struct {
	ID  string
	Err error
}

type ProjectStatusMsg struct {
	Project store.Project
	Err     error
}

type SuggestionsMsg struct {
	Query      string
	Seq        int
	Candidates []geocode.Candidate
	Err        error
}

type PlaceResolvedMsg struct {
	Place geocode.Place
	Err   error
}

// SearchTickMsg fires after the typing pause that triggers a suggest call.
type SearchTickMsg struct {
	Seq int
}

type CloseOverlayMsg struct{}
