package view

import "github.com/02loveslollipop/herbscan-dashboard/services/dashboard/analytics"

// ViewState is the user-controlled browsing state of the history page.
// Transitions return a new value; a ViewState is never changed in place.
type ViewState struct {
	Search     string           `json:"search"`
	Status     analytics.Status `json:"status"`
	ExpandedID string           `json:"expanded_id,omitempty"`
}

// NewViewState returns the initial state: no search, all results.
func NewViewState() ViewState {
	return ViewState{Status: analytics.StatusAll}
}

func (s ViewState) WithSearch(q string) ViewState {
	s.Search = q
	return s
}

func (s ViewState) WithStatus(status analytics.Status) ViewState {
	s.Status = status
	return s
}

// ToggleRow expands scanID, or collapses it when it is already expanded.
func (s ViewState) ToggleRow(scanID string) ViewState {
	if s.ExpandedID == scanID {
		s.ExpandedID = ""
		return s
	}
	s.ExpandedID = scanID
	return s
}

// Filter is the analytics filter this state selects.
func (s ViewState) Filter() analytics.Filter {
	status := s.Status
	if status == "" {
		status = analytics.StatusAll
	}
	return analytics.Filter{Search: s.Search, Status: status}
}
