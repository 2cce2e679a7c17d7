package handler

import (
	"fmt"
	"time"

	"intake/internal/registry/models"
	"intake/internal/registry/service"
)

// SearchResponse is the body of GET /institutions/search. Items is always
// present; Message is only set on failures.
type SearchResponse struct {
	Items   []InstitutionResponse `json:"items"`
	Message string                `json:"message,omitempty"`
}

// InstitutionResponse is one search hit.
type InstitutionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// StatusResponse is the body of GET /admin/registry/status.
type StatusResponse struct {
	Built       bool       `json:"built"`
	Unavailable bool       `json:"unavailable"`
	Source      string     `json:"source,omitempty"`
	Records     int        `json:"records"`
	Skipped     int        `json:"skipped"`
	Checksum    string     `json:"checksum,omitempty"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
}

// InvalidateResponse is the body of POST /admin/registry/invalidate.
type InvalidateResponse struct {
	Invalidated bool `json:"invalidated"`
}

// FromRecords converts matched records to response items.
func FromRecords(records []models.Record) []InstitutionResponse {
	items := make([]InstitutionResponse, 0, len(records))
	for _, r := range records {
		items = append(items, InstitutionResponse{ID: r.ID, Name: r.Name, City: r.City})
	}
	return items
}

// FromStatus converts the service status to its response form.
func FromStatus(s service.Status) *StatusResponse {
	resp := &StatusResponse{
		Built:       s.Built,
		Unavailable: s.Unavailable,
		Source:      s.Source,
		Records:     s.Records,
		Skipped:     s.Skipped,
	}
	if s.Built {
		loadedAt := s.LoadedAt
		resp.LoadedAt = &loadedAt
		if !s.Unavailable {
			resp.Checksum = fmt.Sprintf("%016x", s.Checksum)
		}
	}
	return resp
}
