package store

import (
	"time"

	"github.com/coachlingua/leadengine/internal/model"
)

// ExportAll gathers every captured lead, booking, and corporate quote into the
// export structure used by the export-leads command.
func (s *Store) ExportAll() (model.LeadExport, error) {
	var export model.LeadExport

	leads, err := s.ListLeads()
	if err != nil {
		return export, err
	}
	bookings, err := s.ListBookings()
	if err != nil {
		return export, err
	}
	quotes, err := s.ListCorporateQuotes()
	if err != nil {
		return export, err
	}

	export.ExportedAt = time.Now().UTC().Format(time.RFC3339)
	export.Leads = leads
	export.Bookings = bookings
	export.Quotes = quotes
	return export, nil
}
