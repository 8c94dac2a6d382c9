package model

// LeadExport is the top-level JSON structure for the export-leads command.
type LeadExport struct {
	ExportedAt string           `json:"exported_at"`
	Leads      []Lead           `json:"leads"`
	Bookings   []Booking        `json:"bookings"`
	Quotes     []CorporateQuote `json:"corporate_quotes"`
}
