package qrda

import "fmt"

// Options is the caller-supplied input for a document build. Only the
// reporting period is required; every other group falls back to fixed
// literals so that a structurally valid document is always producible.
type Options struct {
	Category        string           `json:"category,omitempty"` // "I" (default) or "III" (rejected)
	Measure         *MeasureOptions  `json:"measure,omitempty"`
	ReportingPeriod ReportingPeriod  `json:"reportingPeriod"`
	Organization    *OrganizationOptions `json:"organization,omitempty"`
	Author          *AuthorOptions   `json:"author,omitempty"`
}

// MeasureOptions identifies the quality measure being reported.
type MeasureOptions struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version string `json:"version"`
	SetID   string `json:"setId"`
}

// ReportingPeriod is the measurement period the document covers.
type ReportingPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// OrganizationOptions identifies the submitting organization.
type OrganizationOptions struct {
	Name    string          `json:"name,omitempty"`
	ID      string          `json:"id,omitempty"`
	NPI     string          `json:"npi,omitempty"`
	Address *AddressOptions `json:"address,omitempty"`
}

// AddressOptions is a caller-supplied postal address.
type AddressOptions struct {
	Line       string `json:"line,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// AuthorOptions identifies the document author.
type AuthorOptions struct {
	Name string `json:"name,omitempty"`
	NPI  string `json:"npi,omitempty"`
}

// Embedded reference measure used when the caller supplies none.
var defaultMeasure = MeasureOptions{
	ID:      "40280382-6963-bf5e-0169-da4cc6d43b29",
	Title:   "Diabetes: Hemoglobin A1c (HbA1c) Poor Control (> 9%)",
	Version: "11",
	SetID:   "7d374c6a-3821-4333-a1bc-4531005f77b8",
}

// Fallback identity literals for the optional header groups.
var (
	defaultOrganization = OrganizationOptions{
		Name: "Example Health System",
		NPI:  "1234567893",
		Address: &AddressOptions{
			Line:       "1 Main Street",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62704",
			Country:    "US",
		},
	}
	defaultAuthor = AuthorOptions{
		Name: "Quality Reporting Service",
	}
)

// Validate checks the option fields that can fail a build before any
// tree is assembled. The reporting period is the one mandatory group.
func (o *Options) Validate() error {
	if o == nil {
		return fmt.Errorf("qrda: options are required")
	}
	if o.Category != "" && o.Category != "I" {
		return fmt.Errorf("qrda: unsupported document category %q (only Category I is modeled)", o.Category)
	}
	if o.ReportingPeriod.Start == "" || o.ReportingPeriod.End == "" {
		return fmt.Errorf("qrda: reporting period start and end are required")
	}
	return nil
}

// resolveMeasure returns the caller's measure group, or the embedded
// reference measure when none is supplied. The group overrides as a
// unit; partial measure data is not merged with the default.
func (o *Options) resolveMeasure() MeasureOptions {
	if o.Measure != nil {
		return *o.Measure
	}
	return defaultMeasure
}

// resolveOrganization returns the caller's organization group with any
// absent field filled from the fallback literals.
func (o *Options) resolveOrganization() OrganizationOptions {
	if o.Organization == nil {
		return defaultOrganization
	}
	org := *o.Organization
	if org.Name == "" {
		org.Name = defaultOrganization.Name
	}
	if org.NPI == "" && org.ID == "" {
		org.NPI = defaultOrganization.NPI
	}
	if org.Address == nil {
		org.Address = defaultOrganization.Address
	}
	return org
}

// resolveAuthor returns the caller's author group or the fallback
// author identity.
func (o *Options) resolveAuthor() AuthorOptions {
	if o.Author == nil || o.Author.Name == "" {
		a := defaultAuthor
		if o.Author != nil && o.Author.NPI != "" {
			a.NPI = o.Author.NPI
		}
		return a
	}
	return *o.Author
}
