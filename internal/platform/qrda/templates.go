package qrda

// Template identifiers and vocabulary OIDs for QRDA Category I documents.
// Template sets are ordered general-to-specific; validators may match on
// any member, so every versioned entry must be emitted in the declared
// order.
const (
	// Document-level template IDs
	OIDUSRealmHeader   = "2.16.840.1.113883.10.20.22.1.1"
	OIDQDMBasedQRDA    = "2.16.840.1.113883.10.20.24.1.1"
	OIDQRDACategoryI   = "2.16.840.1.113883.10.20.24.1.2"
	OIDCMSQRDACategoryI = "2.16.840.1.113883.10.20.24.1.3"

	ExtUSRealmHeader    = "2015-08-01"
	ExtQDMBasedQRDA     = "2021-08-01"
	ExtQRDACategoryI    = "2021-08-01"
	ExtCMSQRDACategoryI = "2022-02-01"

	// Section-level template IDs
	OIDMeasureSection         = "2.16.840.1.113883.10.20.24.2.2"
	OIDMeasureSectionQDM      = "2.16.840.1.113883.10.20.24.2.3"
	OIDReportingParamsSection = "2.16.840.1.113883.10.20.17.2.1"
	OIDReportingParamsSectionCMS = "2.16.840.1.113883.10.20.17.2.1.1"
	OIDPatientDataSection     = "2.16.840.1.113883.10.20.17.2.4"
	OIDPatientDataSectionQDM  = "2.16.840.1.113883.10.20.24.2.1"
	OIDPatientDataSectionCMS  = "2.16.840.1.113883.10.20.24.2.1.1"

	ExtReportingParamsCMS = "2016-03-01"
	ExtPatientDataQDM     = "2021-08-01"
	ExtPatientDataCMS     = "2022-02-01"

	// Entry-level template IDs
	OIDMeasureReference      = "2.16.840.1.113883.10.20.24.3.98"
	OIDMeasureReferenceQDM   = "2.16.840.1.113883.10.20.24.3.97"
	OIDReportingParamsAct    = "2.16.840.1.113883.10.20.17.3.8"
	OIDReportingParamsActCMS = "2.16.840.1.113883.10.20.17.3.8.1"

	// LOINC codes for the document and its sections
	LOINCQualityMeasureReport = "55182-0"
	LOINCMeasureSection       = "55186-1"
	LOINCReportingParams      = "55187-9"
	LOINCPatientData          = "55188-7"

	// SNOMED code carried by the reporting parameters act
	SNOMEDObservationParameters = "252116004"

	// Code system OIDs
	OIDLOINC           = "2.16.840.1.113883.6.1"
	OIDSNOMED          = "2.16.840.1.113883.6.96"
	OIDCDCREC          = "2.16.840.1.113883.6.238"
	OIDNPI             = "2.16.840.1.113883.4.6"
	OIDAdminGender     = "2.16.840.1.113883.5.1"
	OIDConfidentiality = "2.16.840.1.113883.5.25"
	OIDCMSCertNumber   = "2.16.840.1.113883.3.2074.1"

	// CDA R2 type identifier
	OIDHL7Registration = "2.16.840.1.113883.1.3"
	ExtCDAR2           = "POCD_HD000040"

	// Fixed race/ethnicity defaults (CDCREC). Not yet sourced from the
	// patient resource; see the generator.
	DefaultRaceCode         = "2106-3"
	DefaultRaceDisplay      = "White"
	DefaultEthnicityCode    = "2186-5"
	DefaultEthnicityDisplay = "Not Hispanic or Latino"
)

// DocumentTemplateIDs returns the four-entry template set every QRDA
// Category I document header asserts, in profile-lineage order.
func DocumentTemplateIDs() []TemplateID {
	return []TemplateID{
		{Root: OIDUSRealmHeader, Extension: ExtUSRealmHeader},
		{Root: OIDQDMBasedQRDA, Extension: ExtQDMBasedQRDA},
		{Root: OIDQRDACategoryI, Extension: ExtQRDACategoryI},
		{Root: OIDCMSQRDACategoryI, Extension: ExtCMSQRDACategoryI},
	}
}

// MeasureSectionTemplateIDs returns the measure section template set.
func MeasureSectionTemplateIDs() []TemplateID {
	return []TemplateID{
		{Root: OIDMeasureSection},
		{Root: OIDMeasureSectionQDM},
	}
}

// ReportingParametersSectionTemplateIDs returns the reporting parameters
// section template set.
func ReportingParametersSectionTemplateIDs() []TemplateID {
	return []TemplateID{
		{Root: OIDReportingParamsSection},
		{Root: OIDReportingParamsSectionCMS, Extension: ExtReportingParamsCMS},
	}
}

// PatientDataSectionTemplateIDs returns the patient data section
// template set.
func PatientDataSectionTemplateIDs() []TemplateID {
	return []TemplateID{
		{Root: OIDPatientDataSection},
		{Root: OIDPatientDataSectionQDM, Extension: ExtPatientDataQDM},
		{Root: OIDPatientDataSectionCMS, Extension: ExtPatientDataCMS},
	}
}

// MeasureReferenceTemplateIDs returns the measure reference organizer
// template set.
func MeasureReferenceTemplateIDs() []TemplateID {
	return []TemplateID{
		{Root: OIDMeasureReference},
		{Root: OIDMeasureReferenceQDM},
	}
}

// ReportingParametersActTemplateIDs returns the reporting parameters act
// template set.
func ReportingParametersActTemplateIDs() []TemplateID {
	return []TemplateID{
		{Root: OIDReportingParamsAct},
		{Root: OIDReportingParamsActCMS, Extension: ExtReportingParamsCMS},
	}
}
