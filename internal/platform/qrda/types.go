package qrda

import "encoding/xml"

// CDA namespaces shared by all QRDA documents.
const (
	CDANamespace  = "urn:hl7-org:v3"
	XSINamespace  = "http://www.w3.org/2001/XMLSchema-instance"
	SDTCNamespace = "urn:hl7-org:sdtc"
)

// ClinicalDocument is the root element of a QRDA Category I document.
// Field order mirrors the CDA R2 schema; attribute-like values carry
// ",attr" tags and element-like values nest, which is the contract the
// XML renderer interprets.
type ClinicalDocument struct {
	XMLName             xml.Name          `xml:"urn:hl7-org:v3 ClinicalDocument"`
	XSI                 string            `xml:"xmlns:xsi,attr"`
	SDTC                string            `xml:"xmlns:sdtc,attr,omitempty"`
	RealmCode           *Code             `xml:"realmCode,omitempty"`
	TypeID              *TypeID           `xml:"typeId,omitempty"`
	TemplateIDs         []TemplateID      `xml:"templateId,omitempty"`
	ID                  *InstanceID       `xml:"id,omitempty"`
	Code                *Code             `xml:"code,omitempty"`
	Title               string            `xml:"title,omitempty"`
	EffectiveTime       *TimeValue        `xml:"effectiveTime,omitempty"`
	ConfidentialityCode *Code             `xml:"confidentialityCode,omitempty"`
	LanguageCode        *Code             `xml:"languageCode,omitempty"`
	RecordTarget        *RecordTarget     `xml:"recordTarget,omitempty"`
	Author              *Author           `xml:"author,omitempty"`
	Custodian           *Custodian        `xml:"custodian,omitempty"`
	LegalAuthenticator  *LegalAuthenticator `xml:"legalAuthenticator,omitempty"`
	Participants        []Participant     `xml:"participant,omitempty"`
	DocumentationOf     *DocumentationOf  `xml:"documentationOf,omitempty"`
	Component           *Component        `xml:"component,omitempty"`
}

// TypeID identifies the CDA R2 schema.
type TypeID struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr"`
}

// TemplateID asserts conformance to a named template, optionally pinned
// to a version extension.
type TemplateID struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr,omitempty"`
}

// InstanceID is a unique instance identifier.
type InstanceID struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr,omitempty"`
}

// Code represents a coded value from a controlled vocabulary.
type Code struct {
	Code           string `xml:"code,attr,omitempty"`
	CodeSystem     string `xml:"codeSystem,attr,omitempty"`
	CodeSystemName string `xml:"codeSystemName,attr,omitempty"`
	DisplayName    string `xml:"displayName,attr,omitempty"`
	NullFlavor     string `xml:"nullFlavor,attr,omitempty"`
}

// TimeValue holds a point-in-time stamp in HL7 format.
type TimeValue struct {
	Value string `xml:"value,attr,omitempty"`
}

// TimeLow is the low boundary of a time interval. A NullFlavor of "UNK"
// marks an explicitly unknown boundary.
type TimeLow struct {
	Value      string `xml:"value,attr,omitempty"`
	NullFlavor string `xml:"nullFlavor,attr,omitempty"`
}

// TimeHigh is the high boundary of a time interval.
type TimeHigh struct {
	Value      string `xml:"value,attr,omitempty"`
	NullFlavor string `xml:"nullFlavor,attr,omitempty"`
}

// TimeRange represents an effectiveTime interval.
type TimeRange struct {
	Low  *TimeLow  `xml:"low,omitempty"`
	High *TimeHigh `xml:"high,omitempty"`
}

// RecordTarget holds the subject patient in the document header.
type RecordTarget struct {
	PatientRole *PatientRole `xml:"patientRole,omitempty"`
}

// PatientRole contains patient identifiers and demographics.
type PatientRole struct {
	IDs      []InstanceID `xml:"id,omitempty"`
	Addr     *Address     `xml:"addr,omitempty"`
	Telecoms []Telecom    `xml:"telecom,omitempty"`
	Patient  *Patient     `xml:"patient,omitempty"`
}

// Patient holds patient demographic data.
type Patient struct {
	Name                     *Name      `xml:"name,omitempty"`
	AdministrativeGenderCode *Code      `xml:"administrativeGenderCode,omitempty"`
	BirthTime                *TimeValue `xml:"birthTime,omitempty"`
	RaceCode                 *Code      `xml:"raceCode,omitempty"`
	EthnicGroupCode          *Code      `xml:"ethnicGroupCode,omitempty"`
}

// Name represents a person's name.
type Name struct {
	Given  string `xml:"given,omitempty"`
	Family string `xml:"family,omitempty"`
}

// Address represents a postal address.
type Address struct {
	Use           string `xml:"use,attr,omitempty"`
	StreetAddress string `xml:"streetAddressLine,omitempty"`
	City          string `xml:"city,omitempty"`
	State         string `xml:"state,omitempty"`
	PostalCode    string `xml:"postalCode,omitempty"`
	Country       string `xml:"country,omitempty"`
}

// Telecom represents a contact point (phone, email).
type Telecom struct {
	Use   string `xml:"use,attr,omitempty"`
	Value string `xml:"value,attr,omitempty"`
}

// Author holds authoring information in the document header.
type Author struct {
	Time           *TimeValue      `xml:"time,omitempty"`
	AssignedAuthor *AssignedAuthor `xml:"assignedAuthor,omitempty"`
}

// AssignedAuthor identifies the author entity.
type AssignedAuthor struct {
	ID                      *InstanceID      `xml:"id,omitempty"`
	AssignedAuthoringDevice *AuthoringDevice `xml:"assignedAuthoringDevice,omitempty"`
	AssignedPerson          *AssignedPerson  `xml:"assignedPerson,omitempty"`
	RepresentedOrganization *Organization    `xml:"representedOrganization,omitempty"`
}

// AuthoringDevice identifies a device as the author.
type AuthoringDevice struct {
	SoftwareName string `xml:"softwareName,omitempty"`
}

// AssignedPerson identifies a person as an author or authenticator.
type AssignedPerson struct {
	Name *Name `xml:"name,omitempty"`
}

// Organization represents a healthcare organization.
type Organization struct {
	IDs   []InstanceID `xml:"id,omitempty"`
	Names []string     `xml:"name,omitempty"`
	Addr  *Address     `xml:"addr,omitempty"`
}

// Custodian holds the custodian organization in the document header.
type Custodian struct {
	AssignedCustodian *AssignedCustodian `xml:"assignedCustodian,omitempty"`
}

// AssignedCustodian contains the custodian organization.
type AssignedCustodian struct {
	RepresentedCustodianOrganization *CustodianOrganization `xml:"representedCustodianOrganization,omitempty"`
}

// CustodianOrganization identifies the custodian.
type CustodianOrganization struct {
	IDs   []InstanceID `xml:"id,omitempty"`
	Names []string     `xml:"name,omitempty"`
	Addr  *Address     `xml:"addr,omitempty"`
}

// LegalAuthenticator holds the legal signer of the document.
type LegalAuthenticator struct {
	Time           *TimeValue      `xml:"time,omitempty"`
	SignatureCode  *Code           `xml:"signatureCode,omitempty"`
	AssignedEntity *AssignedEntity `xml:"assignedEntity,omitempty"`
}

// AssignedEntity identifies an authenticating entity.
type AssignedEntity struct {
	ID                      *InstanceID   `xml:"id,omitempty"`
	RepresentedOrganization *Organization `xml:"representedOrganization,omitempty"`
}

// Participant associates an external entity with the document, such as
// the certified EHR device submitting on the provider's behalf.
type Participant struct {
	TypeCode         string            `xml:"typeCode,attr,omitempty"`
	AssociatedEntity *AssociatedEntity `xml:"associatedEntity,omitempty"`
}

// AssociatedEntity holds a participant's identifiers.
type AssociatedEntity struct {
	ClassCode string       `xml:"classCode,attr,omitempty"`
	IDs       []InstanceID `xml:"id,omitempty"`
	Code      *Code        `xml:"code,omitempty"`
}

// DocumentationOf records the service event documented.
type DocumentationOf struct {
	ServiceEvent *ServiceEvent `xml:"serviceEvent,omitempty"`
}

// ServiceEvent describes the clinical service documented.
type ServiceEvent struct {
	ClassCode     string     `xml:"classCode,attr,omitempty"`
	EffectiveTime *TimeRange `xml:"effectiveTime,omitempty"`
}

// Component wraps the structured body of the document.
type Component struct {
	StructuredBody *StructuredBody `xml:"structuredBody,omitempty"`
}

// StructuredBody holds the document sections in schema-significant order.
type StructuredBody struct {
	Components []SectionComponent `xml:"component,omitempty"`
}

// SectionComponent wraps a single section.
type SectionComponent struct {
	Section *Section `xml:"section,omitempty"`
}

// Section represents a QRDA section with templates, code, narrative,
// and entries.
type Section struct {
	TemplateIDs []TemplateID `xml:"templateId,omitempty"`
	Code        *Code        `xml:"code,omitempty"`
	Title       string       `xml:"title,omitempty"`
	Text        *Narrative   `xml:"text,omitempty"`
	Entries     []Entry      `xml:"entry,omitempty"`
}

// Narrative holds the human-readable block for a section.
type Narrative struct {
	Table   *NarrativeTable `xml:"table,omitempty"`
	Content string          `xml:",innerxml"`
}

// NarrativeTable is a simplified HTML table for section narratives.
type NarrativeTable struct {
	Thead *NarrativeThead `xml:"thead,omitempty"`
	Tbody *NarrativeTbody `xml:"tbody,omitempty"`
}

// NarrativeThead is a table header.
type NarrativeThead struct {
	Tr *NarrativeTr `xml:"tr,omitempty"`
}

// NarrativeTbody is a table body.
type NarrativeTbody struct {
	Trs []NarrativeTr `xml:"tr,omitempty"`
}

// NarrativeTr is a table row.
type NarrativeTr struct {
	Tds []string `xml:"td,omitempty"`
	Ths []string `xml:"th,omitempty"`
}

// Entry represents a section entry element.
type Entry struct {
	TypeCode  string     `xml:"typeCode,attr,omitempty"`
	Act       *Act       `xml:"act,omitempty"`
	Organizer *Organizer `xml:"organizer,omitempty"`
}

// Act represents a CDA act element, used for the reporting parameters.
type Act struct {
	ClassCode     string       `xml:"classCode,attr,omitempty"`
	MoodCode      string       `xml:"moodCode,attr,omitempty"`
	TemplateIDs   []TemplateID `xml:"templateId,omitempty"`
	IDs           []InstanceID `xml:"id,omitempty"`
	Code          *Code        `xml:"code,omitempty"`
	StatusCode    *Code        `xml:"statusCode,omitempty"`
	EffectiveTime *TimeRange   `xml:"effectiveTime,omitempty"`
}

// Organizer groups related content, used for the measure reference.
type Organizer struct {
	ClassCode   string       `xml:"classCode,attr,omitempty"`
	MoodCode    string       `xml:"moodCode,attr,omitempty"`
	TemplateIDs []TemplateID `xml:"templateId,omitempty"`
	IDs         []InstanceID `xml:"id,omitempty"`
	StatusCode  *Code        `xml:"statusCode,omitempty"`
	References  []Reference  `xml:"reference,omitempty"`
}

// Reference links an organizer to an external document.
type Reference struct {
	TypeCode         string            `xml:"typeCode,attr,omitempty"`
	ExternalDocument *ExternalDocument `xml:"externalDocument,omitempty"`
}

// ExternalDocument identifies the specific quality measure version the
// organizer refers to.
type ExternalDocument struct {
	ClassCode     string       `xml:"classCode,attr,omitempty"`
	MoodCode      string       `xml:"moodCode,attr,omitempty"`
	IDs           []InstanceID `xml:"id,omitempty"`
	Code          *Code        `xml:"code,omitempty"`
	Text          string       `xml:"text,omitempty"`
	SetID         *InstanceID  `xml:"setId,omitempty"`
	VersionNumber *ValueAttr   `xml:"versionNumber,omitempty"`
}

// ValueAttr carries a bare value attribute.
type ValueAttr struct {
	Value string `xml:"value,attr,omitempty"`
}
