// Package qrda assembles QRDA Category I documents from a FHIR bundle
// and caller options. The generator owns template selection, defaulting,
// and the fixed section layout; rendering is plain encoding/xml over the
// types in this package.
package qrda

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrda/qrda/internal/platform/fhir"
	"github.com/qrda/qrda/pkg/hl7time"
)

// MissingResourceError reports that the bundle lacks a resource the
// document cannot be built without.
type MissingResourceError struct {
	ResourceType string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("qrda: bundle contains no %s resource", e.ResourceType)
}

// Generator creates QRDA Category I documents. It is safe for concurrent
// use because it holds only immutable configuration.
type Generator struct {
	softwareName string // author device name used when no author person is supplied
	cmsCertID    string // CMS EHR certification id carried by the device participant
}

// NewGenerator creates a new QRDA generator.
func NewGenerator(softwareName, cmsCertID string) *Generator {
	if softwareName == "" {
		softwareName = "QRDA Generator"
	}
	if cmsCertID == "" {
		cmsCertID = "0015CPK4NKC9DV1"
	}
	return &Generator{
		softwareName: softwareName,
		cmsCertID:    cmsCertID,
	}
}

// Generate produces a complete QRDA Category I XML document from the
// bundle and options. It fails only when the bundle has no Patient or
// the options fail validation; all other missing input degrades to
// fixed defaults.
func (g *Generator) Generate(bundle *fhir.Bundle, opts *Options) ([]byte, error) {
	doc, err := g.BuildDocument(bundle, opts)
	if err != nil {
		return nil, err
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("qrda: failed to marshal XML: %w", err)
	}

	header := []byte(xml.Header)
	result := make([]byte, len(header)+len(output))
	copy(result, header)
	copy(result[len(header):], output)
	return result, nil
}

// BuildDocument constructs the full ClinicalDocument tree. Either the
// whole tree is built or an error is returned; no partial tree escapes.
func (g *Generator) BuildDocument(bundle *fhir.Bundle, opts *Options) (*ClinicalDocument, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	patient, ok := bundle.FirstByType("Patient")
	if !ok {
		return nil, &MissingResourceError{ResourceType: "Patient"}
	}

	// One timestamp for the whole build so every header time agrees.
	now := time.Now().UTC()

	org := opts.resolveOrganization()
	author := opts.resolveAuthor()
	measure := opts.resolveMeasure()

	doc := &ClinicalDocument{
		XSI:       XSINamespace,
		SDTC:      SDTCNamespace,
		RealmCode: &Code{Code: "US"},
		TypeID: &TypeID{
			Root:      OIDHL7Registration,
			Extension: ExtCDAR2,
		},
		TemplateIDs: DocumentTemplateIDs(),
		ID:          &InstanceID{Root: uuid.New().String()},
		Code: &Code{
			Code:           LOINCQualityMeasureReport,
			CodeSystem:     OIDLOINC,
			CodeSystemName: "LOINC",
			DisplayName:    "Quality Measure Report",
		},
		Title:         "QRDA Incidence Report",
		EffectiveTime: &TimeValue{Value: hl7time.FormatTime(now)},
		ConfidentialityCode: &Code{
			Code:       "N",
			CodeSystem: OIDConfidentiality,
		},
		LanguageCode: &Code{Code: "en-US"},
	}

	doc.RecordTarget = g.buildRecordTarget(patient)
	doc.Author = g.buildAuthor(now, author, org)
	doc.Custodian = g.buildCustodian(org)
	doc.LegalAuthenticator = g.buildLegalAuthenticator(now, org)
	doc.Participants = []Participant{g.buildDeviceParticipant()}
	doc.DocumentationOf = buildDocumentationOf()

	reportingSection, err := buildReportingParametersSection(opts.ReportingPeriod)
	if err != nil {
		return nil, err
	}

	// Fixed, schema-significant section order.
	sections := []Section{
		buildMeasureSection(measure),
		reportingSection,
		buildPatientDataSection(),
	}
	components := make([]SectionComponent, len(sections))
	for i := range sections {
		components[i] = SectionComponent{Section: &sections[i]}
	}
	doc.Component = &Component{
		StructuredBody: &StructuredBody{Components: components},
	}

	return doc, nil
}

// buildRecordTarget constructs the subject patient header from a FHIR
// Patient resource.
func (g *Generator) buildRecordTarget(patient map[string]interface{}) *RecordTarget {
	role := &PatientRole{}

	id := InstanceID{Root: uuid.New().String()}
	if pid, ok := getString(patient, "id"); ok {
		id.Extension = pid
	}
	role.IDs = []InstanceID{id}

	// First listed address only; the whole block is omitted, not
	// defaulted, when the patient has none.
	if addrs, ok := getArray(patient, "address"); ok && len(addrs) > 0 {
		if addr, ok := addrs[0].(map[string]interface{}); ok {
			role.Addr = buildAddress(addr)
		}
	}

	// First phone and first email, each independently optional.
	role.Telecoms = buildTelecoms(patient)

	pat := &Patient{}

	if names, ok := getArray(patient, "name"); ok && len(names) > 0 {
		if n, ok := names[0].(map[string]interface{}); ok {
			pat.Name = buildName(n)
		}
	}

	if gender, ok := getString(patient, "gender"); ok {
		pat.AdministrativeGenderCode = &Code{
			Code:        mapGenderCode(gender),
			CodeSystem:  OIDAdminGender,
			DisplayName: gender,
		}
	}

	// Birth time is forced to midnight UTC before canonicalization.
	if dob, ok := getString(patient, "birthDate"); ok {
		if t, err := hl7time.Parse(dob); err == nil {
			pat.BirthTime = &TimeValue{Value: hl7time.FormatTime(hl7time.Midnight(t))}
		}
	}

	// Race and ethnicity are fixed defaults; they are not yet sourced
	// from the patient resource.
	pat.RaceCode = &Code{
		Code:           DefaultRaceCode,
		CodeSystem:     OIDCDCREC,
		CodeSystemName: "CDCREC",
		DisplayName:    DefaultRaceDisplay,
	}
	pat.EthnicGroupCode = &Code{
		Code:           DefaultEthnicityCode,
		CodeSystem:     OIDCDCREC,
		CodeSystemName: "CDCREC",
		DisplayName:    DefaultEthnicityDisplay,
	}

	role.Patient = pat
	return &RecordTarget{PatientRole: role}
}

// buildAuthor creates the document author block. A supplied author name
// yields an assigned person; otherwise the generator's software device
// is the author.
func (g *Generator) buildAuthor(now time.Time, author AuthorOptions, org OrganizationOptions) *Author {
	assigned := &AssignedAuthor{
		RepresentedOrganization: buildOrganization(org),
	}

	if author.NPI != "" {
		assigned.ID = &InstanceID{Root: OIDNPI, Extension: author.NPI}
	} else {
		assigned.ID = &InstanceID{Root: uuid.New().String()}
	}

	if author.Name != "" && author.Name != defaultAuthor.Name {
		assigned.AssignedPerson = &AssignedPerson{Name: splitPersonName(author.Name)}
	} else {
		assigned.AssignedAuthoringDevice = &AuthoringDevice{SoftwareName: g.softwareName}
	}

	return &Author{
		Time:           &TimeValue{Value: hl7time.FormatTime(now)},
		AssignedAuthor: assigned,
	}
}

// buildCustodian creates the custodian block from the resolved
// organization.
func (g *Generator) buildCustodian(org OrganizationOptions) *Custodian {
	return &Custodian{
		AssignedCustodian: &AssignedCustodian{
			RepresentedCustodianOrganization: &CustodianOrganization{
				IDs:   organizationIDs(org),
				Names: []string{org.Name},
				Addr:  buildOptionsAddress(org.Address),
			},
		},
	}
}

// buildLegalAuthenticator creates the legal authenticator block. The
// schema requires it even when no real signer differs from the defaults.
func (g *Generator) buildLegalAuthenticator(now time.Time, org OrganizationOptions) *LegalAuthenticator {
	return &LegalAuthenticator{
		Time:          &TimeValue{Value: hl7time.FormatTime(now)},
		SignatureCode: &Code{Code: "S"},
		AssignedEntity: &AssignedEntity{
			ID:                      &InstanceID{Root: uuid.New().String()},
			RepresentedOrganization: buildOrganization(org),
		},
	}
}

// buildDeviceParticipant creates the certified-device participant that
// carries the CMS EHR certification id.
func (g *Generator) buildDeviceParticipant() Participant {
	return Participant{
		TypeCode: "DEV",
		AssociatedEntity: &AssociatedEntity{
			ClassCode: "RGPR",
			IDs: []InstanceID{
				{Root: OIDCMSCertNumber, Extension: g.cmsCertID},
			},
		},
	}
}

// buildDocumentationOf creates the service event block. The interval is
// explicitly unknown: no real service period is known at assembly time.
func buildDocumentationOf() *DocumentationOf {
	return &DocumentationOf{
		ServiceEvent: &ServiceEvent{
			ClassCode: "PCPR",
			EffectiveTime: &TimeRange{
				Low:  &TimeLow{NullFlavor: "UNK"},
				High: &TimeHigh{NullFlavor: "UNK"},
			},
		},
	}
}

// ---- Section builders ----

// buildMeasureSection produces the measure section: one organizer entry
// referencing the external measure document, with a two-column narrative
// table as the human-readable rendering.
func buildMeasureSection(measure MeasureOptions) Section {
	section := Section{
		TemplateIDs: MeasureSectionTemplateIDs(),
		Code: &Code{
			Code:           LOINCMeasureSection,
			CodeSystem:     OIDLOINC,
			CodeSystemName: "LOINC",
			DisplayName:    "Measure Section",
		},
		Title: "Measure Section",
	}

	section.Text = buildNarrativeTable(
		[]string{"Measure Title", "Version specific identifier"},
		[]NarrativeTr{{Tds: []string{measure.Title, measure.ID}}},
	)

	section.Entries = []Entry{
		{
			Organizer: &Organizer{
				ClassCode:   "CLUSTER",
				MoodCode:    "EVN",
				TemplateIDs: MeasureReferenceTemplateIDs(),
				IDs:         []InstanceID{{Root: uuid.New().String()}},
				StatusCode:  &Code{Code: "completed"},
				References: []Reference{
					{
						TypeCode: "REFR",
						ExternalDocument: &ExternalDocument{
							ClassCode:     "DOC",
							MoodCode:      "EVN",
							IDs:           []InstanceID{{Root: measure.ID}},
							Text:          measure.Title,
							SetID:         &InstanceID{Root: measure.SetID},
							VersionNumber: &ValueAttr{Value: measure.Version},
						},
					},
				},
			},
		},
	}

	return section
}

// buildReportingParametersSection produces the reporting parameters
// section: one act carrying the canonicalized reporting period.
// Canonicalization errors propagate unmodified.
func buildReportingParametersSection(period ReportingPeriod) (Section, error) {
	low, err := hl7time.Format(period.Start)
	if err != nil {
		return Section{}, err
	}
	high, err := hl7time.Format(period.End)
	if err != nil {
		return Section{}, err
	}

	section := Section{
		TemplateIDs: ReportingParametersSectionTemplateIDs(),
		Code: &Code{
			Code:           LOINCReportingParams,
			CodeSystem:     OIDLOINC,
			CodeSystemName: "LOINC",
			DisplayName:    "Reporting Parameters",
		},
		Title: "Reporting Parameters",
		Text: &Narrative{
			Content: fmt.Sprintf("Reporting period: %s to %s", period.Start, period.End),
		},
		Entries: []Entry{
			{
				TypeCode: "DRIV",
				Act: &Act{
					ClassCode:   "ACT",
					MoodCode:    "EVN",
					TemplateIDs: ReportingParametersActTemplateIDs(),
					IDs:         []InstanceID{{Root: uuid.New().String()}},
					Code: &Code{
						Code:           SNOMEDObservationParameters,
						CodeSystem:     OIDSNOMED,
						CodeSystemName: "SNOMED CT",
						DisplayName:    "Observation Parameters",
					},
					EffectiveTime: &TimeRange{
						Low:  &TimeLow{Value: low},
						High: &TimeHigh{Value: high},
					},
				},
			},
		},
	}

	return section, nil
}

// buildPatientDataSection produces the patient data section with an
// intentionally empty entry list. The per-patient clinical entries
// (encounters, interventions, procedures, payers) are deferred; the
// section itself must still exist to satisfy the schema.
func buildPatientDataSection() Section {
	return Section{
		TemplateIDs: PatientDataSectionTemplateIDs(),
		Code: &Code{
			Code:           LOINCPatientData,
			CodeSystem:     OIDLOINC,
			CodeSystemName: "LOINC",
			DisplayName:    "Patient Data",
		},
		Title: "Patient Data",
		Text: &Narrative{
			Content: "No patient data entries are reported.",
		},
	}
}

// ---- Helpers ----

// buildNarrativeTable constructs a narrative table from headers and rows.
func buildNarrativeTable(headers []string, rows []NarrativeTr) *Narrative {
	return &Narrative{
		Table: &NarrativeTable{
			Thead: &NarrativeThead{
				Tr: &NarrativeTr{Ths: headers},
			},
			Tbody: &NarrativeTbody{
				Trs: rows,
			},
		},
	}
}

// buildTelecoms extracts the first phone and first email from a FHIR
// Patient's telecom list. Each channel is filtered out individually when
// absent; partial telecom data is allowed.
func buildTelecoms(patient map[string]interface{}) []Telecom {
	telecoms, ok := getArray(patient, "telecom")
	if !ok {
		return nil
	}

	var out []Telecom
	var havePhone, haveEmail bool
	for _, raw := range telecoms {
		t, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		system, _ := getString(t, "system")
		value, _ := getString(t, "value")
		use, _ := getString(t, "use")
		if value == "" {
			continue
		}
		switch system {
		case "phone":
			if havePhone {
				continue
			}
			havePhone = true
			out = append(out, Telecom{Use: use, Value: prefixValue(value, "tel:")})
		case "email":
			if haveEmail {
				continue
			}
			haveEmail = true
			out = append(out, Telecom{Use: use, Value: prefixValue(value, "mailto:")})
		}
	}
	return out
}

// prefixValue prepends a URI scheme unless the value already carries it.
func prefixValue(value, scheme string) string {
	if strings.HasPrefix(value, scheme) {
		return value
	}
	return scheme + value
}

// buildAddress creates a CDA Address from a FHIR address map.
func buildAddress(addr map[string]interface{}) *Address {
	a := &Address{}
	if lines, ok := getArray(addr, "line"); ok && len(lines) > 0 {
		if line, ok := lines[0].(string); ok {
			a.StreetAddress = line
		}
	}
	if city, ok := getString(addr, "city"); ok {
		a.City = city
	}
	if state, ok := getString(addr, "state"); ok {
		a.State = state
	}
	if zip, ok := getString(addr, "postalCode"); ok {
		a.PostalCode = zip
	}
	if country, ok := getString(addr, "country"); ok {
		a.Country = country
	}
	if use, ok := getString(addr, "use"); ok {
		a.Use = use
	}
	return a
}

// buildOptionsAddress converts a caller-supplied address to the CDA form.
func buildOptionsAddress(addr *AddressOptions) *Address {
	if addr == nil {
		return nil
	}
	return &Address{
		StreetAddress: addr.Line,
		City:          addr.City,
		State:         addr.State,
		PostalCode:    addr.PostalCode,
		Country:       addr.Country,
	}
}

// buildName creates a CDA Name from a FHIR name map. Only the first
// given name is kept; further given names are dropped.
func buildName(n map[string]interface{}) *Name {
	name := &Name{}
	if givens, ok := getArray(n, "given"); ok && len(givens) > 0 {
		if given, ok := givens[0].(string); ok {
			name.Given = given
		}
	}
	if family, ok := getString(n, "family"); ok {
		name.Family = family
	}
	return name
}

// splitPersonName maps a display name to given/family parts.
func splitPersonName(full string) *Name {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return &Name{}
	case 1:
		return &Name{Family: fields[0]}
	default:
		return &Name{
			Given:  fields[0],
			Family: strings.Join(fields[1:], " "),
		}
	}
}

// buildOrganization creates a CDA Organization from the resolved options.
func buildOrganization(org OrganizationOptions) *Organization {
	return &Organization{
		IDs:   organizationIDs(org),
		Names: []string{org.Name},
		Addr:  buildOptionsAddress(org.Address),
	}
}

// organizationIDs returns the organization's identifiers: the NPI when
// known, plus any caller-assigned id under a generated root.
func organizationIDs(org OrganizationOptions) []InstanceID {
	var ids []InstanceID
	if org.NPI != "" {
		ids = append(ids, InstanceID{Root: OIDNPI, Extension: org.NPI})
	}
	if org.ID != "" {
		ids = append(ids, InstanceID{Root: uuid.New().String(), Extension: org.ID})
	}
	if len(ids) == 0 {
		ids = append(ids, InstanceID{Root: uuid.New().String()})
	}
	return ids
}

// mapGenderCode maps a FHIR gender string to the CDA administrative
// gender code.
func mapGenderCode(gender string) string {
	switch strings.ToLower(gender) {
	case "male":
		return "M"
	case "female":
		return "F"
	default:
		return "UN"
	}
}

// getString safely extracts a string from a map.
func getString(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// getArray safely extracts a slice from a map.
func getArray(m map[string]interface{}, key string) ([]interface{}, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.([]interface{})
	return arr, ok
}
