package qrda

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/qrda/qrda/internal/platform/fhir"
)

func testPatient() map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "Patient",
		"id":           "patient-1",
		"name": []interface{}{
			map[string]interface{}{
				"given":  []interface{}{"Jane", "Q"},
				"family": "Doe",
			},
		},
		"gender":    "female",
		"birthDate": "1980-01-15",
		"address": []interface{}{
			map[string]interface{}{
				"line":       []interface{}{"123 Oak Ave"},
				"city":       "Columbus",
				"state":      "OH",
				"postalCode": "43215",
				"country":    "US",
				"use":        "home",
			},
		},
		"telecom": []interface{}{
			map[string]interface{}{
				"system": "phone",
				"value":  "555-1234",
				"use":    "home",
			},
			map[string]interface{}{
				"system": "email",
				"value":  "jane.doe@example.com",
			},
		},
	}
}

func testBundle() *fhir.Bundle {
	return fhir.NewCollectionBundle([]map[string]interface{}{testPatient()})
}

func testOptions() *Options {
	return &Options{
		ReportingPeriod: ReportingPeriod{
			Start: "2023-01-01",
			End:   "2023-12-31",
		},
	}
}

func TestGenerateMissingPatient(t *testing.T) {
	g := NewGenerator("", "")
	bundle := fhir.NewCollectionBundle([]map[string]interface{}{
		{"resourceType": "Observation", "id": "obs-1"},
	})

	_, err := g.Generate(bundle, testOptions())
	if err == nil {
		t.Fatal("expected error for bundle without Patient")
	}
	var missing *MissingResourceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingResourceError, got %T: %v", err, err)
	}
	if missing.ResourceType != "Patient" {
		t.Errorf("expected missing Patient, got %s", missing.ResourceType)
	}
}

func TestGenerateNilOptions(t *testing.T) {
	g := NewGenerator("", "")
	if _, err := g.Generate(testBundle(), nil); err == nil {
		t.Fatal("expected error for nil options")
	}
}

func TestGenerateRejectsCategoryIII(t *testing.T) {
	g := NewGenerator("", "")
	opts := testOptions()
	opts.Category = "III"
	if _, err := g.Generate(testBundle(), opts); err == nil {
		t.Fatal("expected error for Category III")
	}
}

func TestGenerateRequiresReportingPeriod(t *testing.T) {
	g := NewGenerator("", "")
	opts := &Options{ReportingPeriod: ReportingPeriod{Start: "2023-01-01"}}
	if _, err := g.Generate(testBundle(), opts); err == nil {
		t.Fatal("expected error when reporting period end is missing")
	}
}

func TestGenerateDocumentHeader(t *testing.T) {
	g := NewGenerator("", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.HasPrefix(xml, "<?xml") {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(xml, "ClinicalDocument") {
		t.Error("missing ClinicalDocument root")
	}
	if !strings.Contains(xml, `root="2.16.840.1.113883.1.3" extension="POCD_HD000040"`) {
		t.Error("missing CDA R2 typeId")
	}
	if !strings.Contains(xml, `code="55182-0"`) {
		t.Error("missing Quality Measure Report document code")
	}
	if !strings.Contains(xml, `<realmCode code="US">`) {
		t.Error("missing US realm code")
	}
	if !strings.Contains(xml, `<languageCode code="en-US">`) {
		t.Error("missing language code")
	}
	if !strings.Contains(xml, `confidentialityCode code="N"`) {
		t.Error("missing confidentiality code")
	}
}

// The document header must assert all four document-level templates, in
// order: US Realm Header, QDM-based QRDA, QRDA Category I, CMS QRDA
// Category I.
func TestGenerateDocumentTemplates(t *testing.T) {
	g := NewGenerator("", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	templates := []string{
		OIDUSRealmHeader,
		OIDQDMBasedQRDA,
		OIDQRDACategoryI,
		OIDCMSQRDACategoryI,
	}
	lastIdx := -1
	for _, root := range templates {
		idx := strings.Index(xml, `root="`+root+`"`)
		if idx < 0 {
			t.Errorf("missing document template %s", root)
			continue
		}
		if idx < lastIdx {
			t.Errorf("document template %s out of order", root)
		}
		lastIdx = idx
	}
}

func TestGenerateSectionOrder(t *testing.T) {
	g := NewGenerator("", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	measureIdx := strings.Index(xml, `code="55186-1"`)
	reportingIdx := strings.Index(xml, `code="55187-9"`)
	patientDataIdx := strings.Index(xml, `code="55188-7"`)

	if measureIdx < 0 || reportingIdx < 0 || patientDataIdx < 0 {
		t.Fatalf("missing section codes: measure=%d reporting=%d patientData=%d",
			measureIdx, reportingIdx, patientDataIdx)
	}
	if !(measureIdx < reportingIdx && reportingIdx < patientDataIdx) {
		t.Error("sections out of order: expected measure, reporting parameters, patient data")
	}
}

func TestGeneratePatientDemographics(t *testing.T) {
	g := NewGenerator("", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, "<given>Jane</given>") {
		t.Error("missing patient given name")
	}
	if strings.Contains(xml, "<given>Q</given>") {
		t.Error("second given name should be dropped")
	}
	if !strings.Contains(xml, "<family>Doe</family>") {
		t.Error("missing patient family name")
	}
	if !strings.Contains(xml, `administrativeGenderCode code="F"`) {
		t.Error("missing mapped gender code")
	}
	if !strings.Contains(xml, `birthTime value="19800115000000"`) {
		t.Error("birth time not forced to midnight UTC")
	}
	if !strings.Contains(xml, "<streetAddressLine>123 Oak Ave</streetAddressLine>") {
		t.Error("missing patient address")
	}
	if !strings.Contains(xml, `value="tel:555-1234"`) {
		t.Error("phone not prefixed with tel:")
	}
	if !strings.Contains(xml, `value="mailto:jane.doe@example.com"`) {
		t.Error("email not prefixed with mailto:")
	}
	if !strings.Contains(xml, `raceCode code="2106-3"`) {
		t.Error("missing default race code")
	}
	if !strings.Contains(xml, `ethnicGroupCode code="2186-5"`) {
		t.Error("missing default ethnicity code")
	}
}

func TestGeneratePatientWithoutTelecom(t *testing.T) {
	patient := testPatient()
	delete(patient, "telecom")
	delete(patient, "address")
	bundle := fhir.NewCollectionBundle([]map[string]interface{}{patient})

	g := NewGenerator("", "")
	output, err := g.Generate(bundle, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if strings.Contains(xml, "telecom") {
		t.Error("telecom should be omitted when the patient has none")
	}
	if strings.Contains(xml, "streetAddressLine") {
		t.Error("address should be omitted when the patient has none")
	}
}

func TestGenerateReportingPeriod(t *testing.T) {
	g := NewGenerator("", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, `<low value="20230101000000">`) {
		t.Error("missing canonicalized period start")
	}
	if !strings.Contains(xml, `<high value="20231231000000">`) {
		t.Error("missing canonicalized period end")
	}
	if !strings.Contains(xml, `code="252116004"`) {
		t.Error("missing observation parameters act code")
	}
}

func TestGenerateUnparseablePeriod(t *testing.T) {
	g := NewGenerator("", "")
	opts := testOptions()
	opts.ReportingPeriod.Start = "not-a-date"
	if _, err := g.Generate(testBundle(), opts); err == nil {
		t.Fatal("expected error for unparseable reporting period")
	}
}

func TestGenerateDefaultMeasure(t *testing.T) {
	g := NewGenerator("", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	// The title's ">" is escaped in XML text, so match the prefix.
	if !strings.Contains(xml, "Diabetes: Hemoglobin A1c (HbA1c) Poor Control") {
		t.Error("missing default measure title")
	}
	if !strings.Contains(xml, `root="`+defaultMeasure.SetID+`"`) {
		t.Error("missing default measure setId")
	}
	if !strings.Contains(xml, `versionNumber value="`+defaultMeasure.Version+`"`) {
		t.Error("missing default measure version")
	}
}

func TestGenerateCustomMeasure(t *testing.T) {
	g := NewGenerator("", "")
	opts := testOptions()
	opts.Measure = &MeasureOptions{
		ID:      "measure-guid",
		Title:   "Controlling High Blood Pressure",
		Version: "12",
		SetID:   "set-guid",
	}

	output, err := g.Generate(testBundle(), opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, "Controlling High Blood Pressure") {
		t.Error("missing custom measure title")
	}
	if !strings.Contains(xml, `root="set-guid"`) {
		t.Error("missing custom measure setId")
	}
	if strings.Contains(xml, defaultMeasure.SetID) {
		t.Error("default measure should not appear when a measure is supplied")
	}
}

func TestGenerateDefaultOrganization(t *testing.T) {
	g := NewGenerator("", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, defaultOrganization.Name) {
		t.Error("missing default organization name")
	}
	if !strings.Contains(xml, `extension="`+defaultOrganization.NPI+`"`) {
		t.Error("missing default organization NPI")
	}
	if !strings.Contains(xml, "representedCustodianOrganization") {
		t.Error("missing custodian organization block")
	}
}

func TestGenerateCustomOrganization(t *testing.T) {
	g := NewGenerator("", "")
	opts := testOptions()
	opts.Organization = &OrganizationOptions{
		Name: "Mercy General",
		NPI:  "9876543210",
	}

	output, err := g.Generate(testBundle(), opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, "Mercy General") {
		t.Error("missing custom organization name")
	}
	if !strings.Contains(xml, `extension="9876543210"`) {
		t.Error("missing custom organization NPI")
	}
}

func TestGenerateAuthorDevice(t *testing.T) {
	g := NewGenerator("Acme QRDA Engine", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, "<softwareName>Acme QRDA Engine</softwareName>") {
		t.Error("missing authoring device software name")
	}
}

func TestGenerateAuthorPerson(t *testing.T) {
	g := NewGenerator("", "")
	opts := testOptions()
	opts.Author = &AuthorOptions{Name: "John Smith", NPI: "1112223334"}

	output, err := g.Generate(testBundle(), opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, "<given>John</given>") {
		t.Error("missing author given name")
	}
	if !strings.Contains(xml, "<family>Smith</family>") {
		t.Error("missing author family name")
	}
	if !strings.Contains(xml, `extension="1112223334"`) {
		t.Error("missing author NPI")
	}
	if strings.Contains(xml, "assignedAuthoringDevice") {
		t.Error("authoring device should be omitted when a person is supplied")
	}
}

func TestGenerateDeviceParticipant(t *testing.T) {
	g := NewGenerator("", "CERT123")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, `participant typeCode="DEV"`) {
		t.Error("missing device participant")
	}
	if !strings.Contains(xml, `associatedEntity classCode="RGPR"`) {
		t.Error("missing regulated product entity")
	}
	if !strings.Contains(xml, `root="`+OIDCMSCertNumber+`" extension="CERT123"`) {
		t.Error("missing CMS certification id")
	}
}

func TestGenerateServiceEventUnknownInterval(t *testing.T) {
	g := NewGenerator("", "")
	output, err := g.Generate(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	xml := string(output)

	if !strings.Contains(xml, `serviceEvent classCode="PCPR"`) {
		t.Error("missing care provision service event")
	}
	if !strings.Contains(xml, `nullFlavor="UNK"`) {
		t.Error("service event interval should be explicitly unknown")
	}
}

// Header times must all come from a single build timestamp.
func TestGenerateConsistentTimestamps(t *testing.T) {
	g := NewGenerator("", "")
	doc, err := g.BuildDocument(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("BuildDocument failed: %v", err)
	}

	stamp := doc.EffectiveTime.Value
	if doc.Author.Time.Value != stamp {
		t.Errorf("author time %s differs from document time %s", doc.Author.Time.Value, stamp)
	}
	if doc.LegalAuthenticator.Time.Value != stamp {
		t.Errorf("authenticator time %s differs from document time %s", doc.LegalAuthenticator.Time.Value, stamp)
	}
}

func TestGenerateUniqueInstanceIDs(t *testing.T) {
	g := NewGenerator("", "")
	doc, err := g.BuildDocument(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("BuildDocument failed: %v", err)
	}
	other, err := g.BuildDocument(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("BuildDocument failed: %v", err)
	}
	if doc.ID.Root == other.ID.Root {
		t.Error("document instance ids should differ across builds")
	}
}

// Two documents built from the same input differ only in generated ids
// and the build timestamp, never in template structure.
func TestGenerateStableTemplateStructure(t *testing.T) {
	g := NewGenerator("", "")
	doc, err := g.BuildDocument(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("BuildDocument failed: %v", err)
	}
	other, err := g.BuildDocument(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("BuildDocument failed: %v", err)
	}

	if !reflect.DeepEqual(doc.TemplateIDs, other.TemplateIDs) {
		t.Error("document template ids differ across builds")
	}
	a := doc.Component.StructuredBody.Components
	b := other.Component.StructuredBody.Components
	if len(a) != len(b) {
		t.Fatalf("section count differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !reflect.DeepEqual(a[i].Section.TemplateIDs, b[i].Section.TemplateIDs) {
			t.Errorf("section %d template ids differ across builds", i)
		}
	}
}

func TestGeneratePatientDataSectionEmpty(t *testing.T) {
	g := NewGenerator("", "")
	doc, err := g.BuildDocument(testBundle(), testOptions())
	if err != nil {
		t.Fatalf("BuildDocument failed: %v", err)
	}

	sections := doc.Component.StructuredBody.Components
	patientData := sections[len(sections)-1].Section
	if patientData.Code.Code != LOINCPatientData {
		t.Fatalf("expected patient data section last, got code %s", patientData.Code.Code)
	}
	if len(patientData.Entries) != 0 {
		t.Errorf("patient data section should carry no entries, got %d", len(patientData.Entries))
	}
}

func TestMapGenderCode(t *testing.T) {
	cases := map[string]string{
		"male":    "M",
		"female":  "F",
		"Male":    "M",
		"other":   "UN",
		"unknown": "UN",
		"":        "UN",
	}
	for input, want := range cases {
		if got := mapGenderCode(input); got != want {
			t.Errorf("mapGenderCode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSplitPersonName(t *testing.T) {
	n := splitPersonName("Mary Jane Watson")
	if n.Given != "Mary" || n.Family != "Jane Watson" {
		t.Errorf("unexpected split: given=%q family=%q", n.Given, n.Family)
	}
	if n := splitPersonName("Cher"); n.Family != "Cher" || n.Given != "" {
		t.Errorf("single token should map to family, got given=%q family=%q", n.Given, n.Family)
	}
}
