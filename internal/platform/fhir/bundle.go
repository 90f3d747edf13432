// Package fhir holds the minimal FHIR bundle model consumed by the
// document generator: a collection of typed resources queryable by
// resource type. Entries are read-only once decoded.
package fhir

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleEntry wraps a single resource in a bundle.
type BundleEntry struct {
	FullURL  string                 `json:"fullUrl,omitempty"`
	Resource map[string]interface{} `json:"resource,omitempty"`
}

// Decode parses a JSON-encoded FHIR Bundle.
func Decode(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("fhir: failed to decode bundle: %w", err)
	}
	if b.ResourceType != "" && b.ResourceType != "Bundle" {
		return nil, fmt.Errorf("fhir: expected resourceType Bundle, got %q", b.ResourceType)
	}
	return &b, nil
}

// NewCollectionBundle creates a collection Bundle from a list of resources.
func NewCollectionBundle(resources []map[string]interface{}) *Bundle {
	now := time.Now().UTC()
	entries := make([]BundleEntry, len(resources))
	for i, r := range resources {
		entries[i] = BundleEntry{Resource: r}
	}
	return &Bundle{
		ResourceType: "Bundle",
		Type:         "collection",
		Timestamp:    &now,
		Entry:        entries,
	}
}

// FirstByType returns the first resource in the bundle with the given
// resourceType, or false when none is present.
func (b *Bundle) FirstByType(resourceType string) (map[string]interface{}, bool) {
	if b == nil {
		return nil, false
	}
	for _, e := range b.Entry {
		if resourceTypeOf(e.Resource) == resourceType {
			return e.Resource, true
		}
	}
	return nil, false
}

// AllByType returns every resource in the bundle with the given
// resourceType, in entry order.
func (b *Bundle) AllByType(resourceType string) []map[string]interface{} {
	if b == nil {
		return nil
	}
	var out []map[string]interface{}
	for _, e := range b.Entry {
		if resourceTypeOf(e.Resource) == resourceType {
			out = append(out, e.Resource)
		}
	}
	return out
}

func resourceTypeOf(resource map[string]interface{}) string {
	if resource == nil {
		return ""
	}
	rt, _ := resource["resourceType"].(string)
	return rt
}

// FormatReference creates a FHIR reference string.
func FormatReference(resourceType, id string) string {
	return fmt.Sprintf("%s/%s", resourceType, id)
}
