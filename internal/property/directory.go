// Package property maps external listing identifiers to internal property
// codes. The directory is immutable for the life of the process.
package property

import (
	"encoding/json"
	"fmt"
)

// FallbackName is the display name used when a listing id is unrecognized.
const FallbackName = "HRZN Property"

// Entry identifies a property by its short internal code and display name.
type Entry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Directory resolves listing ids to properties, falling back to a default
// property so a booking is always attributable somewhere.
type Directory struct {
	entries     map[string]Entry
	defaultCode string
}

// defaultEntries is the reference deployment's listing table.
var defaultEntries = map[string]Entry{
	"869f5e1f-223b-4cc2-b64a-a0f4b8194c82": {Code: "cos1", Name: "Colorado Springs Retreat"},
	"your-vegas-listing-id":                {Code: "vegas1", Name: "Vegas Villa"},
	"your-miami-listing-id":                {Code: "miami1", Name: "Miami Beach House"},
	"your-austin-listing-id":               {Code: "austin1", Name: "Austin Downtown Loft"},
	"your-denver-listing-id":               {Code: "denver1", Name: "Denver Mountain Lodge"},
	"your-phoenix-listing-id":              {Code: "phoenix1", Name: "Phoenix Desert Villa"},
}

// NewDirectory builds a directory from the built-in table. defaultCode is the
// property assigned to unrecognized listing ids.
func NewDirectory(defaultCode string) *Directory {
	entries := make(map[string]Entry, len(defaultEntries))
	for id, e := range defaultEntries {
		entries[id] = e
	}
	return &Directory{entries: entries, defaultCode: defaultCode}
}

// NewDirectoryFromJSON builds a directory from a serialized
// {listingID: {code, name}} mapping, replacing the built-in table.
func NewDirectoryFromJSON(raw string, defaultCode string) (*Directory, error) {
	var entries map[string]Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("property: parse map: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("property: map is empty")
	}
	return &Directory{entries: entries, defaultCode: defaultCode}, nil
}

// Resolve returns the entry for a listing id. Unknown ids resolve to the
// default property with a generic display name rather than an error.
func (d *Directory) Resolve(listingID string) (Entry, bool) {
	if e, ok := d.entries[listingID]; ok {
		return e, true
	}
	return Entry{Code: d.defaultCode, Name: FallbackName}, false
}

// DefaultCode returns the fallback property code.
func (d *Directory) DefaultCode() string {
	return d.defaultCode
}

// Codes returns the set of known property codes, including the default.
func (d *Directory) Codes() []string {
	seen := map[string]struct{}{d.defaultCode: {}}
	codes := []string{d.defaultCode}
	for _, e := range d.entries {
		if _, ok := seen[e.Code]; ok {
			continue
		}
		seen[e.Code] = struct{}{}
		codes = append(codes, e.Code)
	}
	return codes
}
