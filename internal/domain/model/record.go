// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"
)

// UnknownLabel is the sentinel for missing classification or author values.
// Using one deterministic placeholder keeps grouping and counting total.
const UnknownLabel = "unknown"

// Record is the minimal representation of a catalog entry for sampling.
// Fields mirror the quantities requested from the NOMAD /entries/query API.
type Record struct {
	EntryID        string `json:"entry_id"`        // unique within a fetched population
	UploadID       string `json:"upload_id"`       // containing upload, may repeat
	Mainfile       string `json:"mainfile"`        // path of the entry's main file
	MainAuthor     string `json:"main_author"`     // normalized author identity
	System         string `json:"system"`          // stratification label
	StructuralType string `json:"structural_type"` // raw classification the label derives from
}

// New builds a Record from raw hit fields, normalizing the author and
// deriving the system label. A missing entry ID is the only rejection.
func New(entryID, uploadID, mainfile string, rawAuthor json.RawMessage, structuralType string) (Record, error) {
	if entryID == "" {
		return Record{}, ErrMissingEntryID
	}
	return Record{
		EntryID:        entryID,
		UploadID:       uploadID,
		Mainfile:       mainfile,
		MainAuthor:     NormalizeAuthor(rawAuthor),
		System:         DeriveSystem(structuralType),
		StructuralType: structuralType,
	}, nil
}

// NormalizeAuthor collapses the API's main_author value, which may be a
// plain string or a structured user object, to one canonical identity.
// Preference order for objects: name, then email, then a stable JSON
// rendering. Absent or blank values map to UnknownLabel.
func NormalizeAuthor(raw json.RawMessage) string {
	if len(raw) == 0 {
		return UnknownLabel
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return UnknownLabel
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return UnknownLabel
	}
	if name, ok := obj["name"].(string); ok {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	if email, ok := obj["email"].(string); ok {
		if email = strings.TrimSpace(email); email != "" {
			return email
		}
	}
	// json.Marshal of a map sorts keys, so this rendering is stable.
	if canonical, err := json.Marshal(obj); err == nil {
		return string(canonical)
	}
	return UnknownLabel
}

// DeriveSystem maps a structural type to the stratification label,
// falling back to UnknownLabel when the classification is absent.
func DeriveSystem(structuralType string) string {
	if structuralType == "" {
		return UnknownLabel
	}
	return structuralType
}
