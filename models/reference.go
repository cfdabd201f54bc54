package models

import (
	"encoding/json"
	"fmt"
)

// ReferenceType discriminates the Reference union.
type ReferenceType string

const (
	RefStoredRegulation ReferenceType = "stored_regulation"
	RefWebSearch        ReferenceType = "web_search"
)

// StoredRegulationReference cites a document from the regulation corpus.
type StoredRegulationReference struct {
	SourceID          string   `json:"source_id"`
	Title             string   `json:"title"`
	Article           string   `json:"article,omitempty"`
	Excerpt           string   `json:"excerpt"`
	RegulationFileRef string   `json:"regulation_file_ref"`
	RelevanceScore    *float64 `json:"relevance_score,omitempty"`
}

// WebSearchReference cites a live web result.
type WebSearchReference struct {
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Snippet        string   `json:"snippet"`
	Domain         string   `json:"domain"`
	PublishedDate  string   `json:"published_date,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// Reference is a citation backing a finding. Exactly one variant pointer is
// set, matching Type.
type Reference struct {
	Type             ReferenceType
	StoredRegulation *StoredRegulationReference
	WebSearch        *WebSearchReference
}

// NewStoredRegulationReference wraps a stored-regulation citation.
func NewStoredRegulationReference(r StoredRegulationReference) Reference {
	return Reference{Type: RefStoredRegulation, StoredRegulation: &r}
}

// NewWebSearchReference wraps a web citation.
func NewWebSearchReference(r WebSearchReference) Reference {
	return Reference{Type: RefWebSearch, WebSearch: &r}
}

// Key returns the deduplication identity of the reference. ok is false when
// the variant payload is missing or carries no usable identity.
func (r Reference) Key() (key string, ok bool) {
	switch r.Type {
	case RefStoredRegulation:
		if r.StoredRegulation == nil {
			return "", false
		}
		if r.StoredRegulation.RegulationFileRef != "" {
			return r.StoredRegulation.RegulationFileRef, true
		}
		return r.StoredRegulation.SourceID, r.StoredRegulation.SourceID != ""
	case RefWebSearch:
		if r.WebSearch == nil {
			return "", false
		}
		return r.WebSearch.URL, r.WebSearch.URL != ""
	}
	return "", false
}

func (r Reference) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case RefStoredRegulation:
		if r.StoredRegulation == nil {
			return nil, fmt.Errorf("reference %q has no payload", r.Type)
		}
		return json.Marshal(struct {
			Type ReferenceType `json:"type"`
			*StoredRegulationReference
		}{r.Type, r.StoredRegulation})
	case RefWebSearch:
		if r.WebSearch == nil {
			return nil, fmt.Errorf("reference %q has no payload", r.Type)
		}
		return json.Marshal(struct {
			Type ReferenceType `json:"type"`
			*WebSearchReference
		}{r.Type, r.WebSearch})
	default:
		return nil, fmt.Errorf("unknown reference type %q", r.Type)
	}
}

// UnmarshalJSON dispatches on "type". Model output sometimes drops the
// discriminant; a reference carrying a url is then read as a web result.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var head struct {
		Type ReferenceType `json:"type"`
		URL  string        `json:"url"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Type == "" {
		head.Type = RefStoredRegulation
		if head.URL != "" {
			head.Type = RefWebSearch
		}
	}

	switch head.Type {
	case RefStoredRegulation:
		var v StoredRegulationReference
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*r = Reference{Type: head.Type, StoredRegulation: &v}
	case RefWebSearch:
		var v WebSearchReference
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*r = Reference{Type: head.Type, WebSearch: &v}
	default:
		return fmt.Errorf("unknown reference type %q", head.Type)
	}
	return nil
}

// RegulationInfo is derived from a regulation title.
type RegulationInfo struct {
	Type     string `json:"type"`
	Number   string `json:"number"`
	Category string `json:"category"`
}

// AggregatedRegulation is one deduplicated stored-regulation source.
type AggregatedRegulation struct {
	StoredRegulationReference
	RegulationType     string   `json:"regulation_type"`
	RegulationNumber   string   `json:"regulation_number"`
	RegulationCategory string   `json:"regulation_category"`
	UsedInFindings     []string `json:"used_in_findings"`
}

// AggregatedWebSource is one deduplicated web source.
type AggregatedWebSource struct {
	WebSearchReference
	UsedInFindings []string `json:"used_in_findings"`
}

// AggregatedReferences collapses every finding's citations into two lists.
type AggregatedReferences struct {
	StoredRegulations []AggregatedRegulation `json:"stored_regulations"`
	WebSources        []AggregatedWebSource  `json:"web_sources"`
}
