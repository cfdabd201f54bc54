package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Attribute keys attached to every indexed document.
const (
	AttrOwnerID      = "ownerId"
	AttrSessionID    = "sessionId"
	AttrDocumentKind = "documentKind"
	AttrExpiresAt    = "expiresAt"
	AttrSource       = "source"

	// Regulation documents only.
	AttrRegulationType   = "regulationType"
	AttrRegulationNumber = "regulationNumber"
	AttrRegulationYear   = "regulationYear"
	AttrTitle            = "title"
)

// Attributes is the metadata schema stored alongside an index entry.
type Attributes struct {
	OwnerID      string
	SessionID    string
	DocumentKind DocumentKind
	// ExpiresAt is unix seconds; nil means the entry never expires.
	ExpiresAt *int64
	Source    string

	RegulationType   string
	RegulationNumber string
	RegulationYear   string
	Title            string
}

// ToMap renders the attributes in provider form, leaving out unset optional keys.
func (a Attributes) ToMap() map[string]any {
	m := map[string]any{
		AttrOwnerID:      a.OwnerID,
		AttrDocumentKind: string(a.DocumentKind),
	}
	if a.SessionID != "" {
		m[AttrSessionID] = a.SessionID
	}
	if a.ExpiresAt != nil {
		m[AttrExpiresAt] = *a.ExpiresAt
	}
	if a.Source != "" {
		m[AttrSource] = a.Source
	}
	if a.DocumentKind == KindRegulation {
		m[AttrRegulationType] = a.RegulationType
		m[AttrRegulationNumber] = a.RegulationNumber
		m[AttrRegulationYear] = a.RegulationYear
		m[AttrTitle] = a.Title
	}
	return m
}

// AttributesFromMap reads a provider attribute map. An expiresAt value that
// cannot be parsed is reported as an error alongside the rest of the fields.
func AttributesFromMap(m map[string]any) (Attributes, error) {
	a := Attributes{
		OwnerID:          stringAttr(m, AttrOwnerID),
		SessionID:        stringAttr(m, AttrSessionID),
		DocumentKind:     ParseDocumentKind(stringAttr(m, AttrDocumentKind)),
		Source:           stringAttr(m, AttrSource),
		RegulationType:   stringAttr(m, AttrRegulationType),
		RegulationNumber: stringAttr(m, AttrRegulationNumber),
		RegulationYear:   stringAttr(m, AttrRegulationYear),
		Title:            stringAttr(m, AttrTitle),
	}
	raw, ok := m[AttrExpiresAt]
	if !ok || raw == nil {
		return a, nil
	}
	exp, err := ParseExpiresAt(raw)
	if err != nil {
		return a, err
	}
	a.ExpiresAt = &exp
	return a, nil
}

// ParseExpiresAt converts an expiresAt attribute to unix seconds. Providers
// hand back numbers as float64 and some clients store the value as a string.
func ParseExpiresAt(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid expiresAt %q: %w", t, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid expiresAt type %T", v)
	}
}

// ExpiresAtTime converts unix seconds to a UTC time pointer.
func ExpiresAtTime(sec *int64) *time.Time {
	if sec == nil {
		return nil
	}
	t := time.Unix(*sec, 0).UTC()
	return &t
}

func stringAttr(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
