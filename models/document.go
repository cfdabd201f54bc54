package models

import (
	"time"

	"gorm.io/gorm"
)

// DocumentKind classifies an uploaded employment document.
type DocumentKind string

const (
	KindContract   DocumentKind = "contract"
	KindPolicy     DocumentKind = "policy"
	KindNDA        DocumentKind = "nda"
	KindRegulation DocumentKind = "regulation"
	KindPayslip    DocumentKind = "payslip"
	KindOther      DocumentKind = "other"
)

// ParseDocumentKind maps free input onto a known kind, defaulting to other.
func ParseDocumentKind(s string) DocumentKind {
	switch k := DocumentKind(s); k {
	case KindContract, KindPolicy, KindNDA, KindRegulation, KindPayslip:
		return k
	default:
		return KindOther
	}
}

// IndexingStatus is the lifecycle state of a file attached to an index.
type IndexingStatus string

const (
	StatusProcessing IndexingStatus = "processing"
	StatusCompleted  IndexingStatus = "completed"
	StatusFailed     IndexingStatus = "failed"
	StatusCancelled  IndexingStatus = "cancelled"
)

// IsTerminal reports whether indexing has finished one way or another.
func (s IndexingStatus) IsTerminal() bool {
	return s != StatusProcessing
}

// IndexedDocument represents one uploaded file registered in a retrieval index.
type IndexedDocument struct {
	// ID is the row identifier, stored as a UUID in the database.
	ID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`

	// OwnerID is the tenant key. Every indexed document has one.
	OwnerID string `gorm:"not null;index" json:"owner_id"`

	// SessionID is set only for conversation-scoped, ephemeral documents.
	SessionID *string `gorm:"index" json:"session_id,omitempty"`

	DocumentKind DocumentKind `gorm:"type:varchar(32);not null" json:"document_kind"`
	FileName     string       `json:"file_name"`

	// RawFileRef is the opaque id of the file in the raw blob store.
	RawFileRef string `gorm:"not null" json:"raw_file_ref"`

	// IndexID and IndexEntryRef locate the attachment inside the index.
	IndexID       string `gorm:"not null;index" json:"index_id"`
	IndexEntryRef string `gorm:"not null" json:"index_entry_ref"`

	IndexingStatus IndexingStatus `gorm:"type:varchar(16);not null" json:"indexing_status"`

	// ExpiresAt is nil for documents that never expire.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// ArchiveKey is the object-storage key of the archived original, if any.
	ArchiveKey string `json:"archive_key,omitempty"`

	// Attributes holds whatever the index reported back; not persisted.
	Attributes map[string]any `gorm:"-" json:"attributes,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsExpired reports whether the document is past its expiry at now.
func (d IndexedDocument) IsExpired(now time.Time) bool {
	return d.ExpiresAt != nil && d.ExpiresAt.Before(now)
}
