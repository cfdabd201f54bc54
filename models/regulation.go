package models

import (
	"time"

	"gorm.io/gorm"
)

// RegulationOwnerID owns every document of the shared regulation corpus.
const RegulationOwnerID = "regulation-corpus"

// Regulation is a statute or rule registered in the regulation index.
type Regulation struct {
	// ID is a unique identifier for the regulation, stored as a UUID in the database.
	ID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`

	// Title is the full instrument title, e.g. "UU No. 13/2003 tentang Ketenagakerjaan".
	Title string `gorm:"not null" json:"title"`

	// RegulationType, RegulationNumber and Category are derived from Title.
	RegulationType   string `gorm:"type:varchar(16)" json:"regulation_type"`
	RegulationNumber string `json:"regulation_number"`
	RegulationYear   string `gorm:"type:varchar(4)" json:"regulation_year"`
	Category         string `json:"category"`

	// RawFileRef, IndexID and IndexEntryRef locate the registered file.
	RawFileRef    string         `json:"raw_file_ref"`
	IndexID       string         `json:"index_id"`
	IndexEntryRef string         `json:"index_entry_ref"`
	Status        IndexingStatus `gorm:"type:varchar(16)" json:"status"`

	CreatedAt time.Time `json:"created_at"`

	// SearchContent is a computed field combining type, number and title.
	// It's not stored in the database.
	SearchContent string `gorm:"-" json:"-"`
}

// BeforeSave is a GORM hook to populate SearchContent.
func (r *Regulation) BeforeSave(tx *gorm.DB) error {
	r.SearchContent = r.RegulationType + " " + r.RegulationNumber + " " + r.Title
	return nil
}
