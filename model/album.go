package model

import (
	"time"

	"gorm.io/gorm"
)

// DefaultArtist is stored when an album is saved without an artist.
const DefaultArtist = "Not Available"

// Album 表示目录中的一张专辑
type Album struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title             string    `gorm:"size:255;not null;index" json:"title"`
	Artist            string    `gorm:"size:255;not null;default:'Not Available'" json:"artist"`
	Genre             string    `gorm:"size:100" json:"genre,omitempty"`
	ReleaseYear       int       `json:"releaseYear,omitempty"`
	Description       string    `gorm:"type:text" json:"description,omitempty"` // no length limit
	Cost              float64   `json:"cost"`
	QuantityAvailable int       `json:"quantityAvailable"`
	CoverPath         string    `gorm:"size:512" json:"coverPath,omitempty"` // object key in the cover bucket
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TableName explicitly sets the table name for GORM.
func (Album) TableName() string {
	return "albums"
}

// ApplyDefaults fills optional fields that have a stored default.
func (a *Album) ApplyDefaults() {
	if a.Artist == "" {
		a.Artist = DefaultArtist
	}
}

// Validate checks the album without touching the database.
func (a *Album) Validate() error {
	v := &ValidationError{}
	v.required("title", a.Title)
	return v.err()
}

// BeforeSave runs on both create and update so no invalid row is written.
func (a *Album) BeforeSave(tx *gorm.DB) error {
	a.ApplyDefaults()
	return a.Validate()
}
