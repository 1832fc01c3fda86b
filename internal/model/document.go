package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is the metadata record stored in a sidecar file next to the
// document it describes. One Document covers either a single file or a
// document-folder holding several attachments.
type Document struct {
	CreatedAt   time.Time        `json:"createdAt"`
	Amount      *decimal.Decimal `json:"amount"`
	Name        string           `json:"name"`
	Notes       string           `json:"notes"`
	Status      Status           `json:"status"`
	SourcePath  string           `json:"sourcePath,omitempty"`
	Attachments []Attachment     `json:"attachments"`
	Year        int              `json:"year"`
}

// IsLegacy reports whether this record predates the multi-attachment
// model. A nil attachment list is the marker: old sidecars simply never
// wrote the field.
func (d *Document) IsLegacy() bool {
	return d.Attachments == nil
}

// MigrateLegacy synthesizes the one-element attachment list for a legacy
// record from the live file's name and size. It mutates only the
// in-memory record; the sidecar on disk is untouched until the next save.
func (d *Document) MigrateLegacy(filename string, size int64) {
	if !d.IsLegacy() {
		return
	}
	d.Attachments = []Attachment{
		{
			Filename:         filename,
			OriginalFilename: filename,
			FileSize:         size,
			DateAdded:        d.CreatedAt,
			IsOriginalFile:   true,
		},
	}
}

// PrimaryAttachment returns the attachment flagged as the original file,
// falling back to the first attachment. Returns nil for records with no
// attachments.
func (d *Document) PrimaryAttachment() *Attachment {
	for i := range d.Attachments {
		if d.Attachments[i].IsOriginalFile {
			return &d.Attachments[i]
		}
	}
	if len(d.Attachments) > 0 {
		return &d.Attachments[0]
	}
	return nil
}

// RemoveAttachment deletes the attachment with the given filename from
// the list and reports whether anything was removed.
func (d *Document) RemoveAttachment(filename string) bool {
	for i := range d.Attachments {
		if d.Attachments[i].Filename == filename {
			d.Attachments = append(d.Attachments[:i], d.Attachments[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	dup := *d
	if d.Amount != nil {
		amount := *d.Amount
		dup.Amount = &amount
	}
	if d.Attachments != nil {
		dup.Attachments = make([]Attachment, len(d.Attachments))
		copy(dup.Attachments, d.Attachments)
	}
	return &dup
}

// DraftMeta carries the user-entered fields for an import or placeholder
// before a Document exists. Zero-value fields fall back to defaults at
// creation time (status to the registry default, year to the current
// selection).
type DraftMeta struct {
	Amount *decimal.Decimal
	Name   string
	Notes  string
	Status Status
	Year   int
}

// NewDocument creates a record from a draft. CreatedAt is set once here
// and never mutated afterwards.
func NewDocument(draft DraftMeta, sourcePath string) *Document {
	return &Document{
		Name:       draft.Name,
		Amount:     draft.Amount,
		Notes:      draft.Notes,
		Status:     draft.Status,
		Year:       draft.Year,
		CreatedAt:  time.Now().UTC(),
		SourcePath: sourcePath,
	}
}
