package model

import "time"

// Attachment describes one physical file belonging to a document record.
type Attachment struct {
	DateAdded        time.Time `json:"dateAdded"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"originalFilename"`
	FileSize         int64     `json:"fileSize"`
	IsOriginalFile   bool      `json:"isOriginalFile"`
}

// NewAttachment builds a descriptor for a freshly attached file.
// Filename and OriginalFilename start out identical; Filename changes
// later if the file is renamed during deduplication, OriginalFilename
// never does.
func NewAttachment(filename string, size int64, isOriginal bool) Attachment {
	return Attachment{
		Filename:         filename,
		OriginalFilename: filename,
		FileSize:         size,
		DateAdded:        time.Now().UTC(),
		IsOriginalFile:   isOriginal,
	}
}
