package models

import "time"

// DocumentRecord holds the processed form of one uploaded document,
// scoped to a single chat session. At most one record is active per
// session; a new upload replaces it.
type DocumentRecord struct {
	FileName   string    `json:"file_name"`
	Chunks     []string  `json:"chunks"`
	Summary    string    `json:"summary"`
	UploadTime time.Time `json:"upload_time"`
}
