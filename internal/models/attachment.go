package models

import "time"

// AttachmentOwner names the kind of request an attachment belongs to.
type AttachmentOwner string

const (
	AttachmentOwnerLeave     AttachmentOwner = "leave"
	AttachmentOwnerMissPunch AttachmentOwner = "miss_punch"
)

// Attachment is a supporting document uploaded with a request.
type Attachment struct {
	ID          string          `db:"id" json:"id"`
	OwnerType   AttachmentOwner `db:"owner_type" json:"owner_type"`
	OwnerID     string          `db:"owner_id" json:"owner_id"`
	FileName    string          `db:"file_name" json:"file_name"`
	FileType    string          `db:"file_type" json:"file_type"`
	FilePath    string          `db:"file_path" json:"-"`
	SizeBytes   int64           `db:"size_bytes" json:"size_bytes"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	DownloadURL string          `db:"-" json:"download_url,omitempty"`
}
