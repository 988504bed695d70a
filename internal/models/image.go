package models

// ImageRecord is the metadata row describing one stored image. The binary
// content lives in the object store under BlobKey; everything else lives here.
// CreatedAt is an ISO-8601 UTC string and doubles as the range key for
// owner-scoped date queries, so it must stay lexicographically ordered.
type ImageRecord struct {
	ImageID     string   `json:"image_id"`
	OwnerID     string   `json:"user_id"`
	DisplayName string   `json:"image_name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
	BlobKey     string   `json:"s3_key"`
	ByteSize    int64    `json:"file_size"`
	MimeType    string   `json:"mime_type"`
	ContentHash string   `json:"file_hash,omitempty"`
}

// DeleteResult confirms a completed deletion.
type DeleteResult struct {
	ImageID   string `json:"image_id"`
	BlobKey   string `json:"s3_key"`
	DeletedAt string `json:"deleted_at"`
}

type SortField string

const (
	SortByCreatedAt   SortField = "created_at"
	SortByDisplayName SortField = "image_name"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type AccessMode string

const (
	AccessModeView     AccessMode = "view"
	AccessModeDownload AccessMode = "download"
)
