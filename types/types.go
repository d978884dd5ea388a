package types

import "time"

// UploadDateLayout is the ISO-8601 layout used for FileRecord.UploadDate.
// It matches what a browser's Date.toISOString produces.
const UploadDateLayout = "2006-01-02T15:04:05.000Z"

// FileRecord represents one stored file, metadata plus encoded content.
// The json tags are the persisted shape of a record.
type FileRecord struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"type"`
	Size       int64  `json:"size"`
	Data       string `json:"data"` // data url, embeds MimeType
	UploadDate string `json:"uploadDate"`
}

// FileInfo is a FileRecord without its content, used when listing files over the api.
type FileInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"type"`
	Size       int64  `json:"size"`
	UploadDate string `json:"uploadDate"`
}

// Info strips the encoded content from the record.
func (r FileRecord) Info() FileInfo {
	return FileInfo{
		ID:         r.ID,
		Name:       r.Name,
		MimeType:   r.MimeType,
		Size:       r.Size,
		UploadDate: r.UploadDate,
	}
}

// UploadedAt parses UploadDate, returning the zero time if it can't be parsed.
func (r FileRecord) UploadedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.UploadDate)
	if err != nil {
		return time.Time{}
	}

	return t
}

// FormatUploadDate formats t the way UploadDate is stored.
func FormatUploadDate(t time.Time) string {
	return t.UTC().Format(UploadDateLayout)
}
