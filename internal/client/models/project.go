package models

type Project struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}

type Document struct {
	ID         int       `json:"id"`
	Filename   string    `json:"filename"`
	IsIndexed  bool      `json:"is_indexed"`
	UploadedAt Timestamp `json:"uploaded_at"`
}
