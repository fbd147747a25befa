package domain

import (
	"encoding/json"
	"time"
)

// Article is a published rich-text document indexed for full-text search.
// Content holds the plain text extracted from ContentJSON.
type Article struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content,omitempty"`
	ContentJSON json.RawMessage `json:"content_json,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
