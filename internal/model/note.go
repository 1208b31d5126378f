package model

import "time"

// Note is a free-form dated note with optional tags.
type Note struct {
	Date      time.Time
	CreatedAt time.Time
	ID        string
	Content   string
	Tags      []string
}
