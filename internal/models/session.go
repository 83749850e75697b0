package models

import "time"

// Session is one anonymous browser/terminal conversation, identified by the
// opaque key carried in the visitor's cookie.
type Session struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
