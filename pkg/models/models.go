package models

import "time"

// Category classifies works and drives the gallery filters.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Work is a single portfolio item
type Work struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	ImageURL   string   `json:"imageUrl"`
	CategoryID int      `json:"categoryId,omitempty"`
	UserID     int      `json:"userId,omitempty"`
	Category   Category `json:"category"`
}

// CategoryKey returns the category id of the work, falling back to the flat
// categoryId field some backends send on freshly created works.
func (w Work) CategoryKey() int {
	if w.Category.ID != 0 {
		return w.Category.ID
	}
	return w.CategoryID
}

// Credentials are posted to /users/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the authenticated-user state persisted between runs.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the session holds a token that has not expired at now.
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" || s.IssuedAt.IsZero() {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// ImageFile is an in-memory image upload.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewWork is the payload of a work creation.
type NewWork struct {
	Title      string
	CategoryID int
	Image      ImageFile
}
