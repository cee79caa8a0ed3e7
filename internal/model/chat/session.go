package chat

import "time"

// Session captures a transient per-client conversation, created on first
// contact and held in process memory until restart.
type Session struct {
	ID           string    `json:"id"`
	Stage        Stage     `json:"stage"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}
