package jobs

import "time"

// WelcomePayload carries what the worker needs to greet a new user. Kept
// minimal and ID-based; the worker does not re-read the user row.
type WelcomePayload struct {
	UserID      int64     `json:"userId"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	RequestedAt time.Time `json:"requestedAt"`
	RequestID   string    `json:"requestId,omitempty"` // optional: correlation
}
