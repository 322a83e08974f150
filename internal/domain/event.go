package domain

import "time"

type EventKind string

const (
	EventLogin          EventKind = "session.login"
	EventLogout         EventKind = "session.logout"
	EventPostCreated    EventKind = "post.created"
	EventPostUpdated    EventKind = "post.updated"
	EventPostDeleted    EventKind = "post.deleted"
	EventPostLiked      EventKind = "post.liked"
	EventPostCommented  EventKind = "post.commented"
	EventAccountCreated EventKind = "account.created"
	EventAccountUpdated EventKind = "account.updated"
	EventAccountDeleted EventKind = "account.deleted"
)

// Event describes a state change initiated from this client.
type Event struct {
	Kind    EventKind `json:"kind"`
	Subject string    `json:"subject,omitempty"` // post or account id
	Actor   string    `json:"actor,omitempty"`   // session email, empty when anonymous
	At      time.Time `json:"at"`
}
