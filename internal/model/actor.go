package model

// Capability names a privilege an actor may hold.
type Capability string

// CapabilityElevated is held by administrative users.
const CapabilityElevated Capability = "elevated"

// Actor is the user on whose behalf an operation runs.
type Actor struct {
	ID            string   `json:"id"`
	Roles         []string `json:"roles,omitempty"`
	Authenticated bool     `json:"authenticated"`
}

// Anonymous is the actor of requests that carried no credentials.
var Anonymous = Actor{}

// Known reports whether the actor is an authenticated, identified user.
func (a Actor) Known() bool {
	return a.Authenticated && a.ID != ""
}
