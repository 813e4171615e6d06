// Package audit records who authenticated, from where, and what happened.
// Events are emitted from domain logic through a non-blocking Recorder and
// drained by a background worker into a store, optionally fanning out to a
// Kafka sink. Recording never blocks or fails an authentication request.
package audit

import "time"

// Action names an auditable gateway event. Values are append-only: they end
// up in stored rows and Kafka messages that outlive any one deploy.
type Action string

const (
	ActionUserRegistered   Action = "user_registered"
	ActionSignInSucceeded  Action = "sign_in_succeeded"
	ActionSignInFailed     Action = "sign_in_failed"
	ActionSignedOut        Action = "signed_out"
	ActionLockoutTriggered Action = "lockout_triggered"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Email and IP are reduced before the event leaves the request: the recorder
// masks the address and truncates the IP to a network prefix, so stores never
// see raw personal data.
type Event struct {
	ID        string
	Timestamp time.Time
	Action    Action
	UserID    string
	Email     string
	IP        string
	Device    string
	RequestID string
	Reason    string
	Method    string
}
