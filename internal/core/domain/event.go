package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	EventLoginSucceeded  AuthEventType = "auth.login.success"
	EventLoginFailed     AuthEventType = "auth.login.failed"
	EventRegistered      AuthEventType = "auth.register"
	EventExternalLinked  AuthEventType = "auth.external.linked"
	EventLogout          AuthEventType = "auth.logout"
	EventPasswordChanged AuthEventType = "auth.password.changed"
)

// AuthEvent is a single audit record. AccountID is empty when the attempt did
// not resolve to an account.
type AuthEvent struct {
	Type      AuthEventType
	AccountID string
	Username  string
	Method    string
	Reason    string // optional
	IP        string
	UserAgent string
	Timestamp time.Time
}
