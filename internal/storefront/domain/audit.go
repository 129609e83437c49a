package domain

import "time"

// Audit actions recorded by the auth subsystem.
const (
	AuditLoginSuccess  = "login_success"
	AuditLoginFailure  = "login_failure"
	AuditSignup        = "signup"
	AuditPasswordReset = "password_reset"
	AuditOTPIssued     = "otp_issued"
	AuditUserBlocked   = "user_blocked"
	AuditUserUnblocked = "user_unblocked"
)

// AuditEntry is one row in the auth audit log. Entries are append-only and
// pruned by housekeeping after the retention window.
type AuditEntry struct {
	ID        string
	Action    string
	UserID    string // may be empty when the actor is anonymous (failed login)
	Email     string
	Detail    string
	CreatedAt time.Time
}
