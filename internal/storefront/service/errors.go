package service

import "errors"

// Error taxonomy for the auth core. The HTTP layer maps these to status
// codes; services never see status codes.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login responses don't reveal which half failed.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrUnauthenticated reports a missing, malformed, expired, or tampered
	// session token, or a token referencing a user that no longer exists.
	ErrUnauthenticated = errors.New("service: unauthenticated")

	// ErrAccountBlocked reports a structurally valid session rejected
	// because the account is administratively blocked. Deliberately distinct
	// from ErrUnauthenticated so clients can tell "log in again" apart from
	// "your account is blocked".
	ErrAccountBlocked = errors.New("service: account blocked")

	// ErrOTPNotFound reports an OTP lookup miss or a code mismatch.
	ErrOTPNotFound = errors.New("service: otp not found")

	// ErrOTPExpired reports an OTP past its validity window.
	ErrOTPExpired = errors.New("service: otp expired")

	// ErrEmailTaken reports a signup against an already registered email.
	ErrEmailTaken = errors.New("service: email already registered")

	// ErrUserNotFound reports an operation against a user id that does not
	// exist. Only administrative flows surface this; customer-facing flows
	// use ErrUnauthenticated or ErrOTPNotFound to avoid enumeration.
	ErrUserNotFound = errors.New("service: user not found")

	// ErrUpstream reports a store or mailer failure. A transient outage must
	// never be dressed up as an authentication or authorization decision.
	ErrUpstream = errors.New("service: upstream dependency failed")
)
