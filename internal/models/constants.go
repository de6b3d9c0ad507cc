package models

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	// SessionPolicyDisplace invalidates the previous token on a new login.
	SessionPolicyDisplace = "displace"
	// SessionPolicyReject refuses a second login while a session is live.
	SessionPolicyReject = "reject"
)

const (
	// DefaultSessionTTL lifetime of a session record in seconds
	DefaultSessionTTL = 24 * 60 * 60

	// DefaultLoginAttempts login attempts allowed per window
	DefaultLoginAttempts = 10

	// DefaultLoginWindow login rate limit window in seconds
	DefaultLoginWindow = 60

	// BusinessHoursStart / BusinessHoursEnd default booking window
	BusinessHoursStart = "08:30"
	BusinessHoursEnd   = "17:30"
)
