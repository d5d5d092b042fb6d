package models

// AuthEvent is a change in who is signed in, as reported by the auth service.
type AuthEvent string

const (
	AuthEventInitialSession   AuthEvent = "INITIAL_SESSION"
	AuthEventSignedIn         AuthEvent = "SIGNED_IN"
	AuthEventSignedOut        AuthEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed   AuthEvent = "TOKEN_REFRESHED"
	AuthEventUserUpdated      AuthEvent = "USER_UPDATED"
	AuthEventPasswordRecovery AuthEvent = "PASSWORD_RECOVERY"
)

// AuthListener receives auth events. session is nil after sign-out.
type AuthListener func(event AuthEvent, session *Session)
