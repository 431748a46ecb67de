package common

// Keys of the persisted Session Record.
const (
	SessionKeyAuthToken         = "authToken"
	SessionKeyUserID            = "userId"
	SessionKeyAuthenticatedUser = "authenticated_user"
)

// RequestIDHeaderName is attached to every outbound HTTP request.
const RequestIDHeaderName = "X-Request-ID"
