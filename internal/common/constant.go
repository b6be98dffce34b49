package common

const (
	// AuthorizationHeaderName carries the bearer token on protected requests.
	AuthorizationHeaderName = "Authorization"

	// AuthenticateHeaderName is the challenge header sent with auth failures.
	AuthenticateHeaderName = "WWW-Authenticate"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// TokenTypeBearer is reported to clients in the login response.
	TokenTypeBearer = "bearer"

	// RequestIDHeaderName is echoed back on every response.
	RequestIDHeaderName = "X-Request-ID"
)
