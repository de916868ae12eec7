package common

// AuthorizationHeaderName is the gRPC metadata key used to carry the bearer
// token on authenticated requests.
const AuthorizationHeaderName = "authorization"

// TokenType is the scheme prefix of the authorization header value.
const TokenType = "Bearer"
