package constants

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	DefaultPageSize = 20
	MaxPageSize     = 100

	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Gin context keys populated by the auth middleware.
	ContextKeyUserID       = "user_id"
	ContextKeyRole         = "user_role"
	ContextKeySubAuthority = "sub_authority"
	ContextKeyRequestID    = "request_id"
)
