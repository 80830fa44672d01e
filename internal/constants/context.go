package constants

// Gin context keys set by the auth middleware
const (
	GinKeyUserID   = "user_id"
	GinKeyUsername = "username"
	GinKeyEmail    = "email"
	GinKeyFullName = "full_name"
)
