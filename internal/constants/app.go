package constants

// Cookie names for the browser-facing session tokens
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
)

// Multipart form field names for media uploads
const (
	FormFieldAvatar     = "avatar"
	FormFieldCoverImage = "coverImage"
)

// Mongo collection names
const (
	CollectionUsers         = "users"
	CollectionVideos        = "videos"
	CollectionSubscriptions = "subscriptions"
)
