package router

import "github.com/gin-gonic/gin"

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		// All user routes require JWT authentication
		users.Use(r.jwtMw.RequireAuth())
		{
			// Authenticated user's own profile
			users.GET("/current-user", r.userHandler.CurrentUser)

			// Update password with current password verification
			users.POST("/change-password", r.userHandler.ChangePassword)

			// Update fullName and/or email
			users.PATCH("/update-account", r.userHandler.UpdateAccount)

			// Replace profile images
			users.PATCH("/avatar", r.userHandler.UpdateAvatar)
			users.PATCH("/cover-image", r.userHandler.UpdateCoverImage)

			// Aggregated channel view
			users.GET("/c/:username", r.userHandler.ChannelProfile)

			// Watched videos with resolved owners
			users.GET("/history", r.userHandler.WatchHistory)
		}
	}
}
