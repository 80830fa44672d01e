package handler

import (
	"net/http"

	"github.com/clipstream/clipstream/internal/constants"
	"github.com/clipstream/clipstream/internal/dto"
	apperrors "github.com/clipstream/clipstream/internal/errors"
	"github.com/clipstream/clipstream/internal/middleware"
	"github.com/clipstream/clipstream/internal/service"
	"github.com/clipstream/clipstream/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CurrentUser returns the authenticated user's profile
func (h *UserHandler) CurrentUser(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	user, err := h.userService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Failed to fetch user", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("User fetched successfully", user))
}

// ChangePassword verifies the current password and replaces it
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Warn("Invalid change-password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", middleware.ValidationErrorDetails(err)))
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Password change failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Password changed successfully"))
}

// UpdateAccount updates fullName and/or email
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Warn("Invalid account update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", middleware.ValidationErrorDetails(err)))
		return
	}

	user, err := h.userService.UpdateAccount(c.Request.Context(), userID, &req)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Account update failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Account updated successfully", user))
}

// UpdateAvatar replaces the avatar image
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, constants.FormFieldAvatar)
}

// UpdateCoverImage replaces the cover image
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, constants.FormFieldCoverImage)
}

func (h *UserHandler) updateImage(c *gin.Context, field string) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	file, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Image file is required", nil))
		return
	}

	var user *dto.UserResponse
	if field == constants.FormFieldAvatar {
		user, err = h.userService.UpdateAvatar(c.Request.Context(), userID, file)
	} else {
		user, err = h.userService.UpdateCoverImage(c.Request.Context(), userID, file)
	}
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Image update failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Image updated successfully", user))
}

// ChannelProfile returns the aggregated channel view for a username
func (h *UserHandler) ChannelProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	username := c.Param("username")

	profile, err := h.userService.GetChannelProfile(c.Request.Context(), username, userID)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Failed to fetch channel", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Channel fetched successfully", profile))
}

// WatchHistory returns the authenticated user's watch history
func (h *UserHandler) WatchHistory(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	history, err := h.userService.GetWatchHistory(c.Request.Context(), userID)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Failed to fetch watch history", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Watch history fetched successfully", history))
}
