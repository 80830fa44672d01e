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

type AuthHandler struct {
	authService   *service.AuthService
	mediaService  *service.MediaService
	tokens        *service.TokenService
	secureCookies bool
}

func NewAuthHandler(authService *service.AuthService, mediaService *service.MediaService, tokens *service.TokenService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		mediaService:  mediaService,
		tokens:        tokens,
		secureCookies: secureCookies,
	}
}

// Register handles new user registration. The request is multipart: profile
// fields plus a required avatar image and an optional cover image, both of
// which are pushed to object storage before the account is created.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterUserRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.GetLogger().Warn("Invalid registration request", zap.Error(err))
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", middleware.ValidationErrorDetails(err)))
		return
	}

	avatarFile, err := c.FormFile(constants.FormFieldAvatar)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Avatar image is required", nil))
		return
	}

	avatarURL, err := h.mediaService.UploadImage(ctx, service.MediaPrefixAvatars, avatarFile)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Failed to store avatar", apperrors.GetErrorMessage(err)))
		return
	}

	// Cover image is optional
	var coverURL string
	if coverFile, err := c.FormFile(constants.FormFieldCoverImage); err == nil {
		coverURL, err = h.mediaService.UploadImage(ctx, service.MediaPrefixCovers, coverFile)
		if err != nil {
			status := apperrors.ToHTTPStatus(err)
			c.JSON(status, constants.BuildErrorResponse("Failed to store cover image", apperrors.GetErrorMessage(err)))
			return
		}
	}

	user, err := h.authService.Register(ctx, &req, avatarURL, coverURL)
	if err != nil {
		logger.GetLogger().Warn("Registration failed",
			zap.String("username", req.Username),
			zap.Error(err))
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Registration failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusCreated, constants.BuildDataResponse("User registered successfully", user))
}

// Login authenticates by username or email and issues the session pair. The
// tokens are returned in the body and also set as httpOnly cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Warn("Invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", middleware.ValidationErrorDetails(err)))
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Authentication failed", apperrors.GetErrorMessage(err)))
		return
	}

	h.setSessionCookies(c, response.AccessToken, response.RefreshToken)

	c.JSON(http.StatusOK, constants.BuildDataResponse("Login successful", response))
}

// RefreshToken rotates the session pair. The refresh token is read from the
// cookie first so browser clients refresh without a body; API clients send
// it in JSON instead.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	presented, _ := c.Cookie(constants.CookieRefreshToken)
	if presented == "" {
		var req dto.RefreshTokenRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	response, err := h.authService.RotateTokenPair(c.Request.Context(), presented)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Token refresh failed", apperrors.GetErrorMessage(err)))
		return
	}

	h.setSessionCookies(c, response.AccessToken, response.RefreshToken)

	c.JSON(http.StatusOK, constants.BuildDataResponse("Token refreshed successfully", response))
}

// Logout invalidates the session and clears both cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	if err := h.authService.InvalidateSession(c.Request.Context(), userID); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Logout failed", apperrors.GetErrorMessage(err)))
		return
	}

	h.clearSessionCookies(c)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Logout successful"))
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.CookieAccessToken, accessToken, int(h.tokens.AccessTTL().Seconds()), "/", "", h.secureCookies, true)
	c.SetCookie(constants.CookieRefreshToken, refreshToken, int(h.tokens.RefreshTTL().Seconds()), "/", "", h.secureCookies, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	c.SetCookie(constants.CookieAccessToken, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(constants.CookieRefreshToken, "", -1, "/", "", h.secureCookies, true)
}
