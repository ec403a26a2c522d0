package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
	"github.com/nekogravitycat/crm-backend/internal/user"
)

type UserHandler struct {
	service    user.Service
	jwtManager *auth.JWTManager
}

func NewUserHandler(service user.Service, jwtManager *auth.JWTManager) *UserHandler {
	return &UserHandler{service: service, jwtManager: jwtManager}
}

// Register creates an account and signs the new user in.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	u, err := h.service.Register(c.Request.Context(), user.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, "User registered successfully", u)
}

// Login exchanges credentials for an access token.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	u, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respondWithToken(c, http.StatusOK, "Login successful", u)
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, message string, u *user.User) {
	token, err := h.jwtManager.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(status, AuthResponse{
		Message: message,
		Token:   token,
		User:    NewUserResponse(u),
	})
}

// ForgotPassword starts the reset flow. The answer never reveals whether
// the email is registered.
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: ForgotPasswordMessage})
}

// ResetPassword consumes a reset token and sets a new password.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var uri ResetTokenURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), uri.Token, req.Password, req.ConfirmPassword); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset successfully"})
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.service.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{User: NewUserResponse(u)})
}

// UpdateProfile changes the caller's name or email.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	u, err := h.service.UpdateProfile(c.Request.Context(), identity, user.UpdateProfileRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{Message: "Profile updated successfully", User: NewUserResponse(u)})
}

// ChangePassword replaces the caller's password after checking the current one.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	if err := h.service.ChangePassword(c.Request.Context(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}
