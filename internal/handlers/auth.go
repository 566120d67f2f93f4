package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"famnet-backend/internal/auth"
	"famnet-backend/internal/mail"
	"famnet-backend/internal/repositories"
	"famnet-backend/internal/telemetry"
)

// AuthHandler manages registration, login and account endpoints.
type AuthHandler struct {
	users   repositories.UserRepository
	tokens  *auth.TokenManager
	mailer  *mail.Mailer
	emitter *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, tokens *auth.TokenManager, mailer *mail.Mailer, emitter *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, mailer: mailer, emitter: emitter}
}

// Register creates an account and sends the verification email.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Password  string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Email, req.FirstName, req.LastName, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	if token, err := h.tokens.IssuePurpose(user.ID, auth.PurposeVerifyEmail, 24*time.Hour); err == nil {
		h.mailer.SendVerificationEmail(user.Email, token)
	}

	h.emitter.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("user %d registered", user.ID), requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusCreated, user.Public())
}

// Login verifies credentials and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
		return
	}

	token, err := h.tokens.IssueAccess(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("user %d logged in", user.ID), requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.Public()})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile changes the caller's name fields.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req.FirstName, req.LastName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// VerifyEmail confirms the address carried by a verification token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	userID, err := h.tokens.Validate(token, auth.PurposeVerifyEmail)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err := h.users.MarkEmailVerified(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

// RequestEmailVerification re-sends the verification mail. Like the password
// reset request, the response never reveals whether the address exists.
func (h *AuthHandler) RequestEmailVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err == nil && !user.EmailVerified {
		if token, err := h.tokens.IssuePurpose(user.ID, auth.PurposeVerifyEmail, 24*time.Hour); err == nil {
			h.mailer.SendVerificationEmail(user.Email, token)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RequestPasswordReset mails a reset link. The response never reveals whether
// the address exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err == nil {
		if token, err := h.tokens.IssuePurpose(user.ID, auth.PurposePasswordReset, time.Hour); err == nil {
			h.mailer.SendPasswordResetEmail(user.Email, token)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ResetPassword sets a new password using a reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := h.tokens.Validate(req.Token, auth.PurposePasswordReset)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reset password"})
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), userID, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reset password"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "WARNING",
		fmt.Sprintf("user %d reset password", userID), requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
