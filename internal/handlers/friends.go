package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"famnet-backend/internal/repositories"
	"famnet-backend/internal/telemetry"
)

// FriendHandler manages the friendship lifecycle endpoints.
type FriendHandler struct {
	friends repositories.FriendshipRepository
	users   repositories.UserRepository
	emitter *telemetry.AuditEmitter
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friends repositories.FriendshipRepository, users repositories.UserRepository, emitter *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friends: friends, users: users, emitter: emitter}
}

// SendRequest creates a pending friend request towards another user.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if _, err := h.users.GetByID(c.Request.Context(), req.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	friendship, err := h.friends.SendRequest(c.Request.Context(), userID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSelfFriendship):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot friend yourself"})
		case errors.Is(err, repositories.ErrAlreadyRequested):
			c.JSON(http.StatusConflict, gin.H{"error": "request already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send request"})
		}
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("user %d sent friend request to %d", userID, req.UserID),
		requestIDFromContext(c), &userID)
	c.JSON(http.StatusCreated, friendship)
}

// Accept confirms a pending request addressed to the caller.
func (h *FriendHandler) Accept(c *gin.Context) {
	fromID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.friends.Accept(c.Request.Context(), userID, fromID); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not accept request"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("user %d accepted friend request from %d", userID, fromID),
		requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// Decline rejects a pending request addressed to the caller.
func (h *FriendHandler) Decline(c *gin.Context) {
	fromID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.friends.Decline(c.Request.Context(), userID, fromID); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decline request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "declined"})
}

// Remove dissolves an accepted friendship. Removing a non-friend is a no-op.
func (h *FriendHandler) Remove(c *gin.Context) {
	friendID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.friends.Remove(c.Request.Context(), userID, friendID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove friend"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("user %d removed friend %d", userID, friendID),
		requestIDFromContext(c), &userID)
	c.Status(http.StatusNoContent)
}

// ListFriends returns the caller's accepted friends.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := c.GetInt("userID")
	friends, err := h.friends.ListFriends(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load friends"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// ListPending returns requests awaiting the caller's decision.
func (h *FriendHandler) ListPending(c *gin.Context) {
	userID := c.GetInt("userID")
	requests, err := h.friends.ListPendingRequests(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}
