package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"famnet-backend/internal/chat"
	"famnet-backend/internal/repositories"
	"famnet-backend/internal/video"
)

// VideoHandler issues call tokens for room video sessions.
type VideoHandler struct {
	calls *video.Service
	users repositories.UserRepository
}

// NewVideoHandler builds a VideoHandler.
func NewVideoHandler(calls *video.Service, users repositories.UserRepository) *VideoHandler {
	return &VideoHandler{calls: calls, users: users}
}

// Join returns an SFU token and ICE configuration for the room's call.
func (h *VideoHandler) Join(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := c.GetInt("userID")
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	resp, err := h.calls.JoinCall(c.Request.Context(), roomID, userID, user.FullName())
	if err != nil {
		if errors.Is(err, chat.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join call"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// End marks the room's call as finished.
func (h *VideoHandler) End(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.calls.EndCall(c.Request.Context(), roomID, userID); err != nil {
		switch {
		case errors.Is(err, chat.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		case errors.Is(err, repositories.ErrCallNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no ongoing call"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not end call"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}
