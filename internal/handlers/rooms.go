package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"famnet-backend/internal/chat"
	"famnet-backend/internal/repositories"
)

// RoomHandler exposes the REST surface over rooms. The same service layer
// backs the websocket actions, so the membership rules match on both paths.
type RoomHandler struct {
	rooms *chat.RoomService
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(rooms *chat.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// List returns the rooms visible to the caller.
func (h *RoomHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")
	rooms, err := h.rooms.ListRooms(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// CreatePrivate resolves the private room with another user, creating it on
// first use. Both callers racing here end up in the same room.
func (h *RoomHandler) CreatePrivate(c *gin.Context) {
	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	summary, err := h.rooms.GetOrCreatePrivate(c.Request.Context(), userID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSelfRoom):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		case errors.Is(err, chat.ErrNotFriends):
			c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve room"})
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CreateGroup opens a group room with the given members.
func (h *RoomHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		MemberIDs   []int  `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	summary, err := h.rooms.CreateGroup(c.Request.Context(), userID, req.Title, req.Description, req.MemberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// AddParticipants invites users into a group room.
func (h *RoomHandler) AddParticipants(c *gin.Context) {
	roomID, userID, ok := parseRoom(c)
	if !ok {
		return
	}

	var req struct {
		UserIDs []int `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.rooms.AddParticipants(c.Request.Context(), userID, roomID, req.UserIDs); err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RemoveParticipant expels a room member, creator only.
func (h *RoomHandler) RemoveParticipant(c *gin.Context) {
	roomID, userID, ok := parseRoom(c)
	if !ok {
		return
	}
	memberID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.rooms.RemoveParticipant(c.Request.Context(), userID, roomID, memberID); err != nil {
		respondRoomError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave removes the caller from the room.
func (h *RoomHandler) Leave(c *gin.Context) {
	roomID, userID, ok := parseRoom(c)
	if !ok {
		return
	}

	if err := h.rooms.Leave(c.Request.Context(), userID, roomID); err != nil {
		respondRoomError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TransferOwnership hands the room to another participant, creator only.
func (h *RoomHandler) TransferOwnership(c *gin.Context) {
	roomID, userID, ok := parseRoom(c)
	if !ok {
		return
	}

	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.rooms.TransferOwnership(c.Request.Context(), userID, roomID, req.UserID); err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Delete removes the room and its history, creator only.
func (h *RoomHandler) Delete(c *gin.Context) {
	roomID, userID, ok := parseRoom(c)
	if !ok {
		return
	}

	if err := h.rooms.DeleteRoom(c.Request.Context(), userID, roomID); err != nil {
		respondRoomError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseRoom(c *gin.Context) (roomID, userID int, ok bool) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return 0, 0, false
	}
	return roomID, c.GetInt("userID"), true
}

func respondRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, chat.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, chat.ErrCreatorImmutable):
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot remove the creator"})
	case errors.Is(err, chat.ErrCreatorMustTransfer):
		c.JSON(http.StatusConflict, gin.H{"error": "transfer ownership before leaving"})
	case errors.Is(err, chat.ErrNewOwnerNotMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": "new owner must be a participant"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room operation failed"})
	}
}
