package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"famnet-backend/internal/chat"
	"famnet-backend/internal/logger"
	"famnet-backend/internal/repositories"
	"famnet-backend/internal/telemetry"
)

// FamilyHandler manages family groups. Membership changes are followed by an
// explicit room sync so the family room always mirrors the member list.
type FamilyHandler struct {
	families repositories.FamilyRepository
	rooms    *chat.RoomService
	emitter  *telemetry.AuditEmitter
}

// NewFamilyHandler builds a FamilyHandler.
func NewFamilyHandler(families repositories.FamilyRepository, rooms *chat.RoomService, emitter *telemetry.AuditEmitter) *FamilyHandler {
	return &FamilyHandler{families: families, rooms: rooms, emitter: emitter}
}

// Create registers a family with the caller as creator and first member.
func (h *FamilyHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	family, err := h.families.CreateFamily(c.Request.Context(), userID, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create family"})
		return
	}

	h.syncRoom(c, family.ID)
	h.emitter.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("user %d created family %d", userID, family.ID),
		requestIDFromContext(c), &userID)
	c.JSON(http.StatusCreated, family)
}

// Join adds the caller to the family matching the invite code.
func (h *FamilyHandler) Join(c *gin.Context) {
	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
		Relation   string `json:"relation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	family, err := h.families.GetByInviteCode(c.Request.Context(), req.InviteCode)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid invite code"})
		return
	}

	if err := h.families.AddMember(c.Request.Context(), family.ID, userID, req.Relation); err != nil {
		if errors.Is(err, repositories.ErrAlreadyMember) {
			c.JSON(http.StatusConflict, gin.H{"error": "already a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join family"})
		return
	}

	h.syncRoom(c, family.ID)
	h.emitter.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("user %d joined family %d", userID, family.ID),
		requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, family)
}

// ListMine returns the families the caller belongs to.
func (h *FamilyHandler) ListMine(c *gin.Context) {
	userID := c.GetInt("userID")
	families, err := h.families.ListFamiliesForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load families"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"families": families})
}

// Members returns the family's member list, members only.
func (h *FamilyHandler) Members(c *gin.Context) {
	familyID, userID, ok := h.parseFamily(c)
	if !ok {
		return
	}

	member, err := h.families.IsMember(c.Request.Context(), familyID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a family member"})
		return
	}

	members, err := h.families.Members(c.Request.Context(), familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load members"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// RotateInviteCode issues a fresh invite code, invalidating the old one.
func (h *FamilyHandler) RotateInviteCode(c *gin.Context) {
	familyID, userID, ok := h.parseFamily(c)
	if !ok {
		return
	}
	if !h.requireManager(c, familyID, userID) {
		return
	}

	family, err := h.families.RotateInviteCode(c.Request.Context(), familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not rotate invite code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invite_code": family.InviteCode})
}

// RemoveMember expels a member. The creator cannot be removed.
func (h *FamilyHandler) RemoveMember(c *gin.Context) {
	familyID, userID, ok := h.parseFamily(c)
	if !ok {
		return
	}
	memberID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if !h.requireManager(c, familyID, userID) {
		return
	}

	family, err := h.families.GetFamily(c.Request.Context(), familyID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "family not found"})
		return
	}
	if memberID == family.CreatorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot remove the creator"})
		return
	}

	if err := h.families.RemoveMember(c.Request.Context(), familyID, memberID); err != nil {
		if errors.Is(err, repositories.ErrNotMember) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove member"})
		return
	}

	h.syncRoom(c, familyID)
	h.emitter.Emit(c.Request.Context(), "WARNING",
		fmt.Sprintf("user %d removed member %d from family %d", userID, memberID, familyID),
		requestIDFromContext(c), &userID)
	c.Status(http.StatusNoContent)
}

// Leave removes the caller from the family. The creator must delete instead.
func (h *FamilyHandler) Leave(c *gin.Context) {
	familyID, userID, ok := h.parseFamily(c)
	if !ok {
		return
	}

	family, err := h.families.GetFamily(c.Request.Context(), familyID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "family not found"})
		return
	}
	if userID == family.CreatorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "creator cannot leave, delete the family instead"})
		return
	}

	if err := h.families.RemoveMember(c.Request.Context(), familyID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotMember) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave family"})
		return
	}

	h.syncRoom(c, familyID)
	c.Status(http.StatusNoContent)
}

// GrantAdmin promotes a member, creator only.
func (h *FamilyHandler) GrantAdmin(c *gin.Context) {
	h.setAdmin(c, true)
}

// RevokeAdmin demotes an admin, creator only.
func (h *FamilyHandler) RevokeAdmin(c *gin.Context) {
	h.setAdmin(c, false)
}

func (h *FamilyHandler) setAdmin(c *gin.Context, grant bool) {
	familyID, userID, ok := h.parseFamily(c)
	if !ok {
		return
	}
	memberID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	family, err := h.families.GetFamily(c.Request.Context(), familyID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "family not found"})
		return
	}
	if userID != family.CreatorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator manages admins"})
		return
	}

	member, err := h.families.IsMember(c.Request.Context(), familyID, memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update admins"})
		return
	}
	if !member {
		c.JSON(http.StatusNotFound, gin.H{"error": "not a member"})
		return
	}

	if grant {
		err = h.families.GrantAdmin(c.Request.Context(), familyID, memberID)
	} else {
		err = h.families.RevokeAdmin(c.Request.Context(), familyID, memberID)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotMember) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update admins"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Delete removes the family, its room and all memberships, creator only.
func (h *FamilyHandler) Delete(c *gin.Context) {
	familyID, userID, ok := h.parseFamily(c)
	if !ok {
		return
	}

	family, err := h.families.GetFamily(c.Request.Context(), familyID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "family not found"})
		return
	}
	if userID != family.CreatorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can delete the family"})
		return
	}

	if err := h.rooms.DeleteFamilyRoom(c.Request.Context(), familyID); err != nil {
		logger.Log.Warn("family room delete failed", zap.Int("family_id", familyID), zap.Error(err))
	}
	if err := h.families.DeleteFamily(c.Request.Context(), familyID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete family"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "WARNING",
		fmt.Sprintf("user %d deleted family %d", userID, familyID),
		requestIDFromContext(c), &userID)
	c.Status(http.StatusNoContent)
}

func (h *FamilyHandler) parseFamily(c *gin.Context) (familyID, userID int, ok bool) {
	familyID, err := strconv.Atoi(c.Param("family_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid family id"})
		return 0, 0, false
	}
	return familyID, c.GetInt("userID"), true
}

// requireManager admits the creator and admins.
func (h *FamilyHandler) requireManager(c *gin.Context, familyID, userID int) bool {
	family, err := h.families.GetFamily(c.Request.Context(), familyID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "family not found"})
		return false
	}
	if userID == family.CreatorID {
		return true
	}
	admin, err := h.families.IsAdmin(c.Request.Context(), familyID, userID)
	if err != nil || !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return false
	}
	return true
}

// syncRoom refreshes the family room's participant list after a membership
// change. Failures are logged, the membership change itself already stuck.
func (h *FamilyHandler) syncRoom(c *gin.Context, familyID int) {
	if _, err := h.rooms.SyncFamilyRoom(c.Request.Context(), familyID); err != nil {
		logger.Log.Warn("family room sync failed", zap.Int("family_id", familyID), zap.Error(err))
	}
}
