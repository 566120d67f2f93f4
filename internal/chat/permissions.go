package chat

import (
	"context"

	"famnet-backend/internal/models"
	"famnet-backend/internal/repositories"
)

// PermissionChecker decides whether an actor may delete a message. The rules
// are evaluated in order: message sender, room creator, family creator, then
// family admin who is also a member. A message whose author was deleted can
// only be removed through the room or family rules.
type PermissionChecker struct {
	rooms    repositories.RoomRepository
	families repositories.FamilyRepository
}

// NewPermissionChecker constructs a PermissionChecker.
func NewPermissionChecker(rooms repositories.RoomRepository, families repositories.FamilyRepository) *PermissionChecker {
	return &PermissionChecker{rooms: rooms, families: families}
}

// CanDelete reports whether actorID may delete msg.
func (p *PermissionChecker) CanDelete(ctx context.Context, actorID int, msg models.Message) (bool, error) {
	if msg.UserID != nil && *msg.UserID == actorID {
		return true, nil
	}

	room, err := p.rooms.GetRoom(ctx, msg.RoomID)
	if err != nil {
		return false, err
	}
	if room.CreatedBy != nil && *room.CreatedBy == actorID {
		return true, nil
	}

	if room.FamilyID == nil {
		return false, nil
	}

	family, err := p.families.GetFamily(ctx, *room.FamilyID)
	if err != nil {
		return false, err
	}
	if family.CreatorID == actorID {
		return true, nil
	}

	admin, err := p.families.IsAdmin(ctx, family.ID, actorID)
	if err != nil || !admin {
		return false, err
	}
	member, err := p.families.IsMember(ctx, family.ID, actorID)
	if err != nil {
		return false, err
	}
	return member, nil
}
