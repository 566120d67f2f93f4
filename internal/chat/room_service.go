package chat

import (
	"context"

	"famnet-backend/internal/models"
	"famnet-backend/internal/repositories"
)

// RoomService resolves rooms: find-or-create private rooms, group lifecycle
// management and the system-managed family rooms.
type RoomService struct {
	rooms    repositories.RoomRepository
	friends  repositories.FriendshipRepository
	families repositories.FamilyRepository
	hub      Broadcaster
}

// NewRoomService builds a RoomService.
func NewRoomService(rooms repositories.RoomRepository, friends repositories.FriendshipRepository, families repositories.FamilyRepository, hub Broadcaster) *RoomService {
	return &RoomService{rooms: rooms, friends: friends, families: families, hub: hub}
}

// GetOrCreatePrivate returns the canonical private room for the pair,
// creating it on first use. Friendship gates creation.
func (s *RoomService) GetOrCreatePrivate(ctx context.Context, userID, otherID int) (models.RoomSummary, error) {
	if userID == otherID {
		return models.RoomSummary{}, repositories.ErrSelfRoom
	}
	friends, err := s.friends.AreFriends(ctx, userID, otherID)
	if err != nil {
		return models.RoomSummary{}, err
	}
	if !friends {
		return models.RoomSummary{}, ErrNotFriends
	}

	room, _, err := s.rooms.GetOrCreatePrivate(ctx, userID, otherID)
	if err != nil {
		return models.RoomSummary{}, err
	}
	return s.summarize(ctx, room)
}

// CreateGroup creates a group room; the creator always joins the member set.
func (s *RoomService) CreateGroup(ctx context.Context, creatorID int, title, description string, memberIDs []int) (models.RoomSummary, error) {
	room, err := s.rooms.CreateGroup(ctx, creatorID, title, description, memberIDs)
	if err != nil {
		return models.RoomSummary{}, err
	}
	return s.summarize(ctx, room)
}

// ListRooms returns the user's rooms with participants attached.
func (s *RoomService) ListRooms(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	rooms, err := s.rooms.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary, err := s.summarize(ctx, room)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// AddParticipants lets a participant grow the room.
func (s *RoomService) AddParticipants(ctx context.Context, actorID, roomID int, userIDs []int) error {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return err
	}
	member, err := s.rooms.IsParticipant(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotParticipant
	}
	return s.rooms.AddParticipants(ctx, roomID, userIDs)
}

// RemoveParticipant lets the creator evict a member. The creator itself can
// never be removed.
func (s *RoomService) RemoveParticipant(ctx context.Context, actorID, roomID, userID int) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy == nil || *room.CreatedBy != actorID {
		return ErrForbidden
	}
	if *room.CreatedBy == userID {
		return ErrCreatorImmutable
	}
	return s.rooms.RemoveParticipant(ctx, roomID, userID)
}

// Leave removes the actor from the room. The creator must transfer
// ownership first.
func (s *RoomService) Leave(ctx context.Context, actorID, roomID int) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy != nil && *room.CreatedBy == actorID {
		return ErrCreatorMustTransfer
	}
	return s.rooms.RemoveParticipant(ctx, roomID, actorID)
}

// TransferOwnership hands the room to another existing participant.
func (s *RoomService) TransferOwnership(ctx context.Context, actorID, roomID, newOwnerID int) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy == nil || *room.CreatedBy != actorID {
		return ErrForbidden
	}
	member, err := s.rooms.IsParticipant(ctx, roomID, newOwnerID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNewOwnerNotMember
	}
	return s.rooms.TransferOwnership(ctx, roomID, newOwnerID)
}

// DeleteRoom removes the room and everything in it. Creator only.
func (s *RoomService) DeleteRoom(ctx context.Context, actorID, roomID int) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy == nil || *room.CreatedBy != actorID {
		return ErrForbidden
	}
	return s.rooms.DeleteRoom(ctx, roomID)
}

// SyncFamilyRoom mirrors the family's membership into its system-managed
// room. Called from every family membership mutation path.
func (s *RoomService) SyncFamilyRoom(ctx context.Context, familyID int) (models.RoomSummary, error) {
	family, err := s.families.GetFamily(ctx, familyID)
	if err != nil {
		return models.RoomSummary{}, err
	}
	memberIDs, err := s.families.MemberIDs(ctx, familyID)
	if err != nil {
		return models.RoomSummary{}, err
	}
	room, err := s.rooms.SyncFamilyRoom(ctx, family, memberIDs)
	if err != nil {
		return models.RoomSummary{}, err
	}
	return s.summarize(ctx, room)
}

// DeleteFamilyRoom drops the room when its family goes away.
func (s *RoomService) DeleteFamilyRoom(ctx context.Context, familyID int) error {
	return s.rooms.DeleteFamilyRoom(ctx, familyID)
}

func (s *RoomService) summarize(ctx context.Context, room models.Room) (models.RoomSummary, error) {
	participants, err := s.rooms.Participants(ctx, room.ID)
	if err != nil {
		return models.RoomSummary{}, err
	}
	return models.RoomSummary{Room: room, Participants: participants}, nil
}
