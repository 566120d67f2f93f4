package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"famnet-backend/internal/models"
	"famnet-backend/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, email, firstName, lastName, passwordHash string) (models.User, error) {
	args := m.Called(ctx, email, firstName, lastName, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int) ([]models.PublicUser, error) {
	args := m.Called(ctx, ids)
	var users []models.PublicUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicUser)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, userID int, online bool) error {
	args := m.Called(ctx, userID, online)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetLastIP(ctx context.Context, userID int, ip string) error {
	args := m.Called(ctx, userID, ip)
	return args.Error(0)
}

func (m *UserRepositoryMock) MarkEmailVerified(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, userID int, firstName, lastName string) (models.User, error) {
	args := m.Called(ctx, userID, firstName, lastName)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type FriendshipRepositoryMock struct {
	mock.Mock
}

func (m *FriendshipRepositoryMock) SendRequest(ctx context.Context, fromUserID, toUserID int) (models.Friendship, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	var edge models.Friendship
	if val := args.Get(0); val != nil {
		edge = val.(models.Friendship)
	}
	return edge, args.Error(1)
}

func (m *FriendshipRepositoryMock) Accept(ctx context.Context, byUserID, fromUserID int) error {
	args := m.Called(ctx, byUserID, fromUserID)
	return args.Error(0)
}

func (m *FriendshipRepositoryMock) Decline(ctx context.Context, byUserID, fromUserID int) error {
	args := m.Called(ctx, byUserID, fromUserID)
	return args.Error(0)
}

func (m *FriendshipRepositoryMock) Remove(ctx context.Context, userID, friendID int) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

func (m *FriendshipRepositoryMock) ListFriends(ctx context.Context, userID int) ([]models.PublicUser, error) {
	args := m.Called(ctx, userID)
	var friends []models.PublicUser
	if val := args.Get(0); val != nil {
		friends = val.([]models.PublicUser)
	}
	return friends, args.Error(1)
}

func (m *FriendshipRepositoryMock) ListPendingRequests(ctx context.Context, userID int) ([]models.FriendRequest, error) {
	args := m.Called(ctx, userID)
	var requests []models.FriendRequest
	if val := args.Get(0); val != nil {
		requests = val.([]models.FriendRequest)
	}
	return requests, args.Error(1)
}

func (m *FriendshipRepositoryMock) AreFriends(ctx context.Context, userID, friendID int) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) GetOrCreatePrivate(ctx context.Context, userID, otherID int) (models.Room, bool, error) {
	args := m.Called(ctx, userID, otherID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Bool(1), args.Error(2)
}

func (m *RoomRepositoryMock) CreateGroup(ctx context.Context, creatorID int, title, description string, memberIDs []int) (models.Room, error) {
	args := m.Called(ctx, creatorID, title, description, memberIDs)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	args := m.Called(ctx, roomID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID int) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) IsParticipant(ctx context.Context, roomID, userID int) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepositoryMock) Participants(ctx context.Context, roomID int) ([]models.PublicUser, error) {
	args := m.Called(ctx, roomID)
	var users []models.PublicUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicUser)
	}
	return users, args.Error(1)
}

func (m *RoomRepositoryMock) AddParticipants(ctx context.Context, roomID int, userIDs []int) error {
	args := m.Called(ctx, roomID, userIDs)
	return args.Error(0)
}

func (m *RoomRepositoryMock) RemoveParticipant(ctx context.Context, roomID, userID int) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) TransferOwnership(ctx context.Context, roomID, newOwnerID int) error {
	args := m.Called(ctx, roomID, newOwnerID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) DeleteRoom(ctx context.Context, roomID int) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) SyncFamilyRoom(ctx context.Context, family models.Family, memberIDs []int) (models.Room, error) {
	args := m.Called(ctx, family, memberIDs)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) DeleteFamilyRoom(ctx context.Context, familyID int) error {
	args := m.Called(ctx, familyID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID, userID int, content string, replyTo *int, media []repositories.MediaInput) (models.Message, error) {
	args := m.Called(ctx, roomID, userID, content, replyTo, media)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRoomMessages(ctx context.Context, roomID, limit int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessages(ctx context.Context, roomID int, messageIDs []int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, messageIDs)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, roomID, userID int, messageIDs []int) error {
	args := m.Called(ctx, roomID, userID, messageIDs)
	return args.Error(0)
}

type FamilyRepositoryMock struct {
	mock.Mock
}

func (m *FamilyRepositoryMock) CreateFamily(ctx context.Context, creatorID int, name string) (models.Family, error) {
	args := m.Called(ctx, creatorID, name)
	var family models.Family
	if val := args.Get(0); val != nil {
		family = val.(models.Family)
	}
	return family, args.Error(1)
}

func (m *FamilyRepositoryMock) GetFamily(ctx context.Context, familyID int) (models.Family, error) {
	args := m.Called(ctx, familyID)
	var family models.Family
	if val := args.Get(0); val != nil {
		family = val.(models.Family)
	}
	return family, args.Error(1)
}

func (m *FamilyRepositoryMock) GetByInviteCode(ctx context.Context, code string) (models.Family, error) {
	args := m.Called(ctx, code)
	var family models.Family
	if val := args.Get(0); val != nil {
		family = val.(models.Family)
	}
	return family, args.Error(1)
}

func (m *FamilyRepositoryMock) RotateInviteCode(ctx context.Context, familyID int) (models.Family, error) {
	args := m.Called(ctx, familyID)
	var family models.Family
	if val := args.Get(0); val != nil {
		family = val.(models.Family)
	}
	return family, args.Error(1)
}

func (m *FamilyRepositoryMock) ListFamiliesForUser(ctx context.Context, userID int) ([]models.Family, error) {
	args := m.Called(ctx, userID)
	var families []models.Family
	if val := args.Get(0); val != nil {
		families = val.([]models.Family)
	}
	return families, args.Error(1)
}

func (m *FamilyRepositoryMock) AddMember(ctx context.Context, familyID, userID int, relation string) error {
	args := m.Called(ctx, familyID, userID, relation)
	return args.Error(0)
}

func (m *FamilyRepositoryMock) RemoveMember(ctx context.Context, familyID, userID int) error {
	args := m.Called(ctx, familyID, userID)
	return args.Error(0)
}

func (m *FamilyRepositoryMock) MemberIDs(ctx context.Context, familyID int) ([]int, error) {
	args := m.Called(ctx, familyID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *FamilyRepositoryMock) Members(ctx context.Context, familyID int) ([]models.PublicUser, error) {
	args := m.Called(ctx, familyID)
	var members []models.PublicUser
	if val := args.Get(0); val != nil {
		members = val.([]models.PublicUser)
	}
	return members, args.Error(1)
}

func (m *FamilyRepositoryMock) IsMember(ctx context.Context, familyID, userID int) (bool, error) {
	args := m.Called(ctx, familyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *FamilyRepositoryMock) IsAdmin(ctx context.Context, familyID, userID int) (bool, error) {
	args := m.Called(ctx, familyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *FamilyRepositoryMock) GrantAdmin(ctx context.Context, familyID, userID int) error {
	args := m.Called(ctx, familyID, userID)
	return args.Error(0)
}

func (m *FamilyRepositoryMock) RevokeAdmin(ctx context.Context, familyID, userID int) error {
	args := m.Called(ctx, familyID, userID)
	return args.Error(0)
}

func (m *FamilyRepositoryMock) DeleteFamily(ctx context.Context, familyID int) error {
	args := m.Called(ctx, familyID)
	return args.Error(0)
}

type VideoCallRepositoryMock struct {
	mock.Mock
}

func (m *VideoCallRepositoryMock) GetOrCreateCall(ctx context.Context, roomID, userID int) (models.VideoCall, error) {
	args := m.Called(ctx, roomID, userID)
	var call models.VideoCall
	if val := args.Get(0); val != nil {
		call = val.(models.VideoCall)
	}
	return call, args.Error(1)
}

func (m *VideoCallRepositoryMock) AddParticipant(ctx context.Context, callID, userID int) error {
	args := m.Called(ctx, callID, userID)
	return args.Error(0)
}

func (m *VideoCallRepositoryMock) EndCall(ctx context.Context, roomID int) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *VideoCallRepositoryMock) ListIceServers(ctx context.Context) ([]models.IceServer, error) {
	args := m.Called(ctx)
	var servers []models.IceServer
	if val := args.Get(0); val != nil {
		servers = val.([]models.IceServer)
	}
	return servers, args.Error(1)
}
