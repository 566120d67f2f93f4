package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"famnet-backend/internal/mocks"
	"famnet-backend/internal/models"
	"famnet-backend/internal/repositories"
)

func newRoomService(rooms *mocks.RoomRepositoryMock, friends *mocks.FriendshipRepositoryMock, families *mocks.FamilyRepositoryMock) *RoomService {
	return NewRoomService(rooms, friends, families, &recordingBroadcaster{})
}

func TestGetOrCreatePrivateRejectsSelf(t *testing.T) {
	svc := newRoomService(new(mocks.RoomRepositoryMock), new(mocks.FriendshipRepositoryMock), new(mocks.FamilyRepositoryMock))

	_, err := svc.GetOrCreatePrivate(context.Background(), 1, 1)
	require.ErrorIs(t, err, repositories.ErrSelfRoom)
}

func TestGetOrCreatePrivateRequiresFriendship(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	friendRepo := new(mocks.FriendshipRepositoryMock)
	svc := newRoomService(roomRepo, friendRepo, new(mocks.FamilyRepositoryMock))

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(false, nil).Once()

	_, err := svc.GetOrCreatePrivate(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrNotFriends)
	roomRepo.AssertNotCalled(t, "GetOrCreatePrivate", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrCreatePrivateReturnsSummary(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	friendRepo := new(mocks.FriendshipRepositoryMock)
	svc := newRoomService(roomRepo, friendRepo, new(mocks.FamilyRepositoryMock))

	room := models.Room{ID: 3, Type: models.RoomPrivate}
	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()
	roomRepo.On("GetOrCreatePrivate", mock.Anything, 1, 2).Return(room, true, nil).Once()
	roomRepo.On("Participants", mock.Anything, 3).Return([]models.PublicUser{{ID: 1}, {ID: 2}}, nil).Once()

	summary, err := svc.GetOrCreatePrivate(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, summary.ID)
	require.Len(t, summary.Participants, 2)
	roomRepo.AssertExpectations(t)
}

func TestLeaveCreatorMustTransferFirst(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	svc := newRoomService(roomRepo, new(mocks.FriendshipRepositoryMock), new(mocks.FamilyRepositoryMock))

	roomRepo.On("GetRoom", mock.Anything, 3).Return(models.Room{ID: 3, CreatedBy: intPtr(1)}, nil).Once()

	err := svc.Leave(context.Background(), 1, 3)
	require.ErrorIs(t, err, ErrCreatorMustTransfer)
	roomRepo.AssertNotCalled(t, "RemoveParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveParticipantCreatorImmutable(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	svc := newRoomService(roomRepo, new(mocks.FriendshipRepositoryMock), new(mocks.FamilyRepositoryMock))

	roomRepo.On("GetRoom", mock.Anything, 3).Return(models.Room{ID: 3, CreatedBy: intPtr(1)}, nil)

	require.ErrorIs(t, svc.RemoveParticipant(context.Background(), 1, 3, 1), ErrCreatorImmutable)
	require.ErrorIs(t, svc.RemoveParticipant(context.Background(), 2, 3, 1), ErrForbidden)
}

func TestTransferOwnershipRequiresMember(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	svc := newRoomService(roomRepo, new(mocks.FriendshipRepositoryMock), new(mocks.FamilyRepositoryMock))

	roomRepo.On("GetRoom", mock.Anything, 3).Return(models.Room{ID: 3, CreatedBy: intPtr(1)}, nil)
	roomRepo.On("IsParticipant", mock.Anything, 3, 5).Return(false, nil).Once()

	require.ErrorIs(t, svc.TransferOwnership(context.Background(), 1, 3, 5), ErrNewOwnerNotMember)

	roomRepo.On("IsParticipant", mock.Anything, 3, 5).Return(true, nil).Once()
	roomRepo.On("TransferOwnership", mock.Anything, 3, 5).Return(nil).Once()
	require.NoError(t, svc.TransferOwnership(context.Background(), 1, 3, 5))
	roomRepo.AssertExpectations(t)
}

func TestSyncFamilyRoomMirrorsMembership(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	familyRepo := new(mocks.FamilyRepositoryMock)
	svc := newRoomService(roomRepo, new(mocks.FriendshipRepositoryMock), familyRepo)

	family := models.Family{ID: 9, CreatorID: 1, Name: "smith"}
	room := models.Room{ID: 12, Type: models.RoomFamily, FamilyID: intPtr(9)}

	familyRepo.On("GetFamily", mock.Anything, 9).Return(family, nil).Once()
	familyRepo.On("MemberIDs", mock.Anything, 9).Return([]int{1, 2, 3}, nil).Once()
	roomRepo.On("SyncFamilyRoom", mock.Anything, family, []int{1, 2, 3}).Return(room, nil).Once()
	roomRepo.On("Participants", mock.Anything, 12).Return([]models.PublicUser{{ID: 1}, {ID: 2}, {ID: 3}}, nil).Once()

	summary, err := svc.SyncFamilyRoom(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, 12, summary.ID)
	require.Len(t, summary.Participants, 3)
	roomRepo.AssertExpectations(t)
	familyRepo.AssertExpectations(t)
}
