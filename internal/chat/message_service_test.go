package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"famnet-backend/internal/mocks"
	"famnet-backend/internal/models"
	"famnet-backend/internal/repositories"
)

// recordingBroadcaster captures publishes in order.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Group   string
	Action  string
	Results any
}

func (b *recordingBroadcaster) Publish(group, action string, results any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{Group: group, Action: action, Results: results})
}

func TestSendPersistsThenFansOut(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	hub := &recordingBroadcaster{}
	svc := NewMessageService(roomRepo, msgRepo, NewPermissionChecker(roomRepo, new(mocks.FamilyRepositoryMock)), hub)

	stored := models.Message{ID: 42, RoomID: 5, UserID: intPtr(1), Content: "hi"}
	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5}, nil).Once()
	roomRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	msgRepo.On("CreateMessage", mock.Anything, 5, 1, "hi", (*int)(nil), ([]repositories.MediaInput)(nil)).Return(stored, nil).Once()
	roomRepo.On("Participants", mock.Anything, 5).Return([]models.PublicUser{{ID: 1}, {ID: 2}, {ID: 3}}, nil).Once()

	msg, err := svc.Send(context.Background(), 5, 1, "hi", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 42, msg.ID)

	// Room broadcast first, then one personal notification per other member.
	require.Len(t, hub.events, 3)
	assert.Equal(t, RoomGroup(5), hub.events[0].Group)
	assert.Equal(t, models.ActionNewMessage, hub.events[0].Action)
	assert.Equal(t, UserGroup(2), hub.events[1].Group)
	assert.Equal(t, UserGroup(3), hub.events[2].Group)

	roomRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
}

func TestSendRejectsNonParticipant(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	hub := &recordingBroadcaster{}
	svc := NewMessageService(roomRepo, msgRepo, nil, hub)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5}, nil).Once()
	roomRepo.On("IsParticipant", mock.Anything, 5, 9).Return(false, nil).Once()

	_, err := svc.Send(context.Background(), 5, 9, "hi", nil, nil)
	require.ErrorIs(t, err, ErrNotParticipant)
	require.Empty(t, hub.events)
	msgRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteForbiddenLeavesMessage(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	hub := &recordingBroadcaster{}
	svc := NewMessageService(roomRepo, msgRepo, NewPermissionChecker(roomRepo, new(mocks.FamilyRepositoryMock)), hub)

	msg := models.Message{ID: 42, RoomID: 5, UserID: intPtr(1)}
	msgRepo.On("GetMessage", mock.Anything, 42).Return(msg, nil).Once()
	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.Room{ID: 5, CreatedBy: intPtr(1)}, nil).Once()

	err := svc.Delete(context.Background(), 9, 42)
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, hub.events)
	msgRepo.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)
}

func TestDeleteBySenderBroadcasts(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	hub := &recordingBroadcaster{}
	svc := NewMessageService(roomRepo, msgRepo, NewPermissionChecker(roomRepo, new(mocks.FamilyRepositoryMock)), hub)

	msg := models.Message{ID: 42, RoomID: 5, UserID: intPtr(1)}
	msgRepo.On("GetMessage", mock.Anything, 42).Return(msg, nil).Once()
	msgRepo.On("DeleteMessage", mock.Anything, 42).Return(nil).Once()

	require.NoError(t, svc.Delete(context.Background(), 1, 42))
	require.Len(t, hub.events, 1)
	assert.Equal(t, models.ActionDeleteMsg, hub.events[0].Action)
	assert.Equal(t, map[string]int{"id": 42}, hub.events[0].Results)
}

func TestMarkReadBroadcastsUpdatedMessages(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	hub := &recordingBroadcaster{}
	svc := NewMessageService(roomRepo, msgRepo, nil, hub)

	updated := []models.Message{{ID: 1, RoomID: 5, HaveRead: []int{2}}}
	roomRepo.On("IsParticipant", mock.Anything, 5, 2).Return(true, nil).Once()
	msgRepo.On("MarkRead", mock.Anything, 5, 2, []int{1}).Return(nil).Once()
	msgRepo.On("GetMessages", mock.Anything, 5, []int{1}).Return(updated, nil).Once()

	msgs, err := svc.MarkRead(context.Background(), 5, 2, []int{1})
	require.NoError(t, err)
	require.Equal(t, updated, msgs)
	require.Len(t, hub.events, 1)
	assert.Equal(t, models.ActionReadMsgs, hub.events[0].Action)
	msgRepo.AssertExpectations(t)
}

func TestMarkReadScopesIDsToRoom(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	hub := &recordingBroadcaster{}
	svc := NewMessageService(roomRepo, msgRepo, nil, hub)

	// Ids from another room never reach the read set or the broadcast: the
	// store drops them because every query is keyed by the room.
	roomRepo.On("IsParticipant", mock.Anything, 5, 2).Return(true, nil).Once()
	msgRepo.On("MarkRead", mock.Anything, 5, 2, []int{1, 99}).Return(nil).Once()
	msgRepo.On("GetMessages", mock.Anything, 5, []int{1, 99}).
		Return([]models.Message{{ID: 1, RoomID: 5, HaveRead: []int{2}}}, nil).Once()

	msgs, err := svc.MarkRead(context.Background(), 5, 2, []int{1, 99})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, 5, msgs[0].RoomID)
	msgRepo.AssertExpectations(t)
}

func TestTypingRelaysWithoutPersistence(t *testing.T) {
	hub := &recordingBroadcaster{}
	svc := NewMessageService(new(mocks.RoomRepositoryMock), new(mocks.MessageRepositoryMock), nil, hub)

	svc.Typing(5, 2, false)
	svc.Typing(5, 2, true)

	require.Len(t, hub.events, 2)
	assert.Equal(t, models.ActionTyping, hub.events[0].Action)
	assert.Equal(t, models.ActionStopTyping, hub.events[1].Action)
}
