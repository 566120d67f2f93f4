package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"famnet-backend/internal/chat"
	"famnet-backend/internal/mocks"
	"famnet-backend/internal/models"
)

func setupRoomRouter(handler *RoomHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/rooms", handler.List)
	r.POST("/rooms/private", handler.CreatePrivate)
	r.POST("/rooms/group", handler.CreateGroup)
	r.POST("/rooms/:room_id/leave", handler.Leave)
	r.POST("/rooms/:room_id/transfer", handler.TransferOwnership)
	r.DELETE("/rooms/:room_id", handler.Delete)
	return r
}

func roomFixtures(t *testing.T) (*mocks.RoomRepositoryMock, *mocks.FriendshipRepositoryMock, *gin.Engine) {
	t.Helper()
	roomRepo := new(mocks.RoomRepositoryMock)
	friendRepo := new(mocks.FriendshipRepositoryMock)
	svc := chat.NewRoomService(roomRepo, friendRepo, new(mocks.FamilyRepositoryMock), nopBroadcaster{})
	return roomRepo, friendRepo, setupRoomRouter(NewRoomHandler(svc))
}

func TestCreatePrivateNotFriends(t *testing.T) {
	_, friendRepo, router := roomFixtures(t)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/private", bytes.NewBufferString(`{"user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreatePrivateSelf(t *testing.T) {
	_, _, router := roomFixtures(t)

	req := httptest.NewRequest(http.MethodPost, "/rooms/private", bytes.NewBufferString(`{"user_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePrivateIdempotent(t *testing.T) {
	roomRepo, friendRepo, router := roomFixtures(t)

	room := models.Room{ID: 3, Type: models.RoomPrivate}
	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(true, nil)
	roomRepo.On("GetOrCreatePrivate", mock.Anything, 1, 2).Return(room, false, nil)
	roomRepo.On("Participants", mock.Anything, 3).Return([]models.PublicUser{{ID: 1}, {ID: 2}}, nil)

	// Both calls resolve the same room.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rooms/private", bytes.NewBufferString(`{"user_id":2}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"id":3`)
	}
}

func TestCreateGroupReturnsSummary(t *testing.T) {
	roomRepo, _, router := roomFixtures(t)

	room := models.Room{ID: 4, Type: models.RoomGroup}
	roomRepo.On("CreateGroup", mock.Anything, 1, "trip", "", []int{2, 3}).Return(room, nil).Once()
	roomRepo.On("Participants", mock.Anything, 4).Return([]models.PublicUser{{ID: 1}, {ID: 2}, {ID: 3}}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/group", bytes.NewBufferString(`{"title":"trip","member_ids":[2,3]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestLeaveAsCreatorConflicts(t *testing.T) {
	roomRepo, _, router := roomFixtures(t)

	creator := 1
	roomRepo.On("GetRoom", mock.Anything, 4).Return(models.Room{ID: 4, CreatedBy: &creator}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/4/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransferToNonMember(t *testing.T) {
	roomRepo, _, router := roomFixtures(t)

	creator := 1
	roomRepo.On("GetRoom", mock.Anything, 4).Return(models.Room{ID: 4, CreatedBy: &creator}, nil).Once()
	roomRepo.On("IsParticipant", mock.Anything, 4, 9).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/4/transfer", bytes.NewBufferString(`{"user_id":9}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRoomNotCreator(t *testing.T) {
	roomRepo, _, router := roomFixtures(t)

	creator := 2
	roomRepo.On("GetRoom", mock.Anything, 4).Return(models.Room{ID: 4, CreatedBy: &creator}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/rooms/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	roomRepo.AssertNotCalled(t, "DeleteRoom", mock.Anything, mock.Anything)
}
